package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carehub/internal/model"
)

// ErrInvalidIdentity is returned when a synthetic occurrence id cannot
// be decoded.
var ErrInvalidIdentity = errors.New("invalid synthetic occurrence id")

// syntheticPrefix keeps virtual ids disjoint from the uuid format used
// for persisted rows.
const syntheticPrefix = "virt_"

// EncodeID builds the synthetic id of the virtual occurrence of a
// template on a given day. Encoding is stable: the same template and
// day always produce the same id, so a client can reference an
// occurrence that has never been persisted.
func EncodeID(templateID uuid.UUID, date time.Time) string {
	return syntheticPrefix + templateID.String() + "_" + DayKey(date)
}

// DecodeID reverses EncodeID. Malformed or non-virtual input fails with
// ErrInvalidIdentity.
func DecodeID(id string) (uuid.UUID, time.Time, error) {
	if !IsVirtualID(id) {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: %q is not virtual", ErrInvalidIdentity, id)
	}
	rest := strings.TrimPrefix(id, syntheticPrefix)
	sep := strings.LastIndex(rest, "_")
	if sep < 0 {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}
	templateID, err := uuid.Parse(rest[:sep])
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: bad template id in %q", ErrInvalidIdentity, id)
	}
	date, err := time.ParseInLocation(model.DueDayLayout, rest[sep+1:], time.UTC)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: bad date in %q", ErrInvalidIdentity, id)
	}
	return templateID, date, nil
}

// IsVirtualID reports whether id names a virtual occurrence rather than
// a persisted row.
func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}
