package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role controls what a member may administer within the household.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Family is the household every task belongs to.
type Family struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `json:"name"`
	// TelegramChatID, when set, receives the family's daily digest.
	TelegramChatID *int64    `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Members        []Member  `gorm:"foreignKey:FamilyID" json:"members,omitempty"`
}

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Member is a caregiver or care recipient inside a family.
type Member struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FamilyID  uuid.UUID `gorm:"type:uuid;index" json:"familyId"`
	Name      string    `json:"name"`
	Role      Role      `gorm:"default:member" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
