package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carehub/internal/model"
	"carehub/internal/service"
)

// FamilyRepository manages households and their members.
type FamilyRepository struct {
	db *gorm.DB
}

func NewFamilyRepository(db *gorm.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

func (r *FamilyRepository) Create(ctx context.Context, family *model.Family) error {
	if err := r.db.WithContext(ctx).Create(family).Error; err != nil {
		return fmt.Errorf("create family: %w", err)
	}
	return nil
}

func (r *FamilyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Family, error) {
	var family model.Family
	err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", id).First(&family).Error
	switch {
	case err == nil:
		return &family, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: family %s", service.ErrNotFound, id)
	default:
		return nil, fmt.Errorf("find family: %w", err)
	}
}

func (r *FamilyRepository) ListAll(ctx context.Context) ([]model.Family, error) {
	var families []model.Family
	if err := r.db.WithContext(ctx).Find(&families).Error; err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	return families, nil
}

func (r *FamilyRepository) SetTelegramChat(ctx context.Context, id uuid.UUID, chatID *int64) error {
	res := r.db.WithContext(ctx).Model(&model.Family{}).Where("id = ?", id).Update("telegram_chat_id", chatID)
	if res.Error != nil {
		return fmt.Errorf("set telegram chat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: family %s", service.ErrNotFound, id)
	}
	return nil
}

func (r *FamilyRepository) AddMember(ctx context.Context, member *model.Member) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *FamilyRepository) FindMemberByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	switch {
	case err == nil:
		return &member, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: member %s", service.ErrNotFound, id)
	default:
		return nil, fmt.Errorf("find member: %w", err)
	}
}
