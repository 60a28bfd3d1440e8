package repository

import (
	"chama/internal/models"

	"gorm.io/gorm"
)

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) WithTx(tx *gorm.DB) *InviteRepository {
	return &InviteRepository{db: tx}
}

func (r *InviteRepository) Create(inv *models.TontineInvite) error {
	return r.db.Create(inv).Error
}

func (r *InviteRepository) GetByID(id uint) (*models.TontineInvite, error) {
	var inv models.TontineInvite
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) GetByToken(token string) (*models.TontineInvite, error) {
	var inv models.TontineInvite
	err := r.db.Where("invite_token = ?", token).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) Save(inv *models.TontineInvite) error {
	return r.db.Save(inv).Error
}

func (r *InviteRepository) ListByTontine(tontineID uint) ([]models.TontineInvite, error) {
	var invites []models.TontineInvite
	err := r.db.Where("tontine_id = ?", tontineID).Order("created_at DESC").Find(&invites).Error
	return invites, err
}
