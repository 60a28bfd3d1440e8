package repository

import (
	"chama/internal/models"

	"gorm.io/gorm"
)

type TontineRepository struct {
	db *gorm.DB
}

func NewTontineRepository(db *gorm.DB) *TontineRepository {
	return &TontineRepository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *TontineRepository) WithTx(tx *gorm.DB) *TontineRepository {
	return &TontineRepository{db: tx}
}

func (r *TontineRepository) Create(t *models.Tontine) error {
	return r.db.Create(t).Error
}

func (r *TontineRepository) GetByID(id uint) (*models.Tontine, error) {
	var t models.Tontine
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TontineRepository) Save(t *models.Tontine) error {
	return r.db.Save(t).Error
}

func (r *TontineRepository) Delete(id uint) error {
	return r.db.Delete(&models.Tontine{}, id).Error
}

type TontineFilter struct {
	Search    string
	Status    string
	Type      string
	CreatorID uint
}

func (r *TontineRepository) List(f TontineFilter, page, limit int) ([]models.Tontine, int64, error) {
	q := r.db.Model(&models.Tontine{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" && f.Type != "all" {
		q = q.Where("type = ?", f.Type)
	}
	if f.CreatorID != 0 {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Tontine
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&items).Error
	return items, total, err
}

// ListByStatuses returns tontines in any of the given states, for the
// reconciliation sweep.
func (r *TontineRepository) ListByStatuses(statuses ...string) ([]models.Tontine, error) {
	var items []models.Tontine
	err := r.db.Where("status IN ?", statuses).Find(&items).Error
	return items, err
}
