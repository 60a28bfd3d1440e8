package repository

import (
	"chama/internal/domain"
	"chama/internal/models"

	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return &MemberRepository{db: tx}
}

func (r *MemberRepository) Create(m *models.TontineMember) error {
	return r.db.Create(m).Error
}

func (r *MemberRepository) GetByID(id uint) (*models.TontineMember, error) {
	var m models.TontineMember
	if err := r.db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) GetByTontineAndUser(tontineID, userID uint) (*models.TontineMember, error) {
	var m models.TontineMember
	err := r.db.Where("tontine_id = ? AND user_id = ?", tontineID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) GetByTontineAndPriority(tontineID uint, priority int) (*models.TontineMember, error) {
	var m models.TontineMember
	err := r.db.Where("tontine_id = ? AND priority_order = ?", tontineID, priority).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) ListByTontine(tontineID uint) ([]models.TontineMember, error) {
	var members []models.TontineMember
	err := r.db.Where("tontine_id = ?", tontineID).Order("priority_order ASC").Find(&members).Error
	return members, err
}

func (r *MemberRepository) ListByUser(userID uint) ([]models.TontineMember, error) {
	var members []models.TontineMember
	err := r.db.Where("user_id = ?", userID).Find(&members).Error
	return members, err
}

func (r *MemberRepository) CountByTontine(tontineID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.TontineMember{}).Where("tontine_id = ?", tontineID).Count(&n).Error
	return n, err
}

func (r *MemberRepository) MaxPriority(tontineID uint) (int, error) {
	var max int
	err := r.db.Model(&models.TontineMember{}).
		Where("tontine_id = ?", tontineID).
		Select("COALESCE(MAX(priority_order), 0)").Scan(&max).Error
	return max, err
}

// Remove deletes the member and closes the gap in the priority sequence so it
// stays dense 1..N. Rows shift lowest-priority first: each decrement lands on
// the slot just freed, so the unique (tontine_id, priority_order) index holds
// at every step.
func (r *MemberRepository) Remove(m *models.TontineMember) error {
	if err := r.db.Delete(m).Error; err != nil {
		return err
	}
	var rest []models.TontineMember
	err := r.db.Where("tontine_id = ? AND priority_order > ?", m.TontineID, m.PriorityOrder).
		Order("priority_order ASC").Find(&rest).Error
	if err != nil {
		return err
	}
	for i := range rest {
		if err := r.db.Model(&rest[i]).UpdateColumn("priority_order", rest[i].PriorityOrder-1).Error; err != nil {
			return err
		}
	}
	return nil
}

// RequireAdmin loads the acting user's membership and fails with Forbidden
// unless they administer the tontine.
func (r *MemberRepository) RequireAdmin(tontineID, userID uint) (*models.TontineMember, error) {
	m, err := r.GetByTontineAndUser(tontineID, userID)
	if err != nil {
		return nil, domain.Forbiddenf("user %d is not a member of tontine %d", userID, tontineID)
	}
	if !m.IsAdmin {
		return nil, domain.Forbiddenf("user %d is not an admin of tontine %d", userID, tontineID)
	}
	return m, nil
}
