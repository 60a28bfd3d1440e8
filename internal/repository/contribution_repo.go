package repository

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chama/internal/domain"
	"chama/internal/models"
)

type ContributionRepository struct {
	db *gorm.DB
}

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) WithTx(tx *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: tx}
}

func (r *ContributionRepository) Create(c *models.TontineContribution) error {
	return r.db.Create(c).Error
}

func (r *ContributionRepository) GetByID(id uint) (*models.TontineContribution, error) {
	var c models.TontineContribution
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContributionRepository) GetByExternalRef(ref string) (*models.TontineContribution, error) {
	var c models.TontineContribution
	err := r.db.Where("external_payment_ref = ?", ref).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContributionRepository) Save(c *models.TontineContribution) error {
	return r.db.Save(c).Error
}

type ContributionFilter struct {
	TontineID uint
	MemberID  uint
	UserID    uint
	Status    string
	Search    string
	Round     int
}

func (r *ContributionRepository) List(f ContributionFilter, page, limit int) ([]models.TontineContribution, int64, error) {
	q := r.db.Model(&models.TontineContribution{})
	if f.TontineID != 0 {
		q = q.Where("tontine_contributions.tontine_id = ?", f.TontineID)
	}
	if f.MemberID != 0 {
		q = q.Where("tontine_member_id = ?", f.MemberID)
	}
	if f.UserID != 0 {
		q = q.Where("tontine_contributions.user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("tontine_contributions.status = ?", f.Status)
	}
	if f.Round != 0 {
		q = q.Where("round_number = ?", f.Round)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("JOIN tontines ON tontines.id = tontine_contributions.tontine_id").
			Where("tontines.name LIKE ? OR tontine_contributions.payment_method LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.TontineContribution
	err := q.Order("tontine_contributions.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&items).Error
	return items, total, err
}

// CountCompletedForRound counts distinct members holding a completed
// contribution for the round; round completion compares this against the
// member count.
func (r *ContributionRepository) CountCompletedForRound(tontineID uint, round int) (int64, error) {
	var n int64
	err := r.db.Model(&models.TontineContribution{}).
		Where("tontine_id = ? AND round_number = ? AND status = ?", tontineID, round, domain.ContributionStatusCompleted).
		Distinct("tontine_member_id").
		Count(&n).Error
	return n, err
}

// HasCompletedSinceRound reports whether the member holds a completed
// contribution for the given round or any later one. Guards member removal.
func (r *ContributionRepository) HasCompletedSinceRound(memberID uint, round int) (bool, error) {
	var n int64
	err := r.db.Model(&models.TontineContribution{}).
		Where("tontine_member_id = ? AND round_number >= ? AND status = ?", memberID, round, domain.ContributionStatusCompleted).
		Count(&n).Error
	return n > 0, err
}

func (r *ContributionRepository) SumCompleted(tontineID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&models.TontineContribution{}).
		Where("tontine_id = ? AND status = ?", tontineID, domain.ContributionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}

// SumCompletedByUser totals a user's completed contributions across all
// tontines. An aggregate, not a paged scan, so it stays exact at any history
// size.
func (r *ContributionRepository) SumCompletedByUser(userID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&models.TontineContribution{}).
		Where("user_id = ? AND status = ?", userID, domain.ContributionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}

func (r *ContributionRepository) CountByTontine(tontineID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.TontineContribution{}).Where("tontine_id = ?", tontineID).Count(&n).Error
	return n, err
}
