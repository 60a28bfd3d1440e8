package repository

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chama/internal/domain"
	"chama/internal/models"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) WithTx(tx *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: tx}
}

func (r *PayoutRepository) Create(p *models.TontinePayout) error {
	return r.db.Create(p).Error
}

func (r *PayoutRepository) GetByTontineAndRound(tontineID uint, round int) (*models.TontinePayout, error) {
	var p models.TontinePayout
	err := r.db.Where("tontine_id = ? AND round_number = ?", tontineID, round).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) ListByTontine(tontineID uint) ([]models.TontinePayout, error) {
	var payouts []models.TontinePayout
	err := r.db.Where("tontine_id = ?", tontineID).Order("round_number ASC").Find(&payouts).Error
	return payouts, err
}

// CountPaidMembers counts the current members who have received a paid
// payout. The join drops payouts to since-removed members, so a tontine only
// completes once everyone still enrolled has been paid.
func (r *PayoutRepository) CountPaidMembers(tontineID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.TontinePayout{}).
		Joins("JOIN tontine_members ON tontine_members.id = tontine_payouts.tontine_member_id").
		Where("tontine_payouts.tontine_id = ? AND tontine_payouts.status = ?", tontineID, domain.PayoutStatusPaid).
		Distinct("tontine_payouts.tontine_member_id").
		Count(&n).Error
	return n, err
}

func (r *PayoutRepository) SumPaid(tontineID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&models.TontinePayout{}).
		Where("tontine_id = ? AND status = ?", tontineID, domain.PayoutStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
