package service

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chama/internal/domain"
	"chama/internal/models"
	"chama/internal/repository"
)

// StatsService is the pure read side. TotalPot always comes from the stored
// authoritative field; it is never recomputed inline, so read latency stays
// independent of contribution history size. No locks, no writes.
type StatsService struct {
	tontineRepo      *repository.TontineRepository
	memberRepo       *repository.MemberRepository
	contributionRepo *repository.ContributionRepository
	payoutRepo       *repository.PayoutRepository
}

func NewStatsService(
	tontineRepo *repository.TontineRepository,
	memberRepo *repository.MemberRepository,
	contributionRepo *repository.ContributionRepository,
	payoutRepo *repository.PayoutRepository,
) *StatsService {
	return &StatsService{
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		contributionRepo: contributionRepo,
		payoutRepo:       payoutRepo,
	}
}

type TontineStats struct {
	TotalMembers       int64           `json:"total_members"`
	ContributionCount  int64           `json:"contribution_count"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	TotalPot           decimal.Decimal `json:"total_pot"`
	CurrentRound       int             `json:"current_round"`
	Status             string          `json:"status"`
}

func (s *StatsService) TontineStats(id uint) (*TontineStats, error) {
	t, err := s.tontineRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("tontine %d", id)
		}
		return nil, err
	}
	members, err := s.memberRepo.CountByTontine(id)
	if err != nil {
		return nil, err
	}
	count, err := s.contributionRepo.CountByTontine(id)
	if err != nil {
		return nil, err
	}
	sum, err := s.contributionRepo.SumCompleted(id)
	if err != nil {
		return nil, err
	}
	return &TontineStats{
		TotalMembers:       members,
		ContributionCount:  count,
		TotalContributions: sum,
		TotalPot:           t.TotalPot,
		CurrentRound:       t.CurrentRound,
		Status:             t.Status,
	}, nil
}

type DashboardTontine struct {
	Tontine models.Tontine       `json:"tontine"`
	Member  models.TontineMember `json:"member"`
}

type UserDashboard struct {
	Tontines           []DashboardTontine           `json:"tontines"`
	MyContributions    []models.TontineContribution `json:"my_contributions"`
	ContributionsTotal int64                        `json:"contributions_total"`
	TotalContributed   decimal.Decimal              `json:"total_contributed"`
	TotalReceived      decimal.Decimal              `json:"total_received"`
}

// UserDashboard rolls up a user's standing across all their tontines. The
// contribution listing is one explicit page; the money totals are SQL
// aggregates so they stay exact however long the history grows.
func (s *StatsService) UserDashboard(userID uint, page, limit int) (*UserDashboard, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	memberships, err := s.memberRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	d := &UserDashboard{TotalContributed: decimal.Zero, TotalReceived: decimal.Zero}
	for _, m := range memberships {
		t, err := s.tontineRepo.GetByID(m.TontineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		d.Tontines = append(d.Tontines, DashboardTontine{Tontine: *t, Member: m})
		payouts, err := s.payoutRepo.ListByTontine(m.TontineID)
		if err != nil {
			return nil, err
		}
		for _, p := range payouts {
			if p.TontineMemberID == m.ID && p.Status == domain.PayoutStatusPaid {
				d.TotalReceived = d.TotalReceived.Add(p.Amount)
			}
		}
	}
	contributions, total, err := s.contributionRepo.List(repository.ContributionFilter{UserID: userID}, page, limit)
	if err != nil {
		return nil, err
	}
	d.MyContributions = contributions
	d.ContributionsTotal = total
	d.TotalContributed, err = s.contributionRepo.SumCompletedByUser(userID)
	if err != nil {
		return nil, err
	}
	return d, nil
}
