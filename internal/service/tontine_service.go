package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chama/config"
	"chama/internal/domain"
	"chama/internal/models"
	"chama/internal/repository"
)

type TontineService struct {
	db          *gorm.DB
	cfg         *config.TontineConfig
	tontineRepo *repository.TontineRepository
	memberRepo  *repository.MemberRepository
}

func NewTontineService(db *gorm.DB, cfg *config.TontineConfig, tontineRepo *repository.TontineRepository, memberRepo *repository.MemberRepository) *TontineService {
	return &TontineService{db: db, cfg: cfg, tontineRepo: tontineRepo, memberRepo: memberRepo}
}

type CreateTontineInput struct {
	Name               string
	Description        string
	Type               string
	ContributionAmount decimal.Decimal
	Frequency          string
	DurationMonths     int
	StartDate          *time.Time
	MinMembers         int
	MaxMembers         int
}

// Create opens a new tontine in forming state and enrolls the creator as its
// first admin member with priority 1.
func (s *TontineService) Create(actorID uint, in CreateTontineInput) (*models.Tontine, error) {
	if in.Name == "" {
		return nil, domain.Invalidf("tontine name is required")
	}
	if !in.ContributionAmount.IsPositive() {
		return nil, domain.Invalidf("contribution amount must be positive")
	}
	if !domain.ValidFrequency(in.Frequency) {
		return nil, domain.Invalidf("unsupported frequency %q", in.Frequency)
	}
	if in.MinMembers == 0 {
		in.MinMembers = s.cfg.DefaultMinMembers
	}
	if in.MaxMembers == 0 {
		in.MaxMembers = s.cfg.DefaultMaxMembers
	}
	if in.MinMembers < 2 || in.MaxMembers < in.MinMembers {
		return nil, domain.Invalidf("invalid member bounds %d..%d", in.MinMembers, in.MaxMembers)
	}
	if in.Type == "" {
		in.Type = "rotating"
	}

	t := &models.Tontine{
		Name:               in.Name,
		Description:        in.Description,
		Type:               in.Type,
		ContributionAmount: in.ContributionAmount,
		Frequency:          in.Frequency,
		DurationMonths:     in.DurationMonths,
		StartDate:          in.StartDate,
		Status:             domain.TontineStatusForming,
		TotalPot:           decimal.Zero,
		CurrentRound:       1,
		MinMembers:         in.MinMembers,
		MaxMembers:         in.MaxMembers,
		CreatorID:          actorID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tontineRepo.WithTx(tx).Create(t); err != nil {
			return err
		}
		return s.memberRepo.WithTx(tx).Create(&models.TontineMember{
			TontineID:     t.ID,
			UserID:        actorID,
			IsAdmin:       true,
			PriorityOrder: 1,
			JoinedAt:      time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TontineService) Get(id uint) (*models.Tontine, error) {
	t, err := s.tontineRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("tontine %d", id)
		}
		return nil, err
	}
	return t, nil
}

func (s *TontineService) List(f repository.TontineFilter, page, limit int) ([]models.Tontine, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.tontineRepo.List(f, page, limit)
}

type UpdateTontineInput struct {
	Name           *string
	Description    *string
	DurationMonths *int
	StartDate      *time.Time
}

// Update is admin-only and limited to descriptive fields; financial
// parameters are fixed once the group exists.
func (s *TontineService) Update(actorID, id uint, in UpdateTontineInput) (*models.Tontine, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(id, actorID); err != nil {
		return nil, err
	}
	if t.Status == domain.TontineStatusCompleted || t.Status == domain.TontineStatusCancelled {
		return nil, domain.Conflictf("tontine %d is %s", id, t.Status)
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.Invalidf("tontine name is required")
		}
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.DurationMonths != nil {
		t.DurationMonths = *in.DurationMonths
	}
	if in.StartDate != nil {
		t.StartDate = in.StartDate
	}
	if err := s.tontineRepo.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Cancel marks the group cancelled. Allowed from forming or active; the pot
// invariant keeps holding since contributions and payouts stay untouched.
func (s *TontineService) Cancel(actorID, id uint) (*models.Tontine, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(id, actorID); err != nil {
		return nil, err
	}
	if t.Status == domain.TontineStatusCompleted || t.Status == domain.TontineStatusCancelled {
		return nil, domain.Conflictf("tontine %d is already %s", id, t.Status)
	}
	t.Status = domain.TontineStatusCancelled
	if err := s.tontineRepo.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a tontine that never started collecting; anything past
// forming must be cancelled instead so the financial history survives.
func (s *TontineService) Delete(actorID, id uint) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.memberRepo.RequireAdmin(id, actorID); err != nil {
		return err
	}
	if t.Status != domain.TontineStatusForming {
		return domain.Conflictf("only forming tontines can be deleted, tontine %d is %s", id, t.Status)
	}
	return s.tontineRepo.Delete(id)
}

func (s *TontineService) Members(id uint) ([]models.TontineMember, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.memberRepo.ListByTontine(id)
}
