package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chama/internal/domain"
	"chama/internal/models"
	"chama/internal/repository"
)

// PaymentEvent is the validated shape of an external "payment confirmed"
// event. Reference is the idempotency key: upstream delivery is at-least-once
// and may be out of order, so correctness rests on it alone.
type PaymentEvent struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Metadata  PaymentMetadata `json:"metadata"`
}

type PaymentMetadata struct {
	TontineID uint `json:"tontine_id"`
	UserID    uint `json:"user_id"`
}

type IngestResult struct {
	Duplicate    bool
	Contribution *models.TontineContribution
}

// ReconcileService turns payment-confirmed events into completed
// contributions and pot updates, and runs the out-of-band sweep that
// self-heals pot drift.
type ReconcileService struct {
	db    *gorm.DB
	locks *TontineLocks
	round *RoundService

	tontineRepo      *repository.TontineRepository
	memberRepo       *repository.MemberRepository
	contributionRepo *repository.ContributionRepository
	payoutRepo       *repository.PayoutRepository
	auditRepo        *repository.AuditLogRepository
}

func NewReconcileService(
	db *gorm.DB,
	locks *TontineLocks,
	round *RoundService,
	tontineRepo *repository.TontineRepository,
	memberRepo *repository.MemberRepository,
	contributionRepo *repository.ContributionRepository,
	payoutRepo *repository.PayoutRepository,
	auditRepo *repository.AuditLogRepository,
) *ReconcileService {
	return &ReconcileService{
		db:               db,
		locks:            locks,
		round:            round,
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		contributionRepo: contributionRepo,
		payoutRepo:       payoutRepo,
		auditRepo:        auditRepo,
	}
}

// Ingest applies one event. Duplicates (same reference) are swallowed as
// success and logged; the upstream channel cannot guarantee exactly-once, so
// surfacing them as conflicts would only make retries fail.
func (s *ReconcileService) Ingest(event PaymentEvent) (*IngestResult, error) {
	if event.Reference == "" {
		return nil, domain.Invalidf("payment event has no reference")
	}
	if !event.Amount.IsPositive() {
		return nil, domain.Invalidf("payment event %s has non-positive amount", event.Reference)
	}
	if len(event.Currency) != 3 {
		return nil, domain.Invalidf("payment event %s has malformed currency %q", event.Reference, event.Currency)
	}
	if event.Metadata.TontineID == 0 || event.Metadata.UserID == 0 {
		return nil, domain.Invalidf("payment event %s has incomplete metadata", event.Reference)
	}

	t, err := s.tontineRepo.GetByID(event.Metadata.TontineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("tontine %d", event.Metadata.TontineID)
		}
		return nil, err
	}
	member, err := s.memberRepo.GetByTontineAndUser(t.ID, event.Metadata.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Conflictf("user %d is not a member of tontine %d", event.Metadata.UserID, t.ID)
		}
		return nil, err
	}

	mu := s.locks.Get(t.ID)
	mu.Lock()
	defer mu.Unlock()

	result := &IngestResult{}
	var paid *payoutResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		contribRepo := s.contributionRepo.WithTx(tx)

		existing, err := contribRepo.GetByExternalRef(event.Reference)
		if err == nil {
			log.Printf("[reconcile] duplicate event %s for tontine %d, already applied as contribution %d",
				event.Reference, t.ID, existing.ID)
			result.Duplicate = true
			result.Contribution = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		cur, err := s.tontineRepo.WithTx(tx).GetByID(t.ID)
		if err != nil {
			return err
		}
		// Membership could have changed since the pre-lock lookup.
		if _, err := s.memberRepo.WithTx(tx).GetByID(member.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Conflictf("user %d left tontine %d before event %s applied",
					member.UserID, t.ID, event.Reference)
			}
			return err
		}
		ref := event.Reference
		c := &models.TontineContribution{
			TontineID:          cur.ID,
			TontineMemberID:    member.ID,
			UserID:             member.UserID,
			Amount:             event.Amount,
			RoundNumber:        cur.CurrentRound,
			Status:             domain.ContributionStatusCompleted,
			ContributionDate:   time.Now(),
			PaymentMethod:      "external",
			ExternalPaymentRef: &ref,
		}
		if err := contribRepo.Create(c); err != nil {
			return err
		}
		cur.TotalPot = cur.TotalPot.Add(event.Amount)
		if err := s.tontineRepo.WithTx(tx).Save(cur); err != nil {
			return err
		}
		if err := s.auditRepo.WithTx(tx).Create(&models.AuditLog{
			UserID:     &member.UserID,
			Action:     "payment_reconciled",
			Resource:   "contribution",
			ResourceID: event.Reference,
			Metadata:   fmt.Sprintf(`{"amount":"%s","currency":"%s"}`, event.Amount.StringFixed(2), event.Currency),
		}); err != nil {
			return err
		}
		result.Contribution = c

		paid, err = s.round.completeRoundIfDue(tx, cur)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.round.notifyPayout(paid)
	return result, nil
}

// Sweep recomputes sum(completed contributions) - sum(paid payouts) per
// tontine and repairs TotalPot when it has drifted. Runs out of band; it is
// never called from a request path.
func (s *ReconcileService) Sweep() error {
	tontines, err := s.tontineRepo.ListByStatuses(
		domain.TontineStatusForming, domain.TontineStatusActive, domain.TontineStatusCompleted)
	if err != nil {
		return err
	}
	for i := range tontines {
		// Unlocked pre-check so undrifted tontines skip the lock entirely;
		// sweepTontine re-derives everything under the lock before writing.
		drifted, err := s.potDrifted(s.db, &tontines[i])
		if err != nil {
			return err
		}
		if !drifted {
			continue
		}
		if err := s.sweepTontine(tontines[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// sweepTontine heals one tontine's pot. The sums and the drift check run
// inside the locked transaction: a value computed before the lock could
// overwrite a concurrent ingest's pot increment.
func (s *ReconcileService) sweepTontine(id uint) error {
	mu := s.locks.Get(id)
	mu.Lock()
	defer mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		cur, err := s.tontineRepo.WithTx(tx).GetByID(id)
		if err != nil {
			return err
		}
		expected, err := s.expectedPot(tx, cur.ID)
		if err != nil {
			return err
		}
		if expected.Equal(cur.TotalPot) {
			return nil
		}
		log.Printf("[reconcile] tontine %d pot drift: stored %s, expected %s, healing",
			cur.ID, cur.TotalPot.StringFixed(2), expected.StringFixed(2))
		cur.TotalPot = expected
		return s.tontineRepo.WithTx(tx).Save(cur)
	})
}

func (s *ReconcileService) expectedPot(tx *gorm.DB, tontineID uint) (decimal.Decimal, error) {
	contributed, err := s.contributionRepo.WithTx(tx).SumCompleted(tontineID)
	if err != nil {
		return decimal.Zero, err
	}
	paidOut, err := s.payoutRepo.WithTx(tx).SumPaid(tontineID)
	if err != nil {
		return decimal.Zero, err
	}
	return contributed.Sub(paidOut), nil
}

func (s *ReconcileService) potDrifted(db *gorm.DB, t *models.Tontine) (bool, error) {
	expected, err := s.expectedPot(db, t.ID)
	if err != nil {
		return false, err
	}
	return !expected.Equal(t.TotalPot), nil
}

// Run drives the sweep on its own schedule until the context is cancelled.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("[reconcile] sweep every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(); err != nil {
				log.Printf("[reconcile] sweep failed: %v", err)
			}
		}
	}
}
