package service

import (
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

// RoundService tracks per-round contributions and owns round completion: when
// the last contribution of a round lands, payout creation and the round
// increment happen in the same transaction, under the tontine's lock. Two
// racing "last contribution" writers serialize on the lock; the unique
// (tontine_id, round_number) payout index is the cross-process backstop.
type RoundService struct {
	db    *gorm.DB
	locks *TontineLocks
	notif *NotificationService

	tontineRepo      *repository.TontineRepository
	memberRepo       *repository.MemberRepository
	contributionRepo *repository.ContributionRepository
	payoutRepo       *repository.PayoutRepository
	auditRepo        *repository.AuditLogRepository
}

func NewRoundService(
	db *gorm.DB,
	locks *TontineLocks,
	notif *NotificationService,
	tontineRepo *repository.TontineRepository,
	memberRepo *repository.MemberRepository,
	contributionRepo *repository.ContributionRepository,
	payoutRepo *repository.PayoutRepository,
	auditRepo *repository.AuditLogRepository,
) *RoundService {
	return &RoundService{
		db:               db,
		locks:            locks,
		notif:            notif,
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		contributionRepo: contributionRepo,
		payoutRepo:       payoutRepo,
		auditRepo:        auditRepo,
	}
}

type RecordContributionInput struct {
	MemberID      uint
	RoundNumber   int
	Amount        decimal.Decimal
	PaymentMethod string
	// Settled marks the contribution completed on creation. Reserved for
	// trusted callers (a tontine admin collecting cash in hand); it moves
	// the pot, so it runs the full completion path.
	Settled bool
}

// RecordContribution creates a contribution for a member and round. Members
// record their own; admins can record for anyone.
func (s *RoundService) RecordContribution(actorID uint, in RecordContributionInput) (*models.TontineContribution, error) {
	member, err := s.memberRepo.GetByID(in.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("member %d", in.MemberID)
		}
		return nil, err
	}
	t, err := s.tontineRepo.GetByID(member.TontineID)
	if err != nil {
		return nil, err
	}
	if actorID != member.UserID {
		if _, err := s.memberRepo.RequireAdmin(t.ID, actorID); err != nil {
			return nil, err
		}
	}
	if in.Settled {
		if _, err := s.memberRepo.RequireAdmin(t.ID, actorID); err != nil {
			return nil, err
		}
	}
	if t.Status != domain.TontineStatusActive {
		return nil, domain.Invalidf("tontine %d is %s, contributions need an active group", t.ID, t.Status)
	}
	if !in.Amount.IsPositive() {
		return nil, domain.Invalidf("contribution amount must be positive")
	}
	if in.RoundNumber == 0 {
		in.RoundNumber = t.CurrentRound
	}
	if in.RoundNumber < 1 {
		return nil, domain.Invalidf("round number must be >= 1")
	}

	c := &models.TontineContribution{
		TontineID:        t.ID,
		TontineMemberID:  member.ID,
		UserID:           member.UserID,
		Amount:           in.Amount,
		RoundNumber:      in.RoundNumber,
		Status:           domain.ContributionStatusPending,
		ContributionDate: time.Now(),
		PaymentMethod:    in.PaymentMethod,
	}
	if !in.Settled {
		return c, s.contributionRepo.Create(c)
	}

	// Settled path mutates the pot and may complete the round.
	mu := s.locks.Get(t.ID)
	mu.Lock()
	defer mu.Unlock()

	var paid *payoutResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		c.Status = domain.ContributionStatusCompleted
		if err := s.contributionRepo.WithTx(tx).Create(c); err != nil {
			return err
		}
		cur, err := s.tontineRepo.WithTx(tx).GetByID(t.ID)
		if err != nil {
			return err
		}
		cur.TotalPot = cur.TotalPot.Add(c.Amount)
		if err := s.tontineRepo.WithTx(tx).Save(cur); err != nil {
			return err
		}
		if err := s.audit(tx, &actorID, "contribution_settled", "contribution", c.ID, c.Amount); err != nil {
			return err
		}
		paid, err = s.completeRoundIfDue(tx, cur)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyPayout(paid)
	return c, nil
}

// MarkPaid moves a contribution to completed (valid from pending and late),
// credits the pot and runs round-completion detection, all atomically.
func (s *RoundService) MarkPaid(actorID, id uint) (*models.TontineContribution, error) {
	c, err := s.getContribution(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(c.TontineID, actorID); err != nil {
		return nil, err
	}

	mu := s.locks.Get(c.TontineID)
	mu.Lock()
	defer mu.Unlock()

	var paid *payoutResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		cur, err := s.contributionRepo.WithTx(tx).GetByID(id)
		if err != nil {
			return err
		}
		if cur.Status != domain.ContributionStatusPending && cur.Status != domain.ContributionStatusLate {
			return domain.Conflictf("contribution %d is %s", id, cur.Status)
		}
		cur.Status = domain.ContributionStatusCompleted
		cur.ContributionDate = time.Now()
		if err := s.contributionRepo.WithTx(tx).Save(cur); err != nil {
			return err
		}
		t, err := s.tontineRepo.WithTx(tx).GetByID(cur.TontineID)
		if err != nil {
			return err
		}
		t.TotalPot = t.TotalPot.Add(cur.Amount)
		if err := s.tontineRepo.WithTx(tx).Save(t); err != nil {
			return err
		}
		if err := s.audit(tx, &actorID, "contribution_paid", "contribution", cur.ID, cur.Amount); err != nil {
			return err
		}
		*c = *cur
		paid, err = s.completeRoundIfDue(tx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyPayout(paid)
	return c, nil
}

// MarkLate flags an overdue contribution; only pending ones can go late.
func (s *RoundService) MarkLate(actorID, id uint) (*models.TontineContribution, error) {
	c, err := s.getContribution(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(c.TontineID, actorID); err != nil {
		return nil, err
	}
	if c.Status != domain.ContributionStatusPending {
		return nil, domain.Conflictf("contribution %d is %s", id, c.Status)
	}
	c.Status = domain.ContributionStatusLate
	if err := s.contributionRepo.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *RoundService) List(f repository.ContributionFilter, page, limit int) ([]models.TontineContribution, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.contributionRepo.List(f, page, limit)
}

// TriggerPayout is the explicit admin entry point for payout computation.
// Conflict when the round is incomplete or its payout already exists.
func (s *RoundService) TriggerPayout(actorID, tontineID uint) (*models.TontinePayout, error) {
	t, err := s.tontineRepo.GetByID(tontineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("tontine %d", tontineID)
		}
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(tontineID, actorID); err != nil {
		return nil, err
	}
	if t.Status != domain.TontineStatusActive {
		return nil, domain.Conflictf("tontine %d is %s", tontineID, t.Status)
	}

	mu := s.locks.Get(tontineID)
	mu.Lock()
	defer mu.Unlock()

	var paid *payoutResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		cur, err := s.tontineRepo.WithTx(tx).GetByID(tontineID)
		if err != nil {
			return err
		}
		round := cur.CurrentRound
		done, err := s.roundComplete(tx, cur)
		if err != nil {
			return err
		}
		if !done {
			return domain.Conflictf("round %d of tontine %d is not complete", round, tontineID)
		}
		paid, err = s.payout(tx, cur)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyPayout(paid)
	return paid.payout, nil
}

func (s *RoundService) getContribution(id uint) (*models.TontineContribution, error) {
	c, err := s.contributionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("contribution %d", id)
		}
		return nil, err
	}
	return c, nil
}

type payoutResult struct {
	payout *models.TontinePayout
	member *models.TontineMember
}

// roundComplete reports whether every member holds a completed contribution
// for the tontine's current round.
func (s *RoundService) roundComplete(tx *gorm.DB, t *models.Tontine) (bool, error) {
	memberCount, err := s.memberRepo.WithTx(tx).CountByTontine(t.ID)
	if err != nil {
		return false, err
	}
	if memberCount == 0 {
		return false, nil
	}
	settled, err := s.contributionRepo.WithTx(tx).CountCompletedForRound(t.ID, t.CurrentRound)
	if err != nil {
		return false, err
	}
	return settled >= memberCount, nil
}

// completeRoundIfDue runs detection and, when the round is complete, the
// payout and round increment. Caller holds the tontine lock and the
// transaction.
func (s *RoundService) completeRoundIfDue(tx *gorm.DB, t *models.Tontine) (*payoutResult, error) {
	if t.Status != domain.TontineStatusActive {
		return nil, nil
	}
	done, err := s.roundComplete(tx, t)
	if err != nil || !done {
		return nil, err
	}
	return s.payout(tx, t)
}

// payout disburses the full round pot to the member whose priority matches
// the rotation, advances the round, and completes the tontine once everyone
// has been paid. One transaction with the triggering contribution.
func (s *RoundService) payout(tx *gorm.DB, t *models.Tontine) (*payoutResult, error) {
	if _, err := s.payoutRepo.WithTx(tx).GetByTontineAndRound(t.ID, t.CurrentRound); err == nil {
		return nil, domain.Conflictf("payout for tontine %d round %d already exists", t.ID, t.CurrentRound)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	memberCount, err := s.memberRepo.WithTx(tx).CountByTontine(t.ID)
	if err != nil {
		return nil, err
	}
	n := int(memberCount)
	if n == 0 {
		return nil, domain.Invalidf("tontine %d has no members to pay", t.ID)
	}
	priority := ((t.CurrentRound - 1) % n) + 1
	recipient, err := s.memberRepo.WithTx(tx).GetByTontineAndPriority(t.ID, priority)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tontine %d has no member with priority %d", t.ID, priority)
		}
		return nil, err
	}

	amount := t.ContributionAmount.Mul(decimal.NewFromInt(int64(n)))
	p := &models.TontinePayout{
		TontineID:       t.ID,
		RoundNumber:     t.CurrentRound,
		TontineMemberID: recipient.ID,
		Amount:          amount,
		PayoutDate:      time.Now(),
		Status:          domain.PayoutStatusPaid,
	}
	if err := s.payoutRepo.WithTx(tx).Create(p); err != nil {
		return nil, err
	}

	t.TotalPot = t.TotalPot.Sub(amount)
	t.CurrentRound++
	paidMembers, err := s.payoutRepo.WithTx(tx).CountPaidMembers(t.ID)
	if err != nil {
		return nil, err
	}
	if int(paidMembers) >= n {
		t.Status = domain.TontineStatusCompleted
	}
	if err := s.tontineRepo.WithTx(tx).Save(t); err != nil {
		return nil, err
	}
	if err := s.audit(tx, nil, "payout_paid", "payout", p.ID, amount); err != nil {
		return nil, err
	}
	log.Printf("[round] tontine %d round %d paid %s to member %d (priority %d)",
		t.ID, p.RoundNumber, amount.StringFixed(2), recipient.ID, priority)
	return &payoutResult{payout: p, member: recipient}, nil
}

func (s *RoundService) audit(tx *gorm.DB, actorID *uint, action, resource string, resourceID uint, amount decimal.Decimal) error {
	return s.auditRepo.WithTx(tx).Create(&models.AuditLog{
		UserID:     actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: fmt.Sprintf("%d", resourceID),
		Metadata:   fmt.Sprintf(`{"amount":"%s"}`, amount.StringFixed(2)),
	})
}

func (s *RoundService) notifyPayout(res *payoutResult) {
	if res == nil {
		return
	}
	s.notif.NotifyPayout(res.member.UserID, res.payout.TontineID, res.payout.Amount.StringFixed(2))
}
