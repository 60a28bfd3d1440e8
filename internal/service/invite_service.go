package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"

	"chama/config"
	"chama/internal/domain"
	"chama/internal/models"
	"chama/internal/repository"
)

// InviteService owns the invite state machine and member enrollment. Both the
// self-service accept and the admin approve are triggers into the single
// accepted terminal state; there is no second confirmation step after an
// admin approval.
type InviteService struct {
	db         *gorm.DB
	cfg        *config.TontineConfig
	locks      *TontineLocks
	dispatcher InviteDispatcher

	tontineRepo      *repository.TontineRepository
	memberRepo       *repository.MemberRepository
	inviteRepo       *repository.InviteRepository
	contributionRepo *repository.ContributionRepository
}

func NewInviteService(
	db *gorm.DB,
	cfg *config.TontineConfig,
	locks *TontineLocks,
	dispatcher InviteDispatcher,
	tontineRepo *repository.TontineRepository,
	memberRepo *repository.MemberRepository,
	inviteRepo *repository.InviteRepository,
	contributionRepo *repository.ContributionRepository,
) *InviteService {
	return &InviteService{
		db:               db,
		cfg:              cfg,
		locks:            locks,
		dispatcher:       dispatcher,
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		inviteRepo:       inviteRepo,
		contributionRepo: contributionRepo,
	}
}

func newInviteToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *InviteService) getTontine(id uint) (*models.Tontine, error) {
	t, err := s.tontineRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("tontine %d", id)
		}
		return nil, err
	}
	return t, nil
}

func (s *InviteService) getInvite(id uint) (*models.TontineInvite, error) {
	inv, err := s.inviteRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("invite %d", id)
		}
		return nil, err
	}
	return inv, nil
}

// CreateInvite issues a pending invite with an unguessable token. Admin-only;
// the tontine must still be accepting members.
func (s *InviteService) CreateInvite(actorID, tontineID uint, email string, userID *uint) (*models.TontineInvite, error) {
	t, err := s.getTontine(tontineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(tontineID, actorID); err != nil {
		return nil, err
	}
	if t.Status != domain.TontineStatusForming && t.Status != domain.TontineStatusActive {
		return nil, domain.Invalidf("tontine %d is %s and not accepting members", tontineID, t.Status)
	}
	if email == "" && userID == nil {
		return nil, domain.Invalidf("invite needs an email or a user id")
	}
	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	inv := &models.TontineInvite{
		TontineID:   tontineID,
		Email:       email,
		UserID:      userID,
		InviteToken: token,
		Status:      domain.InviteStatusPending,
		ExpiresAt:   time.Now().Add(s.cfg.InviteTTL),
	}
	if err := s.inviteRepo.Create(inv); err != nil {
		return nil, err
	}
	s.dispatcher.SendInvite(inv, t.Name)
	return inv, nil
}

// AcceptInvite is the self-service trigger: the authenticated invitee joins.
func (s *InviteService) AcceptInvite(inviteID, userID uint) (*models.TontineMember, error) {
	inv, err := s.getInvite(inviteID)
	if err != nil {
		return nil, err
	}
	return s.accept(inv, userID, nil)
}

// AcceptByToken resolves the invite from its opaque token, for invitees who
// followed an emailed link.
func (s *InviteService) AcceptByToken(token string, userID uint) (*models.TontineMember, error) {
	inv, err := s.inviteRepo.GetByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("invite token")
		}
		return nil, err
	}
	return s.accept(inv, userID, nil)
}

// ApproveInvite is the admin trigger into the same accepted state. The invite
// must carry the invitee's user id; the approving admin is recorded.
func (s *InviteService) ApproveInvite(actorID, tontineID, inviteID uint) (*models.TontineMember, error) {
	if _, err := s.memberRepo.RequireAdmin(tontineID, actorID); err != nil {
		return nil, err
	}
	inv, err := s.getInvite(inviteID)
	if err != nil {
		return nil, err
	}
	if inv.TontineID != tontineID {
		return nil, domain.NotFoundf("invite %d in tontine %d", inviteID, tontineID)
	}
	if inv.UserID == nil {
		return nil, domain.Invalidf("invite %d has no associated user", inviteID)
	}
	return s.accept(inv, *inv.UserID, &actorID)
}

func (s *InviteService) accept(inv *models.TontineInvite, userID uint, approvedBy *uint) (*models.TontineMember, error) {
	t, err := s.getTontine(inv.TontineID)
	if err != nil {
		return nil, err
	}

	mu := s.locks.Get(t.ID)
	mu.Lock()
	defer mu.Unlock()

	// Expiry is persisted outside the enrollment transaction; the status
	// write must survive the Expired error.
	cur, err := s.inviteRepo.GetByID(inv.ID)
	if err != nil {
		return nil, err
	}
	if cur.Status != domain.InviteStatusPending {
		return nil, domain.Conflictf("invite %d already %s", cur.ID, cur.Status)
	}
	if time.Now().After(cur.ExpiresAt) {
		cur.Status = domain.InviteStatusExpired
		if err := s.inviteRepo.Save(cur); err != nil {
			return nil, err
		}
		return nil, domain.Expiredf("invite %d", cur.ID)
	}

	var member *models.TontineMember
	err = s.db.Transaction(func(tx *gorm.DB) error {
		inviteRepo := s.inviteRepo.WithTx(tx)
		memberRepo := s.memberRepo.WithTx(tx)
		tontineRepo := s.tontineRepo.WithTx(tx)

		// Reload under the lock; the copies read outside may be stale.
		t, err := tontineRepo.GetByID(t.ID)
		if err != nil {
			return err
		}
		cur, err := inviteRepo.GetByID(inv.ID)
		if err != nil {
			return err
		}
		if cur.Status != domain.InviteStatusPending {
			return domain.Conflictf("invite %d already %s", cur.ID, cur.Status)
		}
		count, err := memberRepo.CountByTontine(t.ID)
		if err != nil {
			return err
		}
		if int(count) >= t.MaxMembers {
			return domain.Invalidf("tontine %d is full (%d members)", t.ID, count)
		}
		if _, err := memberRepo.GetByTontineAndUser(t.ID, userID); err == nil {
			return domain.Conflictf("user %d is already a member of tontine %d", userID, t.ID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		maxPriority, err := memberRepo.MaxPriority(t.ID)
		if err != nil {
			return err
		}
		member = &models.TontineMember{
			TontineID:     t.ID,
			UserID:        userID,
			PriorityOrder: maxPriority + 1,
			JoinedAt:      time.Now(),
		}
		if err := memberRepo.Create(member); err != nil {
			return err
		}

		cur.Status = domain.InviteStatusAccepted
		cur.UserID = &userID
		cur.ApprovedBy = approvedBy
		if err := inviteRepo.Save(cur); err != nil {
			return err
		}

		if t.Status == domain.TontineStatusForming && int(count)+1 >= t.MinMembers {
			t.Status = domain.TontineStatusActive
			if err := tontineRepo.Save(t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// DeclineInvite moves a pending invite to declined.
func (s *InviteService) DeclineInvite(inviteID uint) (*models.TontineInvite, error) {
	inv, err := s.getInvite(inviteID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InviteStatusPending {
		return nil, domain.Conflictf("invite %d already %s", inviteID, inv.Status)
	}
	inv.Status = domain.InviteStatusDeclined
	if err := s.inviteRepo.Save(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ResendInvite re-triggers dispatch without touching token or status.
func (s *InviteService) ResendInvite(actorID, inviteID uint) (*models.TontineInvite, error) {
	inv, err := s.getInvite(inviteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(inv.TontineID, actorID); err != nil {
		return nil, err
	}
	if inv.Status != domain.InviteStatusPending {
		return nil, domain.Conflictf("invite %d already %s", inviteID, inv.Status)
	}
	t, err := s.getTontine(inv.TontineID)
	if err != nil {
		return nil, err
	}
	s.dispatcher.SendInvite(inv, t.Name)
	return inv, nil
}

// AddMembers is the direct admin add. Already-enrolled users are skipped;
// priority orders extend densely past the current maximum.
func (s *InviteService) AddMembers(actorID, tontineID uint, userIDs []uint) ([]models.TontineMember, error) {
	t, err := s.getTontine(tontineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(tontineID, actorID); err != nil {
		return nil, err
	}
	if t.Status != domain.TontineStatusForming && t.Status != domain.TontineStatusActive {
		return nil, domain.Invalidf("tontine %d is %s and not accepting members", tontineID, t.Status)
	}

	mu := s.locks.Get(tontineID)
	mu.Lock()
	defer mu.Unlock()

	var added []models.TontineMember
	err = s.db.Transaction(func(tx *gorm.DB) error {
		memberRepo := s.memberRepo.WithTx(tx)
		tontineRepo := s.tontineRepo.WithTx(tx)

		t, err := tontineRepo.GetByID(tontineID)
		if err != nil {
			return err
		}
		count, err := memberRepo.CountByTontine(tontineID)
		if err != nil {
			return err
		}
		priority, err := memberRepo.MaxPriority(tontineID)
		if err != nil {
			return err
		}
		for _, uid := range userIDs {
			if _, err := memberRepo.GetByTontineAndUser(tontineID, uid); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if int(count) >= t.MaxMembers {
				return domain.Invalidf("tontine %d is full (%d members)", tontineID, count)
			}
			priority++
			m := models.TontineMember{
				TontineID:     tontineID,
				UserID:        uid,
				PriorityOrder: priority,
				JoinedAt:      time.Now(),
			}
			if err := memberRepo.Create(&m); err != nil {
				return err
			}
			added = append(added, m)
			count++
		}
		if t.Status == domain.TontineStatusForming && int(count) >= t.MinMembers {
			t.Status = domain.TontineStatusActive
			return tontineRepo.Save(t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMember drops a member as long as they hold no completed contribution
// for the current or a future round; earlier history stays attached to the
// member row, which is why removal re-densifies priorities instead of
// renumbering contributions.
func (s *InviteService) RemoveMember(actorID, tontineID, userID uint) error {
	t, err := s.getTontine(tontineID)
	if err != nil {
		return err
	}
	if _, err := s.memberRepo.RequireAdmin(tontineID, actorID); err != nil {
		return err
	}

	mu := s.locks.Get(tontineID)
	mu.Lock()
	defer mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		memberRepo := s.memberRepo.WithTx(tx)
		t, err := s.tontineRepo.WithTx(tx).GetByID(t.ID)
		if err != nil {
			return err
		}
		m, err := memberRepo.GetByTontineAndUser(tontineID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundf("user %d in tontine %d", userID, tontineID)
			}
			return err
		}
		held, err := s.contributionRepo.WithTx(tx).HasCompletedSinceRound(m.ID, t.CurrentRound)
		if err != nil {
			return err
		}
		if held {
			return domain.Conflictf("member %d has a completed contribution for round %d or later", m.ID, t.CurrentRound)
		}
		return memberRepo.Remove(m)
	})
}

// ListInvites returns a tontine's invites, admin-only.
func (s *InviteService) ListInvites(actorID, tontineID uint) ([]models.TontineInvite, error) {
	if _, err := s.getTontine(tontineID); err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.RequireAdmin(tontineID, actorID); err != nil {
		return nil, err
	}
	return s.inviteRepo.ListByTontine(tontineID)
}
