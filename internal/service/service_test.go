package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chama/config"
	"chama/internal/database"
	"chama/internal/models"
	"chama/internal/repository"
)

type testEnv struct {
	db        *gorm.DB
	locks     *TontineLocks
	tontines  *TontineService
	invites   *InviteService
	rounds    *RoundService
	reconcile *ReconcileService
	stats     *StatsService

	tontineRepo      *repository.TontineRepository
	memberRepo       *repository.MemberRepository
	inviteRepo       *repository.InviteRepository
	contributionRepo *repository.ContributionRepository
	payoutRepo       *repository.PayoutRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A single connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.TontineConfig{
		DefaultMinMembers: 2,
		DefaultMaxMembers: 30,
		InviteTTL:         time.Hour,
	}
	tontineRepo := repository.NewTontineRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	locks := NewTontineLocks()
	notifSvc := NewNotificationService(notificationRepo)
	rounds := NewRoundService(db, locks, notifSvc, tontineRepo, memberRepo, contributionRepo, payoutRepo, auditRepo)
	return &testEnv{
		db:               db,
		locks:            locks,
		tontines:         NewTontineService(db, cfg, tontineRepo, memberRepo),
		invites:          NewInviteService(db, cfg, locks, notifSvc, tontineRepo, memberRepo, inviteRepo, contributionRepo),
		rounds:           rounds,
		reconcile:        NewReconcileService(db, locks, rounds, tontineRepo, memberRepo, contributionRepo, payoutRepo, auditRepo),
		stats:            NewStatsService(tontineRepo, memberRepo, contributionRepo, payoutRepo),
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		inviteRepo:       inviteRepo,
		contributionRepo: contributionRepo,
		payoutRepo:       payoutRepo,
	}
}

// newActiveTontine creates a tontine owned by user 1 with the given extra
// member user ids enrolled, contribution amount 100 per round.
func newActiveTontine(t *testing.T, env *testEnv, extraUsers ...uint) *models.Tontine {
	t.Helper()
	tt, err := env.tontines.Create(1, CreateTontineInput{
		Name:               "village circle",
		ContributionAmount: decimal.NewFromInt(100),
		Frequency:          "monthly",
	})
	if err != nil {
		t.Fatalf("create tontine: %v", err)
	}
	if len(extraUsers) > 0 {
		if _, err := env.invites.AddMembers(1, tt.ID, extraUsers); err != nil {
			t.Fatalf("add members: %v", err)
		}
	}
	cur, err := env.tontines.Get(tt.ID)
	if err != nil {
		t.Fatalf("reload tontine: %v", err)
	}
	return cur
}

func memberOf(t *testing.T, env *testEnv, tontineID, userID uint) *models.TontineMember {
	t.Helper()
	m, err := env.memberRepo.GetByTontineAndUser(tontineID, userID)
	if err != nil {
		t.Fatalf("member for user %d: %v", userID, err)
	}
	return m
}

// assertPotInvariant checks sum(completed) - sum(paid) == TotalPot exactly.
func assertPotInvariant(t *testing.T, env *testEnv, tontineID uint) {
	t.Helper()
	tt, err := env.tontines.Get(tontineID)
	if err != nil {
		t.Fatalf("get tontine: %v", err)
	}
	contributed, err := env.contributionRepo.SumCompleted(tontineID)
	if err != nil {
		t.Fatalf("sum completed: %v", err)
	}
	paid, err := env.payoutRepo.SumPaid(tontineID)
	if err != nil {
		t.Fatalf("sum paid: %v", err)
	}
	expected := contributed.Sub(paid)
	if !expected.Equal(tt.TotalPot) {
		t.Fatalf("pot invariant broken: stored %s, expected %s", tt.TotalPot, expected)
	}
}
