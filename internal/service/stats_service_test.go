package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"chama/internal/domain"
	"chama/internal/models"
)

func TestTontineStatsReadStoredPot(t *testing.T) {
	env := newTestEnv(t)
	tt := newActiveTontine(t, env, 2, 3)

	c := recordPending(t, env, tt.ID, 2, 100)
	if _, err := env.rounds.MarkPaid(1, c.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	recordPending(t, env, tt.ID, 3, 100) // stays pending

	stats, err := env.stats.TontineStats(tt.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMembers != 3 {
		t.Fatalf("members %d, want 3", stats.TotalMembers)
	}
	if stats.ContributionCount != 2 {
		t.Fatalf("contribution count %d, want 2", stats.ContributionCount)
	}
	if !stats.TotalContributions.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("completed sum %s, want 100", stats.TotalContributions)
	}
	if !stats.TotalPot.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("pot %s, want 100", stats.TotalPot)
	}
	if stats.CurrentRound != 1 {
		t.Fatalf("round %d, want 1", stats.CurrentRound)
	}
}

func TestUserDashboardRollsUpAcrossTontines(t *testing.T) {
	env := newTestEnv(t)
	first := newActiveTontine(t, env, 2)
	second, err := env.tontines.Create(2, CreateTontineInput{
		Name:               "second circle",
		ContributionAmount: decimal.NewFromInt(50),
		Frequency:          "weekly",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.invites.AddMembers(2, second.ID, []uint{1}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	c1 := recordPending(t, env, first.ID, 2, 100)
	if _, err := env.rounds.MarkPaid(1, c1.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	m2 := memberOf(t, env, second.ID, 2)
	if _, err := env.rounds.RecordContribution(2, RecordContributionInput{
		MemberID: m2.ID,
		Amount:   decimal.NewFromInt(50),
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	d, err := env.stats.UserDashboard(2, 1, 20)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Tontines) != 2 {
		t.Fatalf("tontines %d, want 2", len(d.Tontines))
	}
	if len(d.MyContributions) != 2 {
		t.Fatalf("contributions %d, want 2", len(d.MyContributions))
	}
	// Only the completed 100 counts; the pending 50 does not.
	if !d.TotalContributed.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("total contributed %s, want 100", d.TotalContributed)
	}
}

func TestDashboardTotalsStayExactBeyondOnePage(t *testing.T) {
	env := newTestEnv(t)
	tt := newActiveTontine(t, env, 2)
	m := memberOf(t, env, tt.ID, 2)

	// More history than any single page returns; the money total must come
	// from an aggregate, not from the page.
	for i := 0; i < 120; i++ {
		err := env.contributionRepo.Create(&models.TontineContribution{
			TontineID:       tt.ID,
			TontineMemberID: m.ID,
			UserID:          2,
			Amount:          decimal.NewFromInt(1),
			RoundNumber:     1,
			Status:          domain.ContributionStatusCompleted,
		})
		if err != nil {
			t.Fatalf("seed contribution %d: %v", i, err)
		}
	}

	d, err := env.stats.UserDashboard(2, 1, 20)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.MyContributions) != 20 {
		t.Fatalf("page size %d, want 20", len(d.MyContributions))
	}
	if d.ContributionsTotal != 120 {
		t.Fatalf("contributions total %d, want 120", d.ContributionsTotal)
	}
	if !d.TotalContributed.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("total contributed %s, want 120", d.TotalContributed)
	}
}
