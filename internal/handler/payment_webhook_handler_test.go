package handler_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chama/config"
	"chama/internal/database"
	"chama/internal/domain"
	"chama/internal/handler"
	"chama/internal/models"
	"chama/internal/repository"
	"chama/internal/service"
)

const webhookSecret = "test-secret"

func newWebhookServer(t *testing.T) (*gin.Engine, *gorm.DB, *models.Tontine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tontineRepo := repository.NewTontineRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db))
	locks := service.NewTontineLocks()
	roundSvc := service.NewRoundService(db, locks, notifSvc, tontineRepo, memberRepo, contributionRepo, payoutRepo, auditRepo)
	reconcileSvc := service.NewReconcileService(db, locks, roundSvc, tontineRepo, memberRepo, contributionRepo, payoutRepo, auditRepo)

	cfg := &config.Config{}
	cfg.Payment.WebhookSecret = webhookSecret
	h := handler.NewPaymentWebhookHandler(reconcileSvc, cfg)

	engine := gin.New()
	engine.POST("/api/v1/webhooks/payments", h.Handle)

	tt := &models.Tontine{
		Name:               "hooked",
		ContributionAmount: decimal.NewFromInt(100),
		Frequency:          domain.FrequencyMonthly,
		Status:             domain.TontineStatusActive,
		TotalPot:           decimal.Zero,
		CurrentRound:       1,
		MinMembers:         2,
		MaxMembers:         30,
		CreatorID:          9,
	}
	if err := tontineRepo.Create(tt); err != nil {
		t.Fatalf("seed tontine: %v", err)
	}
	member := &models.TontineMember{
		TontineID:     tt.ID,
		UserID:        9,
		IsAdmin:       true,
		PriorityOrder: 1,
		JoinedAt:      time.Now(),
	}
	if err := memberRepo.Create(member); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return engine, db, tt
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postEvent(t *testing.T, engine *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestWebhookAppliesEventOnce(t *testing.T) {
	engine, db, tt := newWebhookServer(t)
	body := []byte(`{"reference":"evt_1","amount":50,"currency":"KES","metadata":{"tontine_id":` +
		jsonUint(tt.ID) + `,"user_id":9}}`)

	w := postEvent(t, engine, body, sign(body))
	if w.Code != http.StatusOK {
		t.Fatalf("first delivery status %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Received  bool `json:"received"`
		Duplicate bool `json:"duplicate"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Received || resp.Duplicate {
		t.Fatalf("unexpected first response %+v", resp)
	}

	w = postEvent(t, engine, body, sign(body))
	if w.Code != http.StatusOK {
		t.Fatalf("redelivery status %d: %s", w.Code, w.Body)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Duplicate {
		t.Fatal("redelivery not reported as duplicate")
	}

	var count int64
	if err := db.Model(&models.TontineContribution{}).Where("external_payment_ref = ?", "evt_1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one contribution, got %d", count)
	}
	var cur models.Tontine
	if err := db.First(&cur, tt.ID).Error; err != nil {
		t.Fatalf("reload tontine: %v", err)
	}
	if !cur.TotalPot.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("pot %s, want 50", cur.TotalPot)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	engine, _, tt := newWebhookServer(t)
	body := []byte(`{"reference":"evt_2","amount":50,"currency":"KES","metadata":{"tontine_id":` +
		jsonUint(tt.ID) + `,"user_id":9}}`)
	w := postEvent(t, engine, body, "deadbeef")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestWebhookRejectsMalformedEvents(t *testing.T) {
	engine, _, tt := newWebhookServer(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `{{{`, http.StatusBadRequest},
		{"missing metadata", `{"reference":"evt_3","amount":50,"currency":"KES"}`, http.StatusBadRequest},
		{"unknown tontine", `{"reference":"evt_4","amount":50,"currency":"KES","metadata":{"tontine_id":424242,"user_id":9}}`, http.StatusNotFound},
		{"not a member", `{"reference":"evt_5","amount":50,"currency":"KES","metadata":{"tontine_id":` + jsonUint(tt.ID) + `,"user_id":31}}`, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := []byte(tc.body)
			w := postEvent(t, engine, body, sign(body))
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d: %s", w.Code, tc.want, w.Body)
			}
		})
	}
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
