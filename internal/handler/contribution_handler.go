package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"chama/internal/middleware"
	"chama/internal/repository"
	"chama/internal/service"
)

type ContributionHandler struct {
	roundSvc *service.RoundService
}

func NewContributionHandler(roundSvc *service.RoundService) *ContributionHandler {
	return &ContributionHandler{roundSvc: roundSvc}
}

type recordContributionRequest struct {
	MemberID      uint            `json:"member_id" binding:"required"`
	RoundNumber   int             `json:"round_number"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Settled       bool            `json:"settled"`
}

func (h *ContributionHandler) Record(c *gin.Context) {
	var req recordContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contribution, err := h.roundSvc.RecordContribution(middleware.GetUserID(c), service.RecordContributionInput{
		MemberID:      req.MemberID,
		RoundNumber:   req.RoundNumber,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Settled:       req.Settled,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, contribution)
}

func (h *ContributionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	tontineID, _ := strconv.ParseUint(c.Query("tontine_id"), 10, 64)
	memberID, _ := strconv.ParseUint(c.Query("member_id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	round, _ := strconv.Atoi(c.Query("round"))
	items, total, err := h.roundSvc.List(repository.ContributionFilter{
		TontineID: uint(tontineID),
		MemberID:  uint(memberID),
		UserID:    uint(userID),
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		Round:     round,
	}, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total, "page": page, "limit": limit})
}

func (h *ContributionHandler) MarkPaid(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	contribution, err := h.roundSvc.MarkPaid(middleware.GetUserID(c), uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, contribution)
}

func (h *ContributionHandler) MarkLate(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	contribution, err := h.roundSvc.MarkLate(middleware.GetUserID(c), uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, contribution)
}
