package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"chama/internal/middleware"
	"chama/internal/repository"
	"chama/internal/service"
)

type TontineHandler struct {
	tontineSvc *service.TontineService
	statsSvc   *service.StatsService
	roundSvc   *service.RoundService
	inviteSvc  *service.InviteService
}

func NewTontineHandler(tontineSvc *service.TontineService, statsSvc *service.StatsService, roundSvc *service.RoundService, inviteSvc *service.InviteService) *TontineHandler {
	return &TontineHandler{tontineSvc: tontineSvc, statsSvc: statsSvc, roundSvc: roundSvc, inviteSvc: inviteSvc}
}

type createTontineRequest struct {
	Name               string          `json:"name" binding:"required"`
	Description        string          `json:"description"`
	Type               string          `json:"type"`
	ContributionAmount decimal.Decimal `json:"contribution_amount"`
	Frequency          string          `json:"frequency" binding:"required"`
	DurationMonths     int             `json:"duration_months"`
	StartDate          *time.Time      `json:"start_date"`
	MinMembers         int             `json:"min_members"`
	MaxMembers         int             `json:"max_members"`
}

func (h *TontineHandler) Create(c *gin.Context) {
	var req createTontineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.GetUserID(c)
	t, err := h.tontineSvc.Create(actor, service.CreateTontineInput{
		Name:               req.Name,
		Description:        req.Description,
		Type:               req.Type,
		ContributionAmount: req.ContributionAmount,
		Frequency:          req.Frequency,
		DurationMonths:     req.DurationMonths,
		StartDate:          req.StartDate,
		MinMembers:         req.MinMembers,
		MaxMembers:         req.MaxMembers,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TontineHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	creatorID, _ := strconv.ParseUint(c.Query("creator_id"), 10, 64)
	items, total, err := h.tontineSvc.List(repository.TontineFilter{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		CreatorID: uint(creatorID),
	}, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total, "page": page, "limit": limit})
}

func (h *TontineHandler) Get(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	t, err := h.tontineSvc.Get(uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type updateTontineRequest struct {
	Name           *string    `json:"name"`
	Description    *string    `json:"description"`
	DurationMonths *int       `json:"duration_months"`
	StartDate      *time.Time `json:"start_date"`
}

func (h *TontineHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req updateTontineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tontineSvc.Update(middleware.GetUserID(c), uint(id), service.UpdateTontineInput{
		Name:           req.Name,
		Description:    req.Description,
		DurationMonths: req.DurationMonths,
		StartDate:      req.StartDate,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TontineHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	t, err := h.tontineSvc.Cancel(middleware.GetUserID(c), uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TontineHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.tontineSvc.Delete(middleware.GetUserID(c), uint(id)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *TontineHandler) Stats(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	stats, err := h.statsSvc.TontineStats(uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *TontineHandler) Members(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	members, err := h.tontineSvc.Members(uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type addMembersRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
}

func (h *TontineHandler) AddMembers(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	added, err := h.inviteSvc.AddMembers(middleware.GetUserID(c), uint(id), req.UserIDs)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": added})
}

func (h *TontineHandler) RemoveMember(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err := h.inviteSvc.RemoveMember(middleware.GetUserID(c), uint(id), uint(userID)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *TontineHandler) TriggerPayout(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.roundSvc.TriggerPayout(middleware.GetUserID(c), uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
