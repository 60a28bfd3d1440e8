package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chama/internal/middleware"
	"chama/internal/service"
)

type InviteHandler struct {
	inviteSvc *service.InviteService
}

func NewInviteHandler(inviteSvc *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc}
}

type createInviteRequest struct {
	Email  string `json:"email"`
	UserID *uint  `json:"user_id"`
}

func (h *InviteHandler) Create(c *gin.Context) {
	tontineID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := h.inviteSvc.CreateInvite(middleware.GetUserID(c), uint(tontineID), req.Email, req.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *InviteHandler) ListForTontine(c *gin.Context) {
	tontineID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	invites, err := h.inviteSvc.ListInvites(middleware.GetUserID(c), uint(tontineID))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (h *InviteHandler) Accept(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	member, err := h.inviteSvc.AcceptInvite(uint(id), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

type acceptByTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *InviteHandler) AcceptByToken(c *gin.Context) {
	var req acceptByTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member, err := h.inviteSvc.AcceptByToken(req.Token, middleware.GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

func (h *InviteHandler) Approve(c *gin.Context) {
	tontineID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	inviteID, _ := strconv.ParseUint(c.Param("inviteID"), 10, 64)
	member, err := h.inviteSvc.ApproveInvite(middleware.GetUserID(c), uint(tontineID), uint(inviteID))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

func (h *InviteHandler) Decline(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	inv, err := h.inviteSvc.DeclineInvite(uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *InviteHandler) Resend(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	inv, err := h.inviteSvc.ResendInvite(middleware.GetUserID(c), uint(id))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resent", "invite": inv})
}
