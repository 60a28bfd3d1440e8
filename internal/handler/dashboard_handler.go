package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chama/internal/middleware"
	"chama/internal/repository"
	"chama/internal/service"
)

type DashboardHandler struct {
	statsSvc  *service.StatsService
	notifRepo *repository.NotificationRepository
}

func NewDashboardHandler(statsSvc *service.StatsService, notifRepo *repository.NotificationRepository) *DashboardHandler {
	return &DashboardHandler{statsSvc: statsSvc, notifRepo: notifRepo}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	d, err := h.statsSvc.UserDashboard(middleware.GetUserID(c), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) Notifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.notifRepo.ListByUserID(middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *DashboardHandler) MarkNotificationRead(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.notifRepo.MarkRead(uint(id), middleware.GetUserID(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
