package service

import (
	"encoding/json"
	"fmt"
	"log"

	"chama/internal/models"
	"chama/internal/repository"
)

// InviteDispatcher delivers invite notices. Dispatch is fire-and-forget: a
// delivery failure must never fail the invite operation that triggered it.
type InviteDispatcher interface {
	SendInvite(inv *models.TontineInvite, tontineName string)
}

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

// SendInvite records an in-app notice for the invitee. Email-only invites
// (no user id yet) are just logged; mail delivery belongs to an external
// dispatcher.
func (s *NotificationService) SendInvite(inv *models.TontineInvite, tontineName string) {
	if inv.UserID == nil {
		log.Printf("[notify] invite %d for %s has no user id, skipping in-app notice", inv.ID, inv.Email)
		return
	}
	err := s.Notify(*inv.UserID, "TONTINE_INVITE", "Tontine invitation",
		fmt.Sprintf("You have been invited to join %s", tontineName),
		map[string]interface{}{"invite_id": inv.ID, "tontine_id": inv.TontineID})
	if err != nil {
		log.Printf("[notify] invite %d dispatch failed: %v", inv.ID, err)
	}
}

func (s *NotificationService) NotifyPayout(userID uint, tontineID uint, amount string) {
	err := s.Notify(userID, "TONTINE_PAYOUT", "Payout received",
		fmt.Sprintf("You received the round pot of %s", amount),
		map[string]interface{}{"tontine_id": tontineID})
	if err != nil {
		log.Printf("[notify] payout notice for user %d failed: %v", userID, err)
	}
}
