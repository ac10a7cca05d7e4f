package services

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voxmarket/voxmarket-api/models"
)

// UnreadService maintains the per-order unread flags and the delayed
// notification deadline. It fires exactly once per volley change: a message
// from the same sender as the previous one is a no-op.
type UnreadService struct {
	db       *gorm.DB
	notifier Notifier
	delay    time.Duration
}

var unreadServiceInstance *UnreadService

// NewUnreadService builds an unread tracker with the given reminder delay.
func NewUnreadService(db *gorm.DB, notifier Notifier, delay time.Duration) *UnreadService {
	return &UnreadService{db: db, notifier: notifier, delay: delay}
}

// InitUnreadService installs the unread service instance.
func InitUnreadService(s *UnreadService) *UnreadService {
	unreadServiceInstance = s
	return s
}

// GetUnreadService returns the installed unread service instance
func GetUnreadService() *UnreadService {
	return unreadServiceInstance
}

// ApplyMessage records a message-insert event against the order's unread
// state. It mutates only when the sender role differs from the previous
// message's sender (a volley change): the other party's unread flag is set,
// the sender role recorded, and the notification deadline armed.
func (s *UnreadService) ApplyMessage(order *models.Order, sender models.SenderRole) error {
	if order.LastMessageSenderRole != nil && *order.LastMessageSenderRole == sender {
		return nil
	}

	dueAt := time.Now().Add(s.delay)
	updates := map[string]interface{}{
		"last_message_sender_role": sender,
		"notification_due_at":      dueAt,
	}
	if sender == models.RoleClient {
		updates["actor_has_unread"] = true
	} else {
		updates["client_has_unread"] = true
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update unread state: %w", err)
	}

	order.LastMessageSenderRole = &sender
	order.NotificationDueAt = &dueAt
	if sender == models.RoleClient {
		order.ActorHasUnread = true
	} else {
		order.ClientHasUnread = true
	}
	return nil
}

// MarkViewed clears the viewer's unread flag when they open the order view,
// and disarms the notification deadline once nobody has unread messages.
func (s *UnreadService) MarkViewed(order *models.Order, viewer models.SenderRole) error {
	updates := map[string]interface{}{}
	if viewer == models.RoleClient && order.ClientHasUnread {
		updates["client_has_unread"] = false
		order.ClientHasUnread = false
	}
	if viewer == models.RoleActor && order.ActorHasUnread {
		updates["actor_has_unread"] = false
		order.ActorHasUnread = false
	}
	if len(updates) == 0 {
		return nil
	}

	if !order.ClientHasUnread && !order.ActorHasUnread {
		updates["notification_due_at"] = nil
		order.NotificationDueAt = nil
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to clear unread state: %w", err)
	}
	return nil
}

// SendDueReminders emails the flagged party on every order whose notification
// deadline has passed, then disarms the deadline. Called periodically from a
// background ticker; failures are logged per order and do not stop the sweep.
func (s *UnreadService) SendDueReminders(now time.Time) error {
	var orders []models.Order
	err := s.db.Preload("Actor").
		Where("notification_due_at IS NOT NULL AND notification_due_at <= ?", now).
		Find(&orders).Error
	if err != nil {
		return fmt.Errorf("failed to load orders with due reminders: %w", err)
	}

	for i := range orders {
		order := &orders[i]

		var recipients []string
		if order.ClientHasUnread {
			recipients = append(recipients, order.ClientEmail)
		}
		if order.ActorHasUnread {
			recipients = append(recipients, order.Actor.Email)
		}

		for _, to := range recipients {
			err := s.notifier.Send(TemplateUnreadReminder, to, map[string]string{
				"order_code": order.OrderCode,
			})
			if err != nil {
				log.WithError(err).WithField("order_code", order.OrderCode).Warn("unread reminder failed")
			}
		}

		err = s.db.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("notification_due_at", nil).Error
		if err != nil {
			log.WithError(err).WithField("order_code", order.OrderCode).Warn("failed to disarm reminder")
		}
	}
	return nil
}
