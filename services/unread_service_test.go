package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voxmarket/voxmarket-api/models"
)

func TestApplyMessage_FirstMessage(t *testing.T) {
	db := setupServiceTestDB(t)
	notifier := NewMockNotifier()
	svc := NewUnreadService(db, notifier, 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	order := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.ApplyMessage(order, models.RoleClient))

	var stored models.Order
	assert.NoError(t, db.First(&stored, order.ID).Error)
	assert.True(t, stored.ActorHasUnread)
	assert.False(t, stored.ClientHasUnread)
	if assert.NotNil(t, stored.LastMessageSenderRole) {
		assert.Equal(t, models.RoleClient, *stored.LastMessageSenderRole)
	}
	assert.NotNil(t, stored.NotificationDueAt)

	// No email yet; the reminder only fires once the deadline passes.
	assert.Empty(t, notifier.Sent())
}

func TestApplyMessage_SameSenderIsNoOp(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUnreadService(db, NewMockNotifier(), 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	order := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.ApplyMessage(order, models.RoleClient))

	var afterFirst models.Order
	assert.NoError(t, db.First(&afterFirst, order.ID).Error)
	firstDue := afterFirst.NotificationDueAt

	// A burst of follow-ups from the same side changes nothing, including the
	// already-armed deadline.
	assert.NoError(t, svc.ApplyMessage(order, models.RoleClient))
	assert.NoError(t, svc.ApplyMessage(order, models.RoleClient))

	var afterBurst models.Order
	assert.NoError(t, db.First(&afterBurst, order.ID).Error)
	assert.True(t, afterBurst.ActorHasUnread)
	assert.False(t, afterBurst.ClientHasUnread)
	if assert.NotNil(t, afterBurst.NotificationDueAt) && assert.NotNil(t, firstDue) {
		assert.Equal(t, firstDue.Unix(), afterBurst.NotificationDueAt.Unix())
	}
}

func TestApplyMessage_VolleyChange(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUnreadService(db, NewMockNotifier(), 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	order := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.ApplyMessage(order, models.RoleClient))
	assert.NoError(t, svc.ApplyMessage(order, models.RoleActor))

	var stored models.Order
	assert.NoError(t, db.First(&stored, order.ID).Error)
	assert.True(t, stored.ClientHasUnread, "the reply flags the client side")
	assert.True(t, stored.ActorHasUnread, "the actor's own unread flag is untouched by their reply")
	if assert.NotNil(t, stored.LastMessageSenderRole) {
		assert.Equal(t, models.RoleActor, *stored.LastMessageSenderRole)
	}
}

func TestMarkViewed(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUnreadService(db, NewMockNotifier(), 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	order := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.ApplyMessage(order, models.RoleClient))
	assert.NoError(t, svc.ApplyMessage(order, models.RoleActor))

	// The client opens the order: their flag clears, the actor's stays, and
	// the reminder stays armed for the actor.
	assert.NoError(t, svc.MarkViewed(order, models.RoleClient))
	var stored models.Order
	assert.NoError(t, db.First(&stored, order.ID).Error)
	assert.False(t, stored.ClientHasUnread)
	assert.True(t, stored.ActorHasUnread)
	assert.NotNil(t, stored.NotificationDueAt)

	// The actor opens it too: nothing is unread, so the deadline disarms.
	assert.NoError(t, svc.MarkViewed(order, models.RoleActor))
	assert.NoError(t, db.First(&stored, order.ID).Error)
	assert.False(t, stored.ActorHasUnread)
	assert.Nil(t, stored.NotificationDueAt)
}

func TestMarkViewed_NothingUnread(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUnreadService(db, NewMockNotifier(), 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	order := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.MarkViewed(order, models.RoleClient))
	assert.NoError(t, svc.MarkViewed(order, models.RoleActor))
}

func TestSendDueReminders(t *testing.T) {
	db := setupServiceTestDB(t)
	notifier := NewMockNotifier()
	svc := NewUnreadService(db, notifier, 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	due := seedOrder(t, db, actor, models.StatusInProgress)
	notDue := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.ApplyMessage(due, models.RoleClient))
	assert.NoError(t, svc.ApplyMessage(notDue, models.RoleClient))
	// Push the second order's deadline out so only the first one is due.
	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", notDue.ID).
		Update("notification_due_at", time.Now().Add(time.Hour)).Error)

	assert.NoError(t, svc.SendDueReminders(time.Now().Add(6*time.Minute)))

	sent := notifier.SentTo(actor.Email)
	if assert.Len(t, sent, 1) {
		assert.Equal(t, TemplateUnreadReminder, sent[0].Template)
		assert.Equal(t, due.OrderCode, sent[0].Params["order_code"])
	}

	// The reminded order is disarmed; a second sweep sends nothing for it.
	var stored models.Order
	assert.NoError(t, db.First(&stored, due.ID).Error)
	assert.Nil(t, stored.NotificationDueAt)
	assert.True(t, stored.ActorHasUnread, "unread persists until the actor actually looks")

	notifier.Clear()
	assert.NoError(t, svc.SendDueReminders(time.Now().Add(6*time.Minute)))
	assert.Empty(t, notifier.SentTo(actor.Email))
}

func TestSendDueReminders_ClientSide(t *testing.T) {
	db := setupServiceTestDB(t)
	notifier := NewMockNotifier()
	svc := NewUnreadService(db, notifier, 5*time.Minute)

	actor := seedActor(t, db, "auth0|actor1", "actor@example.com")
	order := seedOrder(t, db, actor, models.StatusInProgress)

	assert.NoError(t, svc.ApplyMessage(order, models.RoleActor))
	assert.NoError(t, svc.SendDueReminders(time.Now().Add(10*time.Minute)))

	sent := notifier.SentTo(order.ClientEmail)
	if assert.Len(t, sent, 1) {
		assert.Equal(t, TemplateUnreadReminder, sent[0].Template)
	}
	assert.Empty(t, notifier.SentTo(actor.Email))
}
