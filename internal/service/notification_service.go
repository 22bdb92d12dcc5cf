package service

import (
	"time"

	"github.com/google/uuid"

	"iotguardian/internal/models"
	"iotguardian/internal/repository"
)

const (
	// InboxSize is how many notifications each user keeps.
	InboxSize = 20

	broadcastMinLen = 10
	broadcastMaxLen = 500
)

// NotificationService keeps a bounded, newest-first inbox per user.
type NotificationService struct {
	inboxes *repository.Table[[]models.Notification]
	now     func() time.Time
}

func NewNotificationService() *NotificationService {
	return &NotificationService{
		inboxes: repository.NewTable[[]models.Notification](),
		now:     time.Now,
	}
}

// Notify prepends a notification to the user's inbox, dropping the oldest beyond InboxSize.
func (s *NotificationService) Notify(userID, message string, typ models.NotificationType) models.Notification {
	n := models.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      typ,
		Timestamp: s.now(),
	}
	_, _ = s.inboxes.Upsert(userID, func(inbox *[]models.Notification, _ bool) error {
		next := make([]models.Notification, 0, len(*inbox)+1)
		next = append(next, n)
		next = append(next, *inbox...)
		if len(next) > InboxSize {
			next = next[:InboxSize]
		}
		*inbox = next
		return nil
	})
	return n
}

// List returns the inbox and its unread count.
func (s *NotificationService) List(userID string) ([]models.Notification, int) {
	inbox, _ := s.inboxes.Get(userID)
	out := make([]models.Notification, len(inbox))
	copy(out, inbox)
	unread := 0
	for _, n := range out {
		if !n.Read {
			unread++
		}
	}
	return out, unread
}

func (s *NotificationService) MarkRead(userID, notificationID string) error {
	found := false
	_, _, _ = s.inboxes.Update(userID, func(inbox *[]models.Notification) error {
		next := make([]models.Notification, len(*inbox))
		copy(next, *inbox)
		for i := range next {
			if next[i].ID == notificationID {
				next[i].Read = true
				found = true
			}
		}
		*inbox = next
		return nil
	})
	if !found {
		return newError(ErrNotFound, "Notification %s not found.", notificationID)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID string) {
	_, _, _ = s.inboxes.Update(userID, func(inbox *[]models.Notification) error {
		next := make([]models.Notification, len(*inbox))
		for i, n := range *inbox {
			n.Read = true
			next[i] = n
		}
		*inbox = next
		return nil
	})
}

func (s *NotificationService) Clear(userID string) {
	s.inboxes.Delete(userID)
}

// Broadcast sends an admin notification to every recipient and returns how many received it.
func (s *NotificationService) Broadcast(message string, recipients []string) (int, error) {
	v := &ValidationError{}
	if n := len([]rune(message)); n < broadcastMinLen {
		v.add("message", "Notification message must be at least 10 characters.")
	} else if n > broadcastMaxLen {
		v.add("message", "Notification message must not exceed 500 characters.")
	}
	if err := v.err(); err != nil {
		return 0, err
	}
	for _, id := range recipients {
		s.Notify(id, message, models.NotificationAdmin)
	}
	return len(recipients), nil
}
