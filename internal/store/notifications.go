package store

import (
	"errors"
	"time"

	"github.com/ignite/affiliate-crm/internal/domain"
)

// maxNotifications caps how many notifications are retained, newest first.
const maxNotifications = 100

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotifyStatusChange   NotificationType = "status_change"
	NotifyStageChange    NotificationType = "stage_change"
	NotifyContactAdded   NotificationType = "contact_added"
	NotifyPlacementAdded NotificationType = "placement_added"
	NotifyImportComplete NotificationType = "import_complete"
)

// Notification is an in-app notification entry.
type Notification struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// AddNotification prepends a notification and trims the list to the cap.
func (s *Store) AddNotification(ntype NotificationType, message string, data map[string]interface{}) (Notification, error) {
	n := Notification{
		ID:        domain.NewID(),
		Type:      ntype,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append([]Notification{n}, s.notifications...)
	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[:maxNotifications]
	}
	return n, s.persistLocked("notifications", s.notifications)
}

// Notifications returns all retained notifications, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// MarkRead marks one notification as read.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return s.persistLocked("notifications", s.notifications)
		}
	}
	return ErrNotificationNotFound
}

// MarkAllRead marks every notification as read.
func (s *Store) MarkAllRead() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	return s.persistLocked("notifications", s.notifications)
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}
