package models

import "time"

// NotificationType enumerates what triggered a notification.
type NotificationType string

const (
	NotificationLike           NotificationType = "LIKE"
	NotificationComment        NotificationType = "COMMENT"
	NotificationFollow         NotificationType = "FOLLOW"
	NotificationLearningUpdate NotificationType = "LEARNING_UPDATE"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationLearningUpdate:
		return true
	}
	return false
}

// Notification is an entry in a user's inbox. Only the read flag changes after creation.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	SenderID  uint             `gorm:"not null" json:"sender_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Content   string           `gorm:"type:text" json:"content"`
	EntityID  string           `gorm:"type:varchar(64)" json:"entity_id"`
	Read      bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}
