package repository

import (
	"encoding/json"
	"time"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

// SubscriptionModel is the persistence model for the subscriptions table.
type SubscriptionModel struct {
	ID           string  `gorm:"type:uuid;primaryKey"`
	UserID       string  `gorm:"type:uuid;not null;index"`
	Endpoint     string  `gorm:"type:text;not null;uniqueIndex"`
	P256dh       string  `gorm:"type:text;not null"`
	Auth         string  `gorm:"type:text;not null"`
	DeviceInfo   *string `gorm:"type:text"`
	IsActive     bool    `gorm:"not null;default:true"`
	SubscribedAt time.Time
	LastActiveAt time.Time
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// NotificationPreferenceModel is the persistence model for notification_preferences.
type NotificationPreferenceModel struct {
	UserID             string `gorm:"type:uuid;primaryKey"`
	TeachingEvents     *bool
	Bookings           *bool
	Certificates       *bool
	Feedback           *bool
	Announcements      *bool
	LeaderboardUpdates *bool
	QuizReminders      *bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (NotificationPreferenceModel) TableName() string {
	return "notification_preferences"
}

// ScheduledTaskModel is the persistence model for scheduled_tasks.
type ScheduledTaskModel struct {
	ID             string            `gorm:"type:uuid;primaryKey"`
	TaskType       domain.TaskType   `gorm:"type:varchar(40);not null"`
	EventID        *string           `gorm:"type:uuid"`
	UserID         *string           `gorm:"type:uuid"`
	Status         domain.TaskStatus `gorm:"type:varchar(20);not null"`
	RunAt          time.Time         `gorm:"type:timestamptz;not null"`
	IdempotencyKey string            `gorm:"type:varchar(255);not null"`
	Metadata       []byte            `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ScheduledTaskModel) TableName() string {
	return "scheduled_tasks"
}

// NotificationLogModel is the persistence model for notification_logs.
type NotificationLogModel struct {
	ID               string                  `gorm:"type:uuid;primaryKey"`
	UserID           *string                 `gorm:"type:uuid"`
	NotificationType domain.NotificationType `gorm:"type:varchar(40);not null"`
	Title            string                  `gorm:"type:text;not null"`
	Body             string                  `gorm:"type:text;not null"`
	URL              string                  `gorm:"type:text;not null"`
	Status           domain.LogStatus        `gorm:"type:varchar(20);not null"`
	ErrorMessage     *string                 `gorm:"type:text"`
	Metadata         []byte                  `gorm:"type:jsonb"`
	SentAt           time.Time               `gorm:"type:timestamptz;not null"`
}

func (NotificationLogModel) TableName() string {
	return "notification_logs"
}

// UserModel is a read-only projection of the users table; the surrounding
// system owns the rows, this engine only resolves cohorts against them.
type UserModel struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	University *string `gorm:"type:varchar(255)"`
	StudyYear  *string `gorm:"type:varchar(10)"`
}

func (UserModel) TableName() string {
	return "users"
}

func subscriptionModelFromDomain(s *domain.Subscription) *SubscriptionModel {
	if s == nil {
		return nil
	}

	return &SubscriptionModel{
		ID:           s.ID,
		UserID:       s.UserID,
		Endpoint:     s.Endpoint,
		P256dh:       s.P256dh,
		Auth:         s.Auth,
		DeviceInfo:   s.DeviceInfo,
		IsActive:     s.IsActive,
		SubscribedAt: s.SubscribedAt,
		LastActiveAt: s.LastActiveAt,
	}
}

func subscriptionModelToDomain(m *SubscriptionModel) *domain.Subscription {
	if m == nil {
		return nil
	}

	return &domain.Subscription{
		ID:           m.ID,
		UserID:       m.UserID,
		Endpoint:     m.Endpoint,
		P256dh:       m.P256dh,
		Auth:         m.Auth,
		DeviceInfo:   m.DeviceInfo,
		IsActive:     m.IsActive,
		SubscribedAt: m.SubscribedAt,
		LastActiveAt: m.LastActiveAt,
	}
}

func preferenceModelFromDomain(p *domain.NotificationPreference) *NotificationPreferenceModel {
	if p == nil {
		return nil
	}

	return &NotificationPreferenceModel{
		UserID:             p.UserID,
		TeachingEvents:     p.TeachingEvents,
		Bookings:           p.Bookings,
		Certificates:       p.Certificates,
		Feedback:           p.Feedback,
		Announcements:      p.Announcements,
		LeaderboardUpdates: p.LeaderboardUpdates,
		QuizReminders:      p.QuizReminders,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func preferenceModelToDomain(m *NotificationPreferenceModel) *domain.NotificationPreference {
	if m == nil {
		return nil
	}

	return &domain.NotificationPreference{
		UserID:             m.UserID,
		TeachingEvents:     m.TeachingEvents,
		Bookings:           m.Bookings,
		Certificates:       m.Certificates,
		Feedback:           m.Feedback,
		Announcements:      m.Announcements,
		LeaderboardUpdates: m.LeaderboardUpdates,
		QuizReminders:      m.QuizReminders,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func taskModelFromDomain(t *domain.ScheduledTask) (*ScheduledTaskModel, error) {
	if t == nil {
		return nil, nil
	}

	metadata, err := marshalMetadata(t.Metadata)
	if err != nil {
		return nil, err
	}

	return &ScheduledTaskModel{
		ID:             t.ID,
		TaskType:       t.TaskType,
		EventID:        t.EventID,
		UserID:         t.UserID,
		Status:         t.Status,
		RunAt:          t.RunAt,
		IdempotencyKey: t.IdempotencyKey,
		Metadata:       metadata,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}, nil
}

func taskModelToDomain(m *ScheduledTaskModel) *domain.ScheduledTask {
	if m == nil {
		return nil
	}

	return &domain.ScheduledTask{
		ID:             m.ID,
		TaskType:       m.TaskType,
		EventID:        m.EventID,
		UserID:         m.UserID,
		Status:         m.Status,
		RunAt:          m.RunAt,
		IdempotencyKey: m.IdempotencyKey,
		Metadata:       unmarshalMetadata(m.Metadata),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func logModelFromDomain(l *domain.NotificationLog) (*NotificationLogModel, error) {
	if l == nil {
		return nil, nil
	}

	metadata, err := marshalMetadata(l.Metadata)
	if err != nil {
		return nil, err
	}

	return &NotificationLogModel{
		ID:               l.ID,
		UserID:           l.UserID,
		NotificationType: l.NotificationType,
		Title:            l.Title,
		Body:             l.Body,
		URL:              l.URL,
		Status:           l.Status,
		ErrorMessage:     l.ErrorMessage,
		Metadata:         metadata,
		SentAt:           l.SentAt,
	}, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func unmarshalMetadata(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}

	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil
	}
	return metadata
}
