package domain

import "time"

// PreferenceCategory is one toggleable notification category.
type PreferenceCategory string

const (
	CategoryTeachingEvents     PreferenceCategory = "teaching_events"
	CategoryBookings           PreferenceCategory = "bookings"
	CategoryCertificates       PreferenceCategory = "certificates"
	CategoryFeedback           PreferenceCategory = "feedback"
	CategoryAnnouncements      PreferenceCategory = "announcements"
	CategoryLeaderboardUpdates PreferenceCategory = "leaderboard_updates"
	CategoryQuizReminders      PreferenceCategory = "quiz_reminders"
)

func (c PreferenceCategory) String() string { return string(c) }

// typeCategories maps notification types onto preference categories.
// Types without an entry bypass preference filtering entirely.
var typeCategories = map[NotificationType]PreferenceCategory{
	TypeEventReminder1h:      CategoryTeachingEvents,
	TypeEventReminder15m:     CategoryTeachingEvents,
	TypeEventUpdated:         CategoryTeachingEvents,
	TypeEventCancelled:       CategoryTeachingEvents,
	TypeBookingReminder24h:   CategoryBookings,
	TypeBookingCancelled:     CategoryBookings,
	TypeWaitlistPromoted:     CategoryBookings,
	TypeCertificateAvailable: CategoryCertificates,
	TypeFeedbackRequest:      CategoryFeedback,
	TypeAnnouncement:         CategoryAnnouncements,
}

// CategoryForType returns the preference category governing a notification
// type, or false when the type is not subject to preference filtering.
func CategoryForType(t NotificationType) (PreferenceCategory, bool) {
	category, ok := typeCategories[t]
	return category, ok
}

// NotificationPreference holds one user's per-category opt-outs. Category
// fields are pointers: a nil field means the user never expressed a choice
// and must be treated as enabled.
type NotificationPreference struct {
	UserID             string
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

// Allows reports whether the category is enabled for this preference row.
// A nil receiver (no row) or nil field (no choice) is enabled: the engine
// fails open rather than silently suppressing notifications.
func (p *NotificationPreference) Allows(category PreferenceCategory) bool {
	if p == nil {
		return true
	}

	var field *bool
	switch category {
	case CategoryTeachingEvents:
		field = p.TeachingEvents
	case CategoryBookings:
		field = p.Bookings
	case CategoryCertificates:
		field = p.Certificates
	case CategoryFeedback:
		field = p.Feedback
	case CategoryAnnouncements:
		field = p.Announcements
	case CategoryLeaderboardUpdates:
		field = p.LeaderboardUpdates
	case CategoryQuizReminders:
		field = p.QuizReminders
	default:
		return true
	}

	if field == nil {
		return true
	}
	return *field
}
