package domain

import "testing"

func boolPtr(v bool) *bool { return &v }

func TestPreferenceAllowsFailsOpen(t *testing.T) {
	t.Parallel()

	var missing *NotificationPreference
	if !missing.Allows(CategoryTeachingEvents) {
		t.Fatal("missing preference row must be treated as enabled")
	}

	partial := &NotificationPreference{UserID: "user-1"}
	if !partial.Allows(CategoryBookings) {
		t.Fatal("missing category field must be treated as enabled")
	}

	optedOut := &NotificationPreference{UserID: "user-1", TeachingEvents: boolPtr(false)}
	if optedOut.Allows(CategoryTeachingEvents) {
		t.Fatal("explicit false must disable the category")
	}
	if !optedOut.Allows(CategoryCertificates) {
		t.Fatal("opt-out of one category must not affect another")
	}

	optedIn := &NotificationPreference{UserID: "user-1", Feedback: boolPtr(true)}
	if !optedIn.Allows(CategoryFeedback) {
		t.Fatal("explicit true must stay enabled")
	}
}

func TestCategoryForType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		notificationType NotificationType
		want             PreferenceCategory
		mapped           bool
	}{
		{TypeEventReminder1h, CategoryTeachingEvents, true},
		{TypeBookingReminder24h, CategoryBookings, true},
		{TypeCertificateAvailable, CategoryCertificates, true},
		{TypeFeedbackRequest, CategoryFeedback, true},
		{TypeAnnouncement, CategoryAnnouncements, true},
		{NotificationType("system_maintenance"), "", false},
	}

	for _, tt := range tests {
		category, ok := CategoryForType(tt.notificationType)
		if ok != tt.mapped {
			t.Fatalf("CategoryForType(%s) ok = %v, want %v", tt.notificationType, ok, tt.mapped)
		}
		if ok && category != tt.want {
			t.Fatalf("CategoryForType(%s) = %s, want %s", tt.notificationType, category, tt.want)
		}
	}
}
