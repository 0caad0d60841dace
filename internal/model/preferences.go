package model

import "time"

// Profile visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// DefaultTheme is the theme key used when none has been saved.
const DefaultTheme = "indigo"

// Preferences is the single per-user settings record.
type Preferences struct {
	ID     string `json:"id" bson:"_id"`
	UserID string `json:"user_id" bson:"user_id"`

	// Profile
	Bio      string `json:"bio" bson:"bio"`
	Location string `json:"location" bson:"location"`
	Phone    string `json:"phone" bson:"phone"`

	// Notifications
	EmailNotifications bool `json:"email_notifications" bson:"email_notifications"`
	PushNotifications  bool `json:"push_notifications" bson:"push_notifications"`
	TaskReminders      bool `json:"task_reminders" bson:"task_reminders"`
	FamilyUpdates      bool `json:"family_updates" bson:"family_updates"`
	WeeklyDigest       bool `json:"weekly_digest" bson:"weekly_digest"`

	// Appearance
	Theme       string `json:"theme" bson:"theme"`
	DarkMode    bool   `json:"dark_mode" bson:"dark_mode"`
	CompactMode bool   `json:"compact_mode" bson:"compact_mode"`

	// Privacy
	ProfileVisibility string `json:"profile_visibility" bson:"profile_visibility"`
	ActivityStatus    bool   `json:"activity_status" bson:"activity_status"`
	DataSharing       bool   `json:"data_sharing" bson:"data_sharing"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultPreferences returns the settings a user starts with.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		TaskReminders:      true,
		FamilyUpdates:      true,
		WeeklyDigest:       false,
		Theme:              DefaultTheme,
		ProfileVisibility:  VisibilityFriends,
		ActivityStatus:     true,
	}
}
