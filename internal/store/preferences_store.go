package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/sharedspace/internal/model"
)

type preferencesRow struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	Bio                string    `db:"bio"`
	Location           string    `db:"location"`
	Phone              string    `db:"phone"`
	EmailNotifications int       `db:"email_notifications"`
	PushNotifications  int       `db:"push_notifications"`
	TaskReminders      int       `db:"task_reminders"`
	FamilyUpdates      int       `db:"family_updates"`
	WeeklyDigest       int       `db:"weekly_digest"`
	Theme              string    `db:"theme"`
	DarkMode           int       `db:"dark_mode"`
	CompactMode        int       `db:"compact_mode"`
	ProfileVisibility  string    `db:"profile_visibility"`
	ActivityStatus     int       `db:"activity_status"`
	DataSharing        int       `db:"data_sharing"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

const preferencesColumns = "id, user_id, bio, location, phone, " +
	"email_notifications, push_notifications, task_reminders, family_updates, weekly_digest, " +
	"theme, dark_mode, compact_mode, profile_visibility, activity_status, data_sharing, " +
	"created_at, updated_at"

func (r preferencesRow) toModel() model.Preferences {
	return model.Preferences{
		ID:                 r.ID,
		UserID:             r.UserID,
		Bio:                r.Bio,
		Location:           r.Location,
		Phone:              r.Phone,
		EmailNotifications: r.EmailNotifications != 0,
		PushNotifications:  r.PushNotifications != 0,
		TaskReminders:      r.TaskReminders != 0,
		FamilyUpdates:      r.FamilyUpdates != 0,
		WeeklyDigest:       r.WeeklyDigest != 0,
		Theme:              r.Theme,
		DarkMode:           r.DarkMode != 0,
		CompactMode:        r.CompactMode != 0,
		ProfileVisibility:  r.ProfileVisibility,
		ActivityStatus:     r.ActivityStatus != 0,
		DataSharing:        r.DataSharing != 0,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// ListPreferences retrieves preference records matching q.
func (s *SQLiteStore) ListPreferences(ctx context.Context, q Query) ([]model.Preferences, error) {
	query, args, err := buildSelect(preferencesColumns, CollectionPreferences, q)
	if err != nil {
		return nil, err
	}

	var rows []preferencesRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}

	prefs := make([]model.Preferences, 0, len(rows))
	for _, row := range rows {
		prefs = append(prefs, row.toModel())
	}
	return prefs, nil
}

// CreatePreferences inserts the preferences record for a user.
func (s *SQLiteStore) CreatePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	if p.UserID == "" {
		return model.Preferences{}, fmt.Errorf("%w: preferences must belong to a user", model.ErrValidation)
	}
	if p.ID == "" {
		p.ID = NewID(PrefixPreferences)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (`+preferencesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Bio, p.Location, p.Phone,
		boolToInt(p.EmailNotifications), boolToInt(p.PushNotifications),
		boolToInt(p.TaskReminders), boolToInt(p.FamilyUpdates), boolToInt(p.WeeklyDigest),
		p.Theme, boolToInt(p.DarkMode), boolToInt(p.CompactMode),
		p.ProfileVisibility, boolToInt(p.ActivityStatus), boolToInt(p.DataSharing),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("creating preferences for %s: %w", p.UserID, translateErr(err))
	}
	return p, nil
}

// UpdatePreferences overwrites every editable field of a record in place.
func (s *SQLiteStore) UpdatePreferences(ctx context.Context, id string, p model.Preferences) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_preferences SET
			bio = ?, location = ?, phone = ?,
			email_notifications = ?, push_notifications = ?, task_reminders = ?,
			family_updates = ?, weekly_digest = ?,
			theme = ?, dark_mode = ?, compact_mode = ?,
			profile_visibility = ?, activity_status = ?, data_sharing = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Bio, p.Location, p.Phone,
		boolToInt(p.EmailNotifications), boolToInt(p.PushNotifications), boolToInt(p.TaskReminders),
		boolToInt(p.FamilyUpdates), boolToInt(p.WeeklyDigest),
		p.Theme, boolToInt(p.DarkMode), boolToInt(p.CompactMode),
		p.ProfileVisibility, boolToInt(p.ActivityStatus), boolToInt(p.DataSharing),
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating preferences %s: %w", id, err)
	}
	return expectRow(result, "preferences", id)
}
