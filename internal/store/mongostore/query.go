package mongostore

import (
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
)

// documentField maps a query column to its document field.
func documentField(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}

// filterFor renders the Where half of a query. A nil value also matches
// documents where the field is absent; a slice value becomes $in.
func filterFor(q store.Query) bson.M {
	filter := bson.M{}
	for field, value := range q.Where {
		key := documentField(field)
		if value == nil {
			filter[key] = nil
			continue
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
			in := make(bson.A, rv.Len())
			for i := range rv.Len() {
				in[i] = rv.Index(i).Interface()
			}
			filter[key] = bson.M{"$in": in}
			continue
		}
		filter[key] = value
	}
	return filter
}

// sortFor renders the OrderBy half of a query; nil when unordered.
func sortFor(q store.Query) bson.D {
	if len(q.OrderBy) == 0 {
		return nil
	}
	sort := make(bson.D, 0, len(q.OrderBy))
	for _, o := range q.OrderBy {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: documentField(o.Field), Value: dir})
	}
	return sort
}

// taskUpdate renders a task patch as $set/$unset operators.
func taskUpdate(patch model.TaskPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.ClearDueDate {
		unset["due_date"] = ""
	} else if patch.DueDate != nil {
		set["due_date"] = patch.DueDate.UTC()
	}
	if patch.ClearFamily {
		unset["family_id"] = ""
	} else if patch.FamilyID != nil {
		set["family_id"] = *patch.FamilyID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func familyUpdate(patch model.FamilyPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	return bson.M{"$set": set}
}

func memberUpdate(patch model.MemberPatch) bson.M {
	set := bson.M{}
	if patch.UserID != nil {
		set["user_id"] = *patch.UserID
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.JoinedAt != nil {
		set["joined_at"] = patch.JoinedAt.UTC()
	}
	return bson.M{"$set": set}
}

// preferencesUpdate overwrites every editable field; identity and
// created_at are left alone.
func preferencesUpdate(p model.Preferences, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"bio":                 p.Bio,
		"location":            p.Location,
		"phone":               p.Phone,
		"email_notifications": p.EmailNotifications,
		"push_notifications":  p.PushNotifications,
		"task_reminders":      p.TaskReminders,
		"family_updates":      p.FamilyUpdates,
		"weekly_digest":       p.WeeklyDigest,
		"theme":               p.Theme,
		"dark_mode":           p.DarkMode,
		"compact_mode":        p.CompactMode,
		"profile_visibility":  p.ProfileVisibility,
		"activity_status":     p.ActivityStatus,
		"data_sharing":        p.DataSharing,
		"updated_at":          now,
	}}
}
