package store

import (
	"context"
	"fmt"

	"github.com/nhle/sharedspace/internal/model"
)

// Collection names shared by every backend.
const (
	CollectionTasks       = "tasks"
	CollectionFamilies    = "families"
	CollectionMembers     = "family_members"
	CollectionPreferences = "user_preferences"
	CollectionUsers       = "users"
)

// Order sorts a list query by one field.
type Order struct {
	Field string
	Desc  bool
}

// Query is the uniform list shape: equality conditions joined with AND,
// then ordering. Field names are the stored column names (user_id,
// created_at, ...). A slice value in Where matches any of its elements.
type Query struct {
	Where   map[string]any
	OrderBy []Order
}

// Where builds a query from alternating field/value pairs.
func Where(kv ...any) Query {
	q := Query{Where: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		field, _ := kv[i].(string)
		q.Where[field] = kv[i+1]
	}
	return q
}

// Sort appends an ordering and returns the query.
func (q Query) Sort(field string, desc bool) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Desc: desc})
	return q
}

// Validate checks every field against the allowed set of a collection.
func (q Query) Validate(collection string) error {
	allowed := queryFields[collection]
	for field := range q.Where {
		if !allowed[field] {
			return fmt.Errorf("%w: %s has no filterable field %q", model.ErrInvalidQuery, collection, field)
		}
	}
	for _, o := range q.OrderBy {
		if !allowed[o.Field] {
			return fmt.Errorf("%w: %s has no sortable field %q", model.ErrInvalidQuery, collection, o.Field)
		}
	}
	return nil
}

// queryFields lists the columns each collection can be filtered and sorted on.
var queryFields = map[string]map[string]bool{
	CollectionTasks: {
		"id": true, "user_id": true, "created_by": true, "family_id": true,
		"status": true, "priority": true, "due_date": true,
		"created_at": true, "updated_at": true, "title": true,
	},
	CollectionFamilies: {
		"id": true, "owner_id": true, "name": true,
		"created_at": true, "updated_at": true,
	},
	CollectionMembers: {
		"id": true, "family_id": true, "user_id": true, "email": true,
		"role": true, "status": true, "invited_at": true, "joined_at": true,
	},
	CollectionPreferences: {
		"id": true, "user_id": true,
	},
	CollectionUsers: {
		"id": true, "email": true, "created_at": true,
	},
}

// Store is the persistence boundary used by the session provider and
// every view-model. Implementations must be safe for concurrent use.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserDisplayName(ctx context.Context, id string, displayName string) error

	// === Tasks ===

	ListTasks(ctx context.Context, q Query) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error

	// === Families ===

	ListFamilies(ctx context.Context, q Query) ([]model.Family, error)
	CreateFamily(ctx context.Context, f model.Family) (model.Family, error)
	UpdateFamily(ctx context.Context, id string, patch model.FamilyPatch) error
	// DeleteFamily removes the family and its member rows; tasks scoped
	// to it keep their owner and lose the family reference.
	DeleteFamily(ctx context.Context, id string) error

	// === Family members ===

	ListMembers(ctx context.Context, q Query) ([]model.FamilyMember, error)
	CreateMember(ctx context.Context, m model.FamilyMember) (model.FamilyMember, error)
	UpdateMember(ctx context.Context, id string, patch model.MemberPatch) error
	DeleteMember(ctx context.Context, id string) error

	// === Preferences ===

	ListPreferences(ctx context.Context, q Query) ([]model.Preferences, error)
	CreatePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error)
	UpdatePreferences(ctx context.Context, id string, p model.Preferences) error

	Close() error
}
