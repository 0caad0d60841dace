// Package mongostore implements store.Store on MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
)

// Store keeps each collection in a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, pings the deployment and ensures the unique
// indexes the store relies on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		store.CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		store.CollectionMembers: {
			{Keys: bson.D{{Key: "family_id", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		store.CollectionPreferences: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		store.CollectionTasks: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "family_id", Value: 1}}},
		},
		store.CollectionFamilies: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// find runs q against a collection and decodes every document into out.
func (s *Store) find(ctx context.Context, collection string, q store.Query, out any) error {
	if err := q.Validate(collection); err != nil {
		return err
	}
	opts := options.Find()
	if sort := sortFor(q); sort != nil {
		opts.SetSort(sort)
	}
	cursor, err := s.coll(collection).Find(ctx, filterFor(q), opts)
	if err != nil {
		return fmt.Errorf("querying %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decoding %s: %w", collection, err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, collection string, doc any) error {
	if _, err := s.coll(collection).InsertOne(ctx, doc); err != nil {
		return translateErr(err)
	}
	return nil
}

// updateByID applies update and reports ErrNotFound when nothing matched.
func (s *Store) updateByID(ctx context.Context, collection, kind, id string, update bson.M) error {
	result, err := s.coll(collection).UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("updating %s %s: %w", kind, id, translateErr(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, collection, kind, id string) error {
	result, err := s.coll(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", kind, id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

func translateErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", model.ErrDuplicate, err)
	}
	return err
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// === Users ===

// CreateUser inserts a user with a normalized email.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Email = model.NormalizeEmail(u.Email)
	if u.Email == "" {
		return model.User{}, fmt.Errorf("%w: user email must not be empty", model.ErrValidation)
	}
	if u.ID == "" {
		u.ID = store.NewID(store.PrefixUser)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	if err := s.insert(ctx, store.CollectionUsers, u); err != nil {
		return model.User{}, fmt.Errorf("creating user %s: %w", u.Email, err)
	}
	return u, nil
}

func (s *Store) getUser(ctx context.Context, filter bson.M, key string) (*model.User, error) {
	var u model.User
	if err := s.coll(store.CollectionUsers).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, fmt.Errorf("getting user %s: %w", key, translateErr(err))
	}
	return &u, nil
}

// GetUserByID retrieves a single user.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, bson.M{"_id": id}, id)
}

// GetUserByEmail retrieves a single user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	return s.getUser(ctx, bson.M{"email": email}, email)
}

// UpdateUserDisplayName changes a user's display name.
func (s *Store) UpdateUserDisplayName(ctx context.Context, id string, displayName string) error {
	return s.updateByID(ctx, store.CollectionUsers, "user", id,
		bson.M{"$set": bson.M{"display_name": strings.TrimSpace(displayName)}})
}

// === Tasks ===

// ListTasks retrieves tasks matching q.
func (s *Store) ListTasks(ctx context.Context, q store.Query) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := s.find(ctx, store.CollectionTasks, q, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask inserts a task, filling id, defaults and timestamps.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return model.Task{}, fmt.Errorf("%w: task title must not be empty", model.ErrValidation)
	}
	if t.UserID == "" {
		return model.Task{}, fmt.Errorf("%w: task must have an owning user", model.ErrValidation)
	}
	if t.ID == "" {
		t.ID = store.NewID(store.PrefixTask)
	}
	if !t.Status.Valid() {
		t.Status = model.TaskStatusTodo
	}
	if !t.Priority.Valid() {
		t.Priority = model.PriorityMedium
	}
	if t.CreatedBy == "" {
		t.CreatedBy = t.UserID
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt

	if err := s.insert(ctx, store.CollectionTasks, t); err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update and bumps updated_at.
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("%w: task title must not be empty", model.ErrValidation)
	}
	return s.updateByID(ctx, store.CollectionTasks, "task", id, taskUpdate(patch, now()))
}

// DeleteTask removes a task by ID.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.deleteByID(ctx, store.CollectionTasks, "task", id)
}

// === Families ===

// ListFamilies retrieves families matching q.
func (s *Store) ListFamilies(ctx context.Context, q store.Query) ([]model.Family, error) {
	families := []model.Family{}
	if err := s.find(ctx, store.CollectionFamilies, q, &families); err != nil {
		return nil, err
	}
	return families, nil
}

// CreateFamily inserts a family.
func (s *Store) CreateFamily(ctx context.Context, f model.Family) (model.Family, error) {
	if strings.TrimSpace(f.Name) == "" {
		return model.Family{}, fmt.Errorf("%w: family name must not be empty", model.ErrValidation)
	}
	if f.OwnerID == "" {
		return model.Family{}, fmt.Errorf("%w: family must have an owner", model.ErrValidation)
	}
	if f.ID == "" {
		f.ID = store.NewID(store.PrefixFamily)
	}
	f.CreatedAt = now()
	f.UpdatedAt = f.CreatedAt

	if err := s.insert(ctx, store.CollectionFamilies, f); err != nil {
		return model.Family{}, fmt.Errorf("creating family: %w", err)
	}
	return f, nil
}

// UpdateFamily applies a partial update to a family.
func (s *Store) UpdateFamily(ctx context.Context, id string, patch model.FamilyPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: family name must not be empty", model.ErrValidation)
	}
	return s.updateByID(ctx, store.CollectionFamilies, "family", id, familyUpdate(patch, now()))
}

// DeleteFamily removes a family, its member rows, and the family
// reference on its tasks.
func (s *Store) DeleteFamily(ctx context.Context, id string) error {
	if err := s.deleteByID(ctx, store.CollectionFamilies, "family", id); err != nil {
		return err
	}
	if _, err := s.coll(store.CollectionMembers).DeleteMany(ctx, bson.M{"family_id": id}); err != nil {
		return fmt.Errorf("deleting members of family %s: %w", id, err)
	}
	_, err := s.coll(store.CollectionTasks).UpdateMany(ctx,
		bson.M{"family_id": id},
		bson.M{"$unset": bson.M{"family_id": ""}},
	)
	if err != nil {
		return fmt.Errorf("detaching tasks of family %s: %w", id, err)
	}
	return nil
}

// === Family members ===

// ListMembers retrieves member rows matching q.
func (s *Store) ListMembers(ctx context.Context, q store.Query) ([]model.FamilyMember, error) {
	members := []model.FamilyMember{}
	if err := s.find(ctx, store.CollectionMembers, q, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CreateMember inserts a member row; (family_id, email) is unique.
func (s *Store) CreateMember(ctx context.Context, m model.FamilyMember) (model.FamilyMember, error) {
	m.Email = model.NormalizeEmail(m.Email)
	if m.Email == "" {
		return model.FamilyMember{}, fmt.Errorf("%w: member email must not be empty", model.ErrValidation)
	}
	if strings.TrimSpace(m.FamilyID) == "" {
		return model.FamilyMember{}, fmt.Errorf("%w: member must belong to a family", model.ErrValidation)
	}
	if !m.Role.Valid() {
		m.Role = model.RoleMember
	}
	if m.Status == "" {
		m.Status = model.MemberStatusInvited
	}
	if m.ID == "" {
		m.ID = store.NewID(store.PrefixMember)
	}
	if err := s.insert(ctx, store.CollectionMembers, m); err != nil {
		return model.FamilyMember{}, fmt.Errorf("creating family member %s: %w", m.Email, err)
	}
	return m, nil
}

// UpdateMember applies a partial update to a member row.
func (s *Store) UpdateMember(ctx context.Context, id string, patch model.MemberPatch) error {
	update := memberUpdate(patch)
	if len(update["$set"].(bson.M)) == 0 {
		return nil
	}
	return s.updateByID(ctx, store.CollectionMembers, "family member", id, update)
}

// DeleteMember removes a member row by ID.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.deleteByID(ctx, store.CollectionMembers, "family member", id)
}

// === Preferences ===

// ListPreferences retrieves preference records matching q.
func (s *Store) ListPreferences(ctx context.Context, q store.Query) ([]model.Preferences, error) {
	prefs := []model.Preferences{}
	if err := s.find(ctx, store.CollectionPreferences, q, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// CreatePreferences inserts the preferences record for a user.
func (s *Store) CreatePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	if p.UserID == "" {
		return model.Preferences{}, fmt.Errorf("%w: preferences must belong to a user", model.ErrValidation)
	}
	if p.ID == "" {
		p.ID = store.NewID(store.PrefixPreferences)
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	if err := s.insert(ctx, store.CollectionPreferences, p); err != nil {
		return model.Preferences{}, fmt.Errorf("creating preferences for %s: %w", p.UserID, err)
	}
	return p, nil
}

// UpdatePreferences overwrites every editable field of a record.
func (s *Store) UpdatePreferences(ctx context.Context, id string, p model.Preferences) error {
	return s.updateByID(ctx, store.CollectionPreferences, "preferences", id, preferencesUpdate(p, now()))
}
