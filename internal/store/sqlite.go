package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/sharedspace/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// === Users ===

type userRow struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	Avatar      string    `db:"avatar"`
	CreatedAt   time.Time `db:"created_at"`
}

const userColumns = "id, email, display_name, avatar, created_at"

func (r userRow) toModel() model.User {
	return model.User{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Avatar:      r.Avatar,
		CreatedAt:   r.CreatedAt,
	}
}

// CreateUser inserts a user. The email is normalized and must be unique.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Email = model.NormalizeEmail(u.Email)
	if u.Email == "" {
		return model.User{}, fmt.Errorf("%w: user email must not be empty", model.ErrValidation)
	}
	if u.ID == "" {
		u.ID = NewID(PrefixUser)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, avatar, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.Avatar, u.CreatedAt.UTC(),
	)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user %s: %w", u.Email, translateErr(err))
	}
	return u, nil
}

// GetUserByID retrieves a single user.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, translateErr(err))
	}
	u := row.toModel()
	return &u, nil
}

// GetUserByEmail retrieves a single user by normalized email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+userColumns+" FROM users WHERE email = ?", model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("getting user by email %s: %w", email, translateErr(err))
	}
	u := row.toModel()
	return &u, nil
}

// UpdateUserDisplayName changes a user's display name.
func (s *SQLiteStore) UpdateUserDisplayName(ctx context.Context, id string, displayName string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET display_name = ? WHERE id = ?",
		strings.TrimSpace(displayName), id,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", id, err)
	}
	return expectRow(result, "user", id)
}

// === Query building ===

// buildSelect renders a Query into SQL for the given column list and table.
func buildSelect(columns string, table string, q Query) (string, []any, error) {
	if err := q.Validate(table); err != nil {
		return "", nil, err
	}

	var conditions []string
	var args []any

	// Sorted for stable SQL text.
	fields := slices.Sorted(maps.Keys(q.Where))

	for _, field := range fields {
		value := q.Where[field]
		if value == nil {
			conditions = append(conditions, field+" IS NULL")
			continue
		}
		if values, ok := sliceArgs(value); ok {
			if len(values) == 0 {
				conditions = append(conditions, "0 = 1")
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			conditions = append(conditions, field+" IN ("+placeholders+")")
			args = append(args, values...)
			continue
		}
		conditions = append(conditions, field+" = ?")
		args = append(args, sqlArg(value))
	}

	query := "SELECT " + columns + " FROM " + table
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if len(q.OrderBy) > 0 {
		var order []string
		for _, o := range q.OrderBy {
			direction := "ASC"
			if o.Desc {
				direction = "DESC"
			}
			order = append(order, o.Field+" "+direction)
		}
		query += " ORDER BY " + strings.Join(order, ", ")
	}

	return query, args, nil
}

// sqlArg converts named string types (model.TaskStatus, ...) to plain
// strings so every driver accepts them.
func sqlArg(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return sqlArg(rv.Elem().Interface())
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

// sliceArgs flattens a slice value (other than []byte) into query args.
func sliceArgs(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = sqlArg(rv.Index(i).Interface())
	}
	return out, true
}

// translateErr maps driver errors onto model sentinels.
func translateErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", model.ErrDuplicate, err)
	}
	return err
}

// expectRow turns a zero-row update or delete into ErrNotFound.
func expectRow(result sql.Result, kind string, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullTime converts an optional time into a nullable UTC column value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// nullString converts an optional string into a nullable column value.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
