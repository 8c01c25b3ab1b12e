package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/rentwatch/internal/model"
)

// SQLiteRepository persists store snapshots in a local SQLite database.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return r, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (r *SQLiteRepository) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := r.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = r.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := r.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Save replaces the persisted snapshot with the given state inside a
// single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, state State) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM interactions"); err != nil {
		return fmt.Errorf("clearing interactions: %w", err)
	}

	const insertNotification = `
		INSERT INTO notifications (
			id, category, title, message, payload, target_id,
			priority, is_read, has_been_seen, is_archived,
			position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, insertNotification)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range state.Notifications {
		payload, err := json.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("marshaling payload for notification %s: %w", n.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			n.ID, string(n.Category), n.Title, n.Message, string(payload), n.TargetID,
			string(n.Priority), boolToInt(n.IsRead), boolToInt(n.HasBeenSeen), boolToInt(n.IsArchived),
			i, n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	const insertInteraction = `
		INSERT INTO interactions (id, notification_id, kind, category, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	istmt, err := tx.PreparexContext(ctx, insertInteraction)
	if err != nil {
		return fmt.Errorf("preparing interaction insert: %w", err)
	}
	defer istmt.Close()

	for i, rec := range state.Interactions {
		_, err = istmt.ExecContext(ctx,
			rec.ID, rec.NotificationID, string(rec.Kind), string(rec.Category),
			i, rec.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting interaction %s: %w", rec.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO store_state (id, unread_count) VALUES (1, ?)`,
		state.UnreadCount,
	)
	if err != nil {
		return fmt.Errorf("saving unread count: %w", err)
	}

	return tx.Commit()
}

// Load retrieves the last saved snapshot. An empty database yields an
// empty State.
func (r *SQLiteRepository) Load(ctx context.Context) (State, error) {
	var state State

	rows, err := r.db.QueryxContext(ctx,
		"SELECT * FROM notifications ORDER BY position",
	)
	if err != nil {
		return State{}, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return State{}, err
		}
		state.Notifications = append(state.Notifications, n)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterating notifications: %w", err)
	}

	irows, err := r.db.QueryxContext(ctx,
		"SELECT * FROM interactions ORDER BY position",
	)
	if err != nil {
		return State{}, fmt.Errorf("querying interactions: %w", err)
	}
	defer irows.Close()

	for irows.Next() {
		rec, err := scanInteraction(irows)
		if err != nil {
			return State{}, err
		}
		state.Interactions = append(state.Interactions, rec)
	}
	if err := irows.Err(); err != nil {
		return State{}, fmt.Errorf("iterating interactions: %w", err)
	}

	err = r.db.GetContext(ctx, &state.UnreadCount,
		"SELECT unread_count FROM store_state WHERE id = 1",
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return State{}, fmt.Errorf("reading unread count: %w", err)
	}

	return state, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n           model.Notification
		category    string
		payloadJSON string
		priority    string
		isRead      int
		hasBeenSeen int
		isArchived  int
		position    int
		createdAt   time.Time
	)

	err := rows.Scan(
		&n.ID, &category, &n.Title, &n.Message, &payloadJSON, &n.TargetID,
		&priority, &isRead, &hasBeenSeen, &isArchived,
		&position, &createdAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Category = model.Category(category)
	n.Priority = model.Priority(priority)
	n.IsRead = isRead != 0
	n.HasBeenSeen = hasBeenSeen != 0
	n.IsArchived = isArchived != 0
	n.CreatedAt = createdAt

	if payloadJSON != "" {
		if err := json.Unmarshal([]byte(payloadJSON), &n.Payload); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling payload: %w", err)
		}
	}

	return n, nil
}

// scanInteraction scans an interaction row from a sqlx.Rows result set.
func scanInteraction(rows *sqlx.Rows) (model.Interaction, error) {
	var (
		rec       model.Interaction
		kind      string
		category  string
		position  int
		createdAt time.Time
	)

	err := rows.Scan(
		&rec.ID, &rec.NotificationID, &kind, &category, &position, &createdAt,
	)
	if err != nil {
		return model.Interaction{}, fmt.Errorf("scanning interaction row: %w", err)
	}

	rec.Kind = model.InteractionKind(kind)
	rec.Category = model.Category(category)
	rec.CreatedAt = createdAt

	return rec, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
