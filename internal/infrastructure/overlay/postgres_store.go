package overlay

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/drillscope/panel-api/internal/domain/assignment"
)

// PostgresStore persists overlay entries in an append-only table so pending
// assignments survive restarts and are shared across panel replicas.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects with SQL tracing enabled and verifies the connection.
func OpenPostgres(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", dbURL, otelsql.WithDBSystem("postgresql"))
	if err != nil {
		return nil, fmt.Errorf("open overlay database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping overlay database: %w", err)
	}
	return db, nil
}

type overlayEntryTableModel struct {
	ID         int64          `db:"id"`
	EventID    string         `db:"event_id"`
	Judges     pq.StringArray `db:"judges"`
	Organizers pq.StringArray `db:"organizers"`
	AssignedAt time.Time      `db:"assigned_at"`
}

func (s *PostgresStore) Append(ctx context.Context, entry assignment.OverlayEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	const query = `
		INSERT INTO overlay_entries (event_id, judges, organizers, assigned_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query,
		entry.EventID,
		pq.StringArray(entry.Judges),
		pq.StringArray(entry.Organizers),
		entry.AssignedAt,
	); err != nil {
		return fmt.Errorf("insert overlay entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID string) ([]assignment.OverlayEntry, int, error) {
	const query = `
		SELECT id, event_id, judges, organizers, assigned_at
		FROM overlay_entries
		WHERE event_id = $1
		ORDER BY id`

	var rows []overlayEntryTableModel
	if err := s.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, 0, fmt.Errorf("select overlay entries: %w", err)
	}

	entries := make([]assignment.OverlayEntry, 0, len(rows))
	corrupt := 0
	for _, row := range rows {
		entry := assignment.OverlayEntry{
			EventID:    row.EventID,
			Judges:     []string(row.Judges),
			Organizers: []string(row.Organizers),
			AssignedAt: row.AssignedAt,
		}
		if err := entry.Validate(); err != nil {
			corrupt++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, corrupt, nil
}

func (s *PostgresStore) Prune(ctx context.Context, eventID, personID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin overlay prune: %w", err)
	}
	defer tx.Rollback()

	const update = `
		UPDATE overlay_entries
		SET judges = array_remove(judges, $2),
		    organizers = array_remove(organizers, $2)
		WHERE event_id = $1`
	if _, err := tx.ExecContext(ctx, update, eventID, personID); err != nil {
		return fmt.Errorf("prune overlay entries: %w", err)
	}

	const sweep = `
		DELETE FROM overlay_entries
		WHERE event_id = $1
		  AND cardinality(judges) = 0
		  AND cardinality(organizers) = 0`
	if _, err := tx.ExecContext(ctx, sweep, eventID); err != nil {
		return fmt.Errorf("sweep empty overlay entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit overlay prune: %w", err)
	}
	return nil
}
