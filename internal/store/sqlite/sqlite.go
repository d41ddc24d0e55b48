// Package sqlite stores routine items in a local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/store"
)

const selectColumns = `seq, id, name, url, description, sort_order, click_count, created_at`

// row mirrors the routine_items table.
type row struct {
	Seq         int64          `db:"seq"`
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	URL         string         `db:"url"`
	Description sql.NullString `db:"description"`
	SortOrder   int            `db:"sort_order"`
	ClickCount  int64          `db:"click_count"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r row) item() domain.RoutineItem {
	it := domain.RoutineItem{
		ID:         r.ID,
		Name:       r.Name,
		URL:        r.URL,
		Order:      r.SortOrder,
		ClickCount: r.ClickCount,
		CreatedAt:  r.CreatedAt.UTC(),
		Seq:        r.Seq,
	}
	if r.Description.Valid {
		d := r.Description.String
		it.Description = &d
	}
	return it
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Store implements store.Store on SQLite.
//
// The pool is capped at one connection so transactions are serialized,
// which is what makes create and reorder atomic.
type Store struct {
	db   *sqlx.DB
	opts store.Options
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func Open(dbPath string, opts store.Options) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{db: db, opts: opts.WithDefaults()}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
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

// List returns all items ordered by sort_order then insertion.
func (s *Store) List(ctx context.Context) ([]domain.RoutineItem, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+selectColumns+" FROM routine_items ORDER BY sort_order, seq")
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}

	items := make([]domain.RoutineItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return items, nil
}

// Get retrieves a single item by its ID.
func (s *Store) Get(ctx context.Context, id string) (domain.RoutineItem, error) {
	return getItem(ctx, s.db, id)
}

// Create inserts a new item inside one transaction.
func (s *Store) Create(ctx context.Context, in domain.CreateInput) (domain.RoutineItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var order int
	if in.Order != nil {
		order = *in.Order
	} else {
		var maxOrder sql.NullInt64
		if err := tx.GetContext(ctx, &maxOrder, "SELECT MAX(sort_order) FROM routine_items"); err != nil {
			return domain.RoutineItem{}, fmt.Errorf("getting max sort_order: %w", err)
		}
		if maxOrder.Valid {
			order = domain.OrderAfter(int(maxOrder.Int64))
		}
	}

	id, err := s.freshID(ctx, tx)
	if err != nil {
		return domain.RoutineItem{}, err
	}

	it := domain.NewItem(id, in, order, 0, s.opts.Now())
	res, err := tx.ExecContext(ctx, `
		INSERT INTO routine_items (id, name, url, description, sort_order, click_count, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		it.ID, it.Name, it.URL, nullable(it.Description), it.Order, it.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("creating item: %w", err)
	}
	if it.Seq, err = res.LastInsertId(); err != nil {
		return domain.RoutineItem{}, fmt.Errorf("reading item seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.RoutineItem{}, fmt.Errorf("committing item: %w", err)
	}
	return it, nil
}

// Update applies a partial update inside one transaction.
func (s *Store) Update(ctx context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := getItem(ctx, tx, id)
	if err != nil {
		return domain.RoutineItem{}, err
	}
	it := domain.ApplyUpdate(existing, in)

	_, err = tx.ExecContext(ctx, `
		UPDATE routine_items SET name = ?, url = ?, description = ?, sort_order = ?
		WHERE id = ?`,
		it.Name, it.URL, nullable(it.Description), it.Order, id,
	)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("updating item %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return domain.RoutineItem{}, fmt.Errorf("committing item %s: %w", id, err)
	}
	return it, nil
}

// Delete removes an item by ID.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routine_items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item %s: %w", id, err)
	}
	return n > 0, nil
}

// IncrementClick bumps click_count in a single statement.
func (s *Store) IncrementClick(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE routine_items SET click_count = click_count + 1 WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("incrementing clicks for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("incrementing clicks for %s: %w", id, err)
	}
	return n > 0, nil
}

// Reorder rewrites sort_order for every item inside one transaction.
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rows []row
	if err := tx.SelectContext(ctx, &rows, "SELECT "+selectColumns+" FROM routine_items"); err != nil {
		return fmt.Errorf("querying items: %w", err)
	}
	items := make([]domain.RoutineItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}

	plan := domain.PlanReorder(items, ids)

	stmt, err := tx.PreparexContext(ctx, "UPDATE routine_items SET sort_order = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing reorder statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range items {
		order := plan[it.ID]
		if order == it.Order {
			continue
		}
		if _, err := stmt.ExecContext(ctx, order, it.ID); err != nil {
			return fmt.Errorf("reordering item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM routine_items"); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// Ping checks the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// freshID returns a generated ID no row uses yet.
func (s *Store) freshID(ctx context.Context, tx *sqlx.Tx) (string, error) {
	for {
		id := s.opts.NewID()
		var n int
		if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM routine_items WHERE id = ?", id); err != nil {
			return "", fmt.Errorf("checking item id: %w", err)
		}
		if n == 0 {
			return id, nil
		}
	}
}

func getItem(ctx context.Context, q sqlx.QueryerContext, id string) (domain.RoutineItem, error) {
	var r row
	err := sqlx.GetContext(ctx, q, &r, "SELECT "+selectColumns+" FROM routine_items WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoutineItem{}, domain.NewNotFound(id)
		}
		return domain.RoutineItem{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	return r.item(), nil
}
