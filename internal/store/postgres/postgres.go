// Package postgres stores routine items in PostgreSQL.
//
// Migrations are embedded and applied with goose on Open. Creates and
// reorders serialize on a transaction-scoped advisory lock, updates lock
// their row, and click increments are a single UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MrSnakeDoc/routine/internal/connect"
	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
	"github.com/MrSnakeDoc/routine/internal/store"
)

//go:embed migrations
var embedMigrations embed.FS

// itemsLockKey guards create and reorder ("rout").
const itemsLockKey int64 = 0x726f7574

const selectColumns = `seq, id, name, url, description, sort_order, click_count, created_at`

// Store implements store.Store on PostgreSQL.
type Store struct {
	db   *sql.DB
	opts store.Options
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn, waits for the server to answer, and applies pending migrations.
func Open(ctx context.Context, dsn string, opts store.Options, retry connect.Options, log logger.Logger) (*Store, error) {
	if err := retry.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	if err := connect.WithRetry(ctx, "postgres", redactedTarget(dsn), db.PingContext, retry, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("postgres migrations applied")

	return NewStore(db, opts), nil
}

// NewStore wraps an already migrated database. The store takes ownership of db.
func NewStore(db *sql.DB, opts store.Options) *Store {
	return &Store{db: db, opts: opts.WithDefaults()}
}

// Migrate runs all pending goose migrations from the embedded SQL files.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// redactedTarget keeps host, port and database out of a DSN, dropping credentials.
func redactedTarget(dsn string) string {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "postgres"
	}
	return cfg.Host + ":" + strconv.Itoa(int(cfg.Port)) + "/" + cfg.Database
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (domain.RoutineItem, error) {
	var (
		it          domain.RoutineItem
		description sql.NullString
		createdAt   time.Time
	)
	err := sc.Scan(&it.Seq, &it.ID, &it.Name, &it.URL, &description, &it.Order, &it.ClickCount, &createdAt)
	if err != nil {
		return domain.RoutineItem{}, err
	}
	if description.Valid {
		d := description.String
		it.Description = &d
	}
	it.CreatedAt = createdAt.UTC()
	return it, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryItems(ctx context.Context, q querier, query string, args ...any) ([]domain.RoutineItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.RoutineItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func getItem(ctx context.Context, q querier, query, id string) (domain.RoutineItem, error) {
	it, err := scanItem(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoutineItem{}, domain.NewNotFound(id)
		}
		return domain.RoutineItem{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	return it, nil
}

// List returns all items ordered by sort_order then insertion.
func (s *Store) List(ctx context.Context) ([]domain.RoutineItem, error) {
	return queryItems(ctx, s.db, "SELECT "+selectColumns+" FROM routine_items ORDER BY sort_order, seq")
}

// Get retrieves a single item by its ID.
func (s *Store) Get(ctx context.Context, id string) (domain.RoutineItem, error) {
	return getItem(ctx, s.db, "SELECT "+selectColumns+" FROM routine_items WHERE id = $1", id)
}

// Create inserts a new item while holding the items advisory lock.
func (s *Store) Create(ctx context.Context, in domain.CreateInput) (domain.RoutineItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", itemsLockKey); err != nil {
		return domain.RoutineItem{}, fmt.Errorf("acquiring items lock: %w", err)
	}

	var order int
	if in.Order != nil {
		order = *in.Order
	} else {
		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx, "SELECT MAX(sort_order) FROM routine_items").Scan(&maxOrder); err != nil {
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
	err = tx.QueryRowContext(ctx, `
		INSERT INTO routine_items (id, name, url, description, sort_order, click_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING seq`,
		it.ID, it.Name, it.URL, nullable(it.Description), it.Order, it.CreatedAt,
	).Scan(&it.Seq)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("creating item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.RoutineItem{}, fmt.Errorf("committing item: %w", err)
	}
	return it, nil
}

// Update applies a partial update to a row locked FOR UPDATE.
func (s *Store) Update(ctx context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := getItem(ctx, tx, "SELECT "+selectColumns+" FROM routine_items WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return domain.RoutineItem{}, err
	}
	it := domain.ApplyUpdate(existing, in)

	_, err = tx.ExecContext(ctx, `
		UPDATE routine_items SET name = $1, url = $2, description = $3, sort_order = $4
		WHERE id = $5`,
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
	res, err := s.db.ExecContext(ctx, "DELETE FROM routine_items WHERE id = $1", id)
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
		"UPDATE routine_items SET click_count = click_count + 1 WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("incrementing clicks for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("incrementing clicks for %s: %w", id, err)
	}
	return n > 0, nil
}

// Reorder rewrites sort_order for every item while holding the items advisory lock.
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", itemsLockKey); err != nil {
		return fmt.Errorf("acquiring items lock: %w", err)
	}

	items, err := queryItems(ctx, tx, "SELECT "+selectColumns+" FROM routine_items FOR UPDATE")
	if err != nil {
		return err
	}

	plan := domain.PlanReorder(items, ids)
	for _, it := range items {
		order := plan[it.ID]
		if order == it.Order {
			continue
		}
		if _, err := tx.ExecContext(ctx, "UPDATE routine_items SET sort_order = $1 WHERE id = $2", order, it.ID); err != nil {
			return fmt.Errorf("reordering item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routine_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// freshID returns a generated ID no row uses yet.
func (s *Store) freshID(ctx context.Context, tx *sql.Tx) (string, error) {
	for {
		id := s.opts.NewID()
		var taken bool
		err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM routine_items WHERE id = $1)", id).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("checking item id: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
}
