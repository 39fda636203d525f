package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vegakash/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

const selectColumns = `SELECT id, title, category, amount_cents, date, description, created_at, updated_at FROM expenses`

// MemoryDSN names a shared in-memory database that lives as long as one
// connection to it stays open. Distinct names give distinct databases.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dsn and
// applies pending migrations.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create stores a normalized expense and returns it with id and timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := r.now()
	e.CreatedAt = now
	e.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (title, category, amount_cents, date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Title, string(e.Category), e.Amount.Cents, e.Date.String(), nullString(e.Description),
		now.Format(timestampLayout), now.Format(timestampLayout))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read inserted id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return e, nil
}

// Get returns the expense with the given id or core.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// Update applies p to the stored expense inside one transaction.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, p core.Patch) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := scanExpense(tx.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense %d: %w", id, err)
	}

	updated, err := p.Apply(current, r.now())
	if err != nil {
		return core.Expense{}, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses SET title = ?, category = ?, amount_cents = ?, date = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		updated.Title, string(updated.Category), updated.Amount.Cents, updated.Date.String(),
		nullString(updated.Description), updated.UpdatedAt.Format(timestampLayout), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated in SQLite", "id", id)
	return updated, nil
}

// Delete removes the expense with the given id or returns core.ErrNotFound.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

// List returns one page of expenses matching f.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]core.Expense, error) {
	clause, args := f.build()
	out, err := r.query(ctx, selectColumns+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// All returns every stored expense, oldest date first.
func (r *SQLiteRepository) All(ctx context.Context) ([]core.Expense, error) {
	out, err := r.query(ctx, selectColumns+` ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	return out, nil
}

// Between returns expenses dated within [from, to], oldest first.
func (r *SQLiteRepository) Between(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	out, err := r.query(ctx, selectColumns+` WHERE date >= ? AND date <= ? ORDER BY date ASC, id ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses between %s and %s: %w", from, to, err)
	}
	return out, nil
}

// Categories returns the distinct categories currently in use, sorted.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM expenses WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                core.Expense
		category, date   string
		desc             sql.NullString
		created, updated string
	)
	if err := s.Scan(&e.ID, &e.Title, &category, &e.Amount.Cents, &date, &desc, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d has bad date %q: %w", e.ID, date, err)
	}
	e.Date = d

	if desc.Valid {
		v := desc.String
		e.Description = &v
	}
	if e.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d has bad created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(timestampLayout, updated); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d has bad updated_at: %w", e.ID, err)
	}
	return e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
