package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

// SQLStore persists reservations in the single reservations table.  The same
// queries serve SQLite, MySQL and PostgreSQL; sqlx rebinds placeholders for
// the connection's driver.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore returns a store bound to db.  The schema must already exist
// (see database.Migrate).
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const selectColumns = `SELECT id, name, email, date, time, note, created_at, updated_at FROM reservations`

func (s *SQLStore) List(ctx context.Context, f model.Filter) ([]model.Reservation, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Date != "" {
		where = append(where, "date = ?")
		args = append(args, f.Date)
	}
	if f.Name != "" {
		where = append(where, "name = ?")
		args = append(args, f.Name)
	}
	q := selectColumns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	out := []model.Reservation{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("%w: list reservations: %w", ErrPersistence, err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.GetContext(ctx, &r, s.db.Rebind(selectColumns+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: get reservation %s: %w", ErrPersistence, id, err)
	}
	return r, nil
}

func (s *SQLStore) Insert(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	const q = `INSERT INTO reservations (id, name, email, date, time, note, created_at, updated_at)
VALUES (:id, :name, :email, :date, :time, :note, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, r); err != nil {
		return model.Reservation{}, fmt.Errorf("%w: insert reservation: %w", ErrPersistence, err)
	}
	return r, nil
}

func (s *SQLStore) Update(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var createdAt time.Time
	err = tx.GetContext(ctx, &createdAt, tx.Rebind(`SELECT created_at FROM reservations WHERE id = ?`), r.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: load reservation %s: %w", ErrPersistence, r.ID, err)
	}
	r.CreatedAt = createdAt
	r.UpdatedAt = s.now()

	const q = `UPDATE reservations SET name = :name, email = :email, date = :date, time = :time,
note = :note, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
		return model.Reservation{}, fmt.Errorf("%w: update reservation %s: %w", ErrPersistence, r.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	committed = true
	return r, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM reservations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%w: delete reservation %s: %w", ErrPersistence, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete reservation %s: %w", ErrPersistence, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
