package sqlstore

import (
	"context"
	"database/sql"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

const eventColumns = `access_code, data`

func scanEvent(sc interface{ Scan(...any) error }) (*competitions.Event, error) {
	var code, data string
	if err := sc.Scan(&code, &data); err != nil {
		return nil, err
	}
	var e competitions.Event
	if err := decode(data, &e); err != nil {
		return nil, err
	}
	e.AccessCode = code
	return &e, nil
}

// CreateEvent implements store.EventStore.
func (s *Store) CreateEvent(ctx context.Context, e *competitions.Event) error {
	c := e.Clone()
	c.MyParticipation = nil
	data, err := encode(c)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.db,
		`INSERT INTO events (id, slug, access_code, created_at, data) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Slug, c.AccessCode, nanos(c.CreatedAt), data)
	if isUniqueViolation(err) {
		return errors.NewConflictError(store.ResourceEvent, c.Slug, "id or slug already exists")
	}
	return errors.WrapResource("create", store.ResourceEvent, c.ID, err)
}

func (s *Store) getEventBy(ctx context.Context, column, value string) (*competitions.Event, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+eventColumns+` FROM events WHERE `+column+` = ?`), value)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(store.ResourceEvent, value)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", store.ResourceEvent, value, err)
	}
	return e, nil
}

// GetEvent implements store.EventStore.
func (s *Store) GetEvent(ctx context.Context, id string) (*competitions.Event, error) {
	return s.getEventBy(ctx, "id", id)
}

// GetEventBySlug implements store.EventStore.
func (s *Store) GetEventBySlug(ctx context.Context, slug string) (*competitions.Event, error) {
	return s.getEventBy(ctx, "slug", slug)
}

// ListEvents implements store.EventStore.
func (s *Store) ListEvents(ctx context.Context) ([]*competitions.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.WrapResource("list", store.ResourceEvent, "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*competitions.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errors.WrapResource("scan", store.ResourceEvent, "", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEvent implements store.EventStore.
func (s *Store) UpdateEvent(ctx context.Context, id string, fn func(*competitions.Event) error) (*competitions.Event, error) {
	var out *competitions.Event
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.rebind(s.forUpdate(`SELECT `+eventColumns+` FROM events WHERE id = ?`)), id)
		e, err := scanEvent(row)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(store.ResourceEvent, id)
		}
		if err != nil {
			return errors.WrapResource("fetch", store.ResourceEvent, id, err)
		}
		if err := fn(e); err != nil {
			return err
		}
		e.ID = id
		e.MyParticipation = nil

		data, err := encode(e)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE events SET slug = ?, access_code = ?, data = ? WHERE id = ?`,
			e.Slug, e.AccessCode, data, id)
		if isUniqueViolation(err) {
			return errors.NewConflictError(store.ResourceEvent, e.Slug, "slug already exists")
		}
		if err != nil {
			return errors.WrapResource("update", store.ResourceEvent, id, err)
		}
		out = e
		return nil
	})
	return out, err
}

// DeleteEvent implements store.EventStore.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"memberships", "standings", "submissions"} {
			if _, err := s.exec(ctx, tx, `DELETE FROM `+table+` WHERE event_id = ?`, id); err != nil {
				return errors.WrapResource("delete", table, id, err)
			}
		}
		res, err := s.exec(ctx, tx, `DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return errors.WrapResource("delete", store.ResourceEvent, id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewNotFoundError(store.ResourceEvent, id)
		}
		return nil
	})
}
