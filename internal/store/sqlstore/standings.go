package sqlstore

import (
	"context"
	"database/sql"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// GetStanding implements store.StandingStore.
func (s *Store) GetStanding(ctx context.Context, eventID, userID string) (*competitions.Standing, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT data FROM standings WHERE event_id = ? AND user_id = ?`), eventID, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(store.ResourceStanding, eventID+"/"+userID)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", store.ResourceStanding, eventID, err)
	}
	var st competitions.Standing
	return &st, decode(data, &st)
}

// ListStandings implements store.StandingStore.
func (s *Store) ListStandings(ctx context.Context, eventID string) ([]*competitions.Standing, error) {
	query := `SELECT data FROM standings`
	var args []any
	if eventID != "" {
		query += ` WHERE event_id = ?`
		args = append(args, eventID)
	}
	query += ` ORDER BY event_id, user_id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.WrapResource("list", store.ResourceStanding, eventID, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*competitions.Standing, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.WrapResource("scan", store.ResourceStanding, eventID, err)
		}
		var st competitions.Standing
		if err := decode(data, &st); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// UpsertStanding implements store.StandingStore.
func (s *Store) UpsertStanding(ctx context.Context, eventID, userID string, fn func(*competitions.Standing) error) (*competitions.Standing, error) {
	st := &competitions.Standing{EventID: eventID, UserID: userID}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx,
			s.rebind(s.forUpdate(`SELECT data FROM standings WHERE event_id = ? AND user_id = ?`)), eventID, userID).
			Scan(&data)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return errors.WrapResource("fetch", store.ResourceStanding, eventID, err)
		default:
			if err := decode(data, st); err != nil {
				return err
			}
		}
		if err := fn(st); err != nil {
			return err
		}
		st.EventID, st.UserID = eventID, userID

		next, err := encode(st)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `INSERT INTO standings (event_id, user_id, data) VALUES (?, ?, ?)
			ON CONFLICT (event_id, user_id) DO UPDATE SET data = excluded.data`, eventID, userID, next)
		return errors.WrapResource("upsert", store.ResourceStanding, eventID, err)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStanding implements store.StandingStore.
func (s *Store) DeleteStanding(ctx context.Context, eventID, userID string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM standings WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return errors.WrapResource("delete", store.ResourceStanding, eventID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(store.ResourceStanding, eventID+"/"+userID)
	}
	return nil
}
