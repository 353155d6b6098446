package sqlstore

import (
	"context"
	"database/sql"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// CreateUser implements store.UserStore.
func (s *Store) CreateUser(ctx context.Context, u *competitions.User, passwordHash string) error {
	c := *u
	c.Email = competitions.NormalizeEmail(u.Email)
	data, err := encode(&c)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.db,
		`INSERT INTO users (id, email, password_hash, created_at, data) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Email, passwordHash, nanos(c.CreatedAt), data)
	if isUniqueViolation(err) {
		return errors.NewConflictError(store.ResourceUser, c.Email, "email already registered")
	}
	return errors.WrapResource("create", store.ResourceUser, c.ID, err)
}

// GetUser implements store.UserStore.
func (s *Store) GetUser(ctx context.Context, id string) (*competitions.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM users WHERE id = ?`), id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(store.ResourceUser, id)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", store.ResourceUser, id, err)
	}
	var u competitions.User
	return &u, decode(data, &u)
}

// GetUserByEmail implements store.UserStore.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*competitions.User, string, error) {
	email = competitions.NormalizeEmail(email)
	var data, hash string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data, password_hash FROM users WHERE email = ?`), email).
		Scan(&data, &hash)
	if err == sql.ErrNoRows {
		return nil, "", errors.NewNotFoundError(store.ResourceUser, email)
	}
	if err != nil {
		return nil, "", errors.WrapResource("fetch", store.ResourceUser, email, err)
	}
	var u competitions.User
	if err := decode(data, &u); err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

// ListUsers implements store.UserStore.
func (s *Store) ListUsers(ctx context.Context) ([]*competitions.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.WrapResource("list", store.ResourceUser, "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*competitions.User
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.WrapResource("scan", store.ResourceUser, "", err)
		}
		var u competitions.User
		if err := decode(data, &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// UpdateUser implements store.UserStore. The email cannot be changed.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*competitions.User) error) (*competitions.User, error) {
	var out competitions.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx, s.rebind(s.forUpdate(`SELECT data FROM users WHERE id = ?`)), id).Scan(&data)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(store.ResourceUser, id)
		}
		if err != nil {
			return errors.WrapResource("fetch", store.ResourceUser, id, err)
		}
		if err := decode(data, &out); err != nil {
			return err
		}
		origID, origEmail := out.ID, out.Email
		if err := fn(&out); err != nil {
			return err
		}
		out.ID, out.Email = origID, origEmail

		next, err := encode(&out)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE users SET data = ? WHERE id = ?`, next, id)
		return errors.WrapResource("update", store.ResourceUser, id, err)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
