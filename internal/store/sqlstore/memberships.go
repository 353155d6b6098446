package sqlstore

import (
	"context"
	"database/sql"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// AddMember implements store.MembershipStore.
func (s *Store) AddMember(ctx context.Context, m competitions.Membership) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO memberships (event_id, user_id, joined_at) VALUES (?, ?, ?)`,
		m.EventID, m.UserID, nanos(m.JoinedAt))
	if isUniqueViolation(err) {
		return errors.NewConflictError(store.ResourceMembership, m.EventID, "already joined")
	}
	return errors.WrapResource("create", store.ResourceMembership, m.EventID, err)
}

// RemoveMember implements store.MembershipStore.
func (s *Store) RemoveMember(ctx context.Context, eventID, userID string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM memberships WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return errors.WrapResource("delete", store.ResourceMembership, eventID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(store.ResourceMembership, eventID+"/"+userID)
	}
	return nil
}

// GetMember implements store.MembershipStore.
func (s *Store) GetMember(ctx context.Context, eventID, userID string) (*competitions.Membership, error) {
	var joined int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT joined_at FROM memberships WHERE event_id = ? AND user_id = ?`), eventID, userID).
		Scan(&joined)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(store.ResourceMembership, eventID+"/"+userID)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", store.ResourceMembership, eventID, err)
	}
	return &competitions.Membership{EventID: eventID, UserID: userID, JoinedAt: fromNanos(joined)}, nil
}

// ListMembers implements store.MembershipStore.
func (s *Store) ListMembers(ctx context.Context, eventID string) ([]competitions.Membership, error) {
	return s.listMembers(ctx, `event_id = ?`, eventID)
}

// ListMemberships implements store.MembershipStore.
func (s *Store) ListMemberships(ctx context.Context, userID string) ([]competitions.Membership, error) {
	return s.listMembers(ctx, `user_id = ?`, userID)
}

func (s *Store) listMembers(ctx context.Context, where string, arg string) ([]competitions.Membership, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT event_id, user_id, joined_at FROM memberships WHERE `+where+` ORDER BY joined_at, event_id, user_id`), arg)
	if err != nil {
		return nil, errors.WrapResource("list", store.ResourceMembership, arg, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]competitions.Membership, 0)
	for rows.Next() {
		var m competitions.Membership
		var joined int64
		if err := rows.Scan(&m.EventID, &m.UserID, &joined); err != nil {
			return nil, errors.WrapResource("scan", store.ResourceMembership, arg, err)
		}
		m.JoinedAt = fromNanos(joined)
		out = append(out, m)
	}
	return out, rows.Err()
}
