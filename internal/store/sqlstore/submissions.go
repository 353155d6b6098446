package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

const submissionColumns = `artifact_key, data`

func scanSubmission(sc interface{ Scan(...any) error }) (*competitions.Submission, error) {
	var key, data string
	if err := sc.Scan(&key, &data); err != nil {
		return nil, err
	}
	var sub competitions.Submission
	if err := decode(data, &sub); err != nil {
		return nil, err
	}
	sub.ArtifactKey = key
	return &sub, nil
}

// CreateSubmission implements store.SubmissionStore.
func (s *Store) CreateSubmission(ctx context.Context, sub *competitions.Submission) error {
	data, err := encode(sub)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.db,
		`INSERT INTO submissions (id, event_id, user_id, status, submitted_at, artifact_key, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.EventID, sub.UserID, string(sub.Status), nanos(sub.SubmittedAt), sub.ArtifactKey, data)
	if isUniqueViolation(err) {
		return errors.NewConflictError(store.ResourceSubmission, sub.ID, "id already exists")
	}
	return errors.WrapResource("create", store.ResourceSubmission, sub.ID, err)
}

// GetSubmission implements store.SubmissionStore.
func (s *Store) GetSubmission(ctx context.Context, id string) (*competitions.Submission, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`), id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(store.ResourceSubmission, id)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", store.ResourceSubmission, id, err)
	}
	return sub, nil
}

// ListSubmissions implements store.SubmissionStore.
func (s *Store) ListSubmissions(ctx context.Context, q competitions.SubmissionQuery) ([]*competitions.Submission, error) {
	var where []string
	var args []any
	if q.EventID != "" {
		where = append(where, "event_id = ?")
		args = append(args, q.EventID)
	}
	if q.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Status != "" && !strings.EqualFold(string(q.Status), competitions.All) {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.WrapResource("list", store.ResourceSubmission, "", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*competitions.Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, errors.WrapResource("scan", store.ResourceSubmission, "", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// UpdateSubmission implements store.SubmissionStore.
func (s *Store) UpdateSubmission(ctx context.Context, id string, fn func(*competitions.Submission) error) (*competitions.Submission, error) {
	var out *competitions.Submission
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.rebind(s.forUpdate(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`)), id)
		sub, err := scanSubmission(row)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(store.ResourceSubmission, id)
		}
		if err != nil {
			return errors.WrapResource("fetch", store.ResourceSubmission, id, err)
		}
		eventID, userID := sub.EventID, sub.UserID
		if err := fn(sub); err != nil {
			return err
		}
		sub.ID, sub.EventID, sub.UserID = id, eventID, userID

		data, err := encode(sub)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE submissions SET status = ?, artifact_key = ?, data = ? WHERE id = ?`,
			string(sub.Status), sub.ArtifactKey, data, id)
		if err != nil {
			return errors.WrapResource("update", store.ResourceSubmission, id, err)
		}
		out = sub
		return nil
	})
	return out, err
}

// DeleteSubmission implements store.SubmissionStore.
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return errors.WrapResource("delete", store.ResourceSubmission, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(store.ResourceSubmission, id)
	}
	return nil
}
