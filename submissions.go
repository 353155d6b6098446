package evalia

import (
	"context"
	"io"
	"time"

	"github.com/evalia-ai/evalia/internal/artifacts"
	"github.com/evalia-ai/evalia/internal/evaluation"
	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
	"github.com/evalia-ai/evalia/pkg/logging"
)

// Submissions handles model uploads.
type Submissions interface {
	// Submit uploads a model to an event and queues it for evaluation.
	Submit(ctx context.Context, user *competitions.User, eventID string, upload Upload) (*competitions.Submission, error)

	// ListSubmissions returns submissions visible to viewer, newest first.
	ListSubmissions(ctx context.Context, viewer *competitions.User, query competitions.SubmissionQuery) ([]*competitions.Submission, error)

	// GetSubmission returns one submission.
	GetSubmission(ctx context.Context, viewer *competitions.User, id string) (*competitions.Submission, error)

	// DeleteSubmission removes a submission and its artifact.
	DeleteSubmission(ctx context.Context, actor *competitions.User, id string) error
}

// Upload is a model file sent for evaluation.
type Upload struct {
	FileName    string
	Size        int64
	Content     io.Reader
	Description string
}

// Submit implements Submissions. The checks run in a fixed order and
// nothing is stored unless all of them pass: the event accepts
// submissions, the user joined it, the file fits the rules, then the daily
// and total quotas.
func (c *client) Submit(ctx context.Context, user *competitions.User, eventID string, up Upload) (*competitions.Submission, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	e, err := c.lookupEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.AcceptsSubmissions() {
		return nil, errors.NewConflictError(store.ResourceEvent, e.ID, "event is "+string(e.Status)+" and does not accept submissions")
	}
	if _, err := c.store.GetMember(ctx, e.ID, user.ID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewForbiddenError("submit to", "event "+e.ID, "join the event first")
		}
		return nil, err
	}
	if err := e.Rules.CheckFile(up.FileName, up.Size); err != nil {
		return nil, err
	}
	if up.Content == nil {
		return nil, errors.NewValidationError("file", nil, "file is empty")
	}

	unlock := c.locks.Lock("submit:" + e.ID + ":" + user.ID)
	defer unlock()

	now := c.now()
	if err := c.checkQuotas(ctx, e, user.ID, now); err != nil {
		return nil, err
	}

	id := c.newID()
	obj, err := c.storeArtifact(ctx, e, id, up)
	if err != nil {
		return nil, err
	}

	s := &competitions.Submission{
		ID:          id,
		EventID:     e.ID,
		EventTitle:  e.Title,
		UserID:      user.ID,
		UserName:    user.Name,
		FileName:    up.FileName,
		FileSize:    obj.Size,
		Description: up.Description,
		ArtifactKey: obj.Key,
		Checksum:    obj.Checksum,
		Status:      competitions.SubmissionPending,
		SubmittedAt: now,
	}
	if err := c.store.CreateSubmission(ctx, s); err != nil {
		_ = c.artifacts.Delete(ctx, obj.Key)
		return nil, err
	}

	updated, err := c.store.UpdateEvent(ctx, e.ID, func(e *competitions.Event) error {
		e.Stats.SubmissionsCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	_, err = c.store.UpsertStanding(ctx, e.ID, user.ID, func(st *competitions.Standing) error {
		st.UserName = user.Name
		st.UserAvatar = user.Avatar
		st.SubmissionsCount++
		st.LastSubmission = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logging.WithSubmission(logging.WithEvent(c.logContext(ctx), e.ID), s.ID)
	log := logging.FromContext(ctx)
	log.Info().Int64("size", s.FileSize).Str("file", s.FileName).Msg("Submission received")
	c.hooks.submissionCreated(s)
	c.hooks.eventUpdated(updated)

	if err := c.queue.Enqueue(ctx, c.job(updated, s)); err != nil {
		log.Error().Err(err).Msg("Failed to queue evaluation")
		failed, ferr := c.fail(ctx, s.ID, "Evaluation queue unavailable")
		if ferr != nil {
			return nil, ferr
		}
		return failed, errors.WrapResource("enqueue", store.ResourceSubmission, s.ID, err)
	}
	return s, nil
}

// checkQuotas enforces the daily and total submission limits. Days are UTC.
func (c *client) checkQuotas(ctx context.Context, e *competitions.Event, userID string, now time.Time) error {
	subs, err := c.store.ListSubmissions(ctx, competitions.SubmissionQuery{EventID: e.ID, UserID: userID})
	if err != nil {
		return err
	}
	today := 0
	for _, s := range subs {
		if competitions.SameDay(s.SubmittedAt, now) {
			today++
		}
	}
	if today >= e.Rules.MaxSubmissionsPerDay {
		return errors.NewQuotaError("daily submissions", e.Rules.MaxSubmissionsPerDay)
	}
	if len(subs) >= e.Rules.MaxSubmissionsTotal {
		return errors.NewQuotaError("total submissions", e.Rules.MaxSubmissionsTotal)
	}
	return nil
}

// storeArtifact writes the upload, refusing content larger than the rules
// allow even when the declared size was within them.
func (c *client) storeArtifact(ctx context.Context, e *competitions.Event, id string, up Upload) (artifacts.Object, error) {
	limit := e.Rules.MaxFileSizeBytes()
	key := artifacts.Key(e.ID, id, up.FileName)
	obj, err := c.artifacts.Put(ctx, key, io.LimitReader(up.Content, limit+1))
	if err != nil {
		return artifacts.Object{}, err
	}
	if err := e.Rules.CheckFile(up.FileName, obj.Size); err != nil {
		_ = c.artifacts.Delete(ctx, key)
		return artifacts.Object{}, err
	}
	return obj, nil
}

// job builds the evaluation job of a submission.
func (c *client) job(e *competitions.Event, s *competitions.Submission) evaluation.Job {
	return evaluation.Job{
		SubmissionID: s.ID,
		EventID:      e.ID,
		UserID:       s.UserID,
		ArtifactKey:  s.ArtifactKey,
		FileSize:     s.FileSize,
		Metrics:      e.Metrics,
		Reference:    e.Clone().Stats.BestScore,
		Timeout:      time.Duration(e.Rules.TimeoutMinutes) * time.Minute,
		EnqueuedAt:   c.now(),
	}
}

// ListSubmissions implements Submissions. Participants only ever see their
// own submissions; the organizer of the queried event and admins see all.
func (c *client) ListSubmissions(ctx context.Context, viewer *competitions.User, q competitions.SubmissionQuery) ([]*competitions.Submission, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	if q.Status != "" && q.Status != competitions.All && !q.Status.Valid() {
		return nil, errors.NewValidationError("status", q.Status, "unknown status")
	}
	if q.EventID != "" {
		e, err := c.lookupEvent(ctx, q.EventID)
		if err != nil {
			return nil, err
		}
		q.EventID = e.ID
		if !e.CanManage(viewer) {
			q.UserID = viewer.ID
		}
	} else if !viewer.IsAdmin() {
		q.UserID = viewer.ID
	}
	return c.store.ListSubmissions(ctx, q)
}

// GetSubmission implements Submissions.
func (c *client) GetSubmission(ctx context.Context, viewer *competitions.User, id string) (*competitions.Submission, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	s, err := c.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.UserID == viewer.ID || viewer.IsAdmin() {
		return s, nil
	}
	e, err := c.store.GetEvent(ctx, s.EventID)
	if err != nil {
		return nil, err
	}
	if !e.CanManage(viewer) {
		return nil, errors.NewForbiddenError("view", "submission "+id, "")
	}
	return s, nil
}

// DeleteSubmission implements Submissions. The event counters and the
// submitter's standing are adjusted; a deleted best score is replaced by
// the best remaining evaluated submission, and the event's best score is
// recomputed from the remaining leaderboard.
func (c *client) DeleteSubmission(ctx context.Context, actor *competitions.User, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	s, err := c.store.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	e, err := c.manage(ctx, actor, s.EventID, "delete submissions of")
	if err != nil {
		return err
	}

	unlock := c.locks.Lock("submit:" + e.ID + ":" + s.UserID)
	defer unlock()
	unlockBoard := c.locks.Lock(boardLock(e.ID))
	defer unlockBoard()

	// Re-read under the locks: an evaluation may have settled it meanwhile.
	if s, err = c.store.GetSubmission(ctx, id); err != nil {
		return err
	}
	if err := c.store.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	c.removeArtifact(ctx, s)

	remaining, err := c.store.ListSubmissions(ctx, competitions.SubmissionQuery{
		EventID: e.ID,
		UserID:  s.UserID,
		Status:  competitions.SubmissionEvaluated,
	})
	if err != nil {
		return err
	}
	dir := e.Direction()
	_, err = c.store.UpsertStanding(ctx, e.ID, s.UserID, func(st *competitions.Standing) error {
		if st.SubmissionsCount > 0 {
			st.SubmissionsCount--
		}
		if s.Score == nil || st.BestScore == nil || *st.BestScore != *s.Score {
			return nil
		}
		st.BestScore, st.Metrics = nil, nil
		for _, r := range remaining {
			if r.Score != nil {
				st.Offer(*r.Score, r.Metrics, dir)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	standings, err := c.store.ListStandings(ctx, e.ID)
	if err != nil {
		return err
	}
	var best *float64
	if board := leaderboard.Rank(dir, standings); len(board) > 0 {
		score := board[0].BestScore
		best = &score
	}
	updated, err := c.store.UpdateEvent(ctx, e.ID, func(e *competitions.Event) error {
		if e.Stats.SubmissionsCount > 0 {
			e.Stats.SubmissionsCount--
		}
		e.Stats.BestScore = best
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info().Str("submission_id", id).Str("event_id", e.ID).Str("actor_id", actor.ID).Msg("Submission deleted")
	c.hooks.eventUpdated(updated)
	return nil
}

// removeArtifact deletes the stored file of s, logging failures.
func (c *client) removeArtifact(ctx context.Context, s *competitions.Submission) {
	if s.ArtifactKey == "" {
		return
	}
	if err := c.artifacts.Delete(ctx, s.ArtifactKey); err != nil && !errors.IsNotFound(err) {
		c.logger.Warn().Err(err).Str("submission_id", s.ID).Msg("Failed to delete artifact")
	}
}
