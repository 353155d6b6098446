package evalia

import (
	"context"

	"github.com/evalia-ai/evalia/internal/evaluation"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
	"github.com/evalia-ai/evalia/pkg/logging"
)

// timeoutMessage is the error message of an evaluation that ran out of time.
const timeoutMessage = "Timeout during evaluation"

// errSettled marks a job whose submission already has a final status.
var errSettled = errors.New("submission already settled")

// handleJob evaluates one queued submission. ctx carries the event's
// evaluation timeout; results are written even when it has expired.
func (c *client) handleJob(ctx context.Context, job evaluation.Job) error {
	ctx = logging.WithSubmission(logging.WithEvent(c.logContext(ctx), job.EventID), job.SubmissionID)
	log := logging.FromContext(ctx)
	persist := context.WithoutCancel(ctx)

	_, err := c.store.UpdateSubmission(persist, job.SubmissionID, func(s *competitions.Submission) error {
		if s.Status.Terminal() {
			return errSettled
		}
		s.Status = competitions.SubmissionProcessing
		return nil
	})
	switch {
	case errors.IsNotFound(err):
		log.Debug().Msg("Submission deleted before evaluation")
		return nil
	case errors.Is(err, errSettled):
		log.Debug().Msg("Submission already evaluated")
		return nil
	case err != nil:
		return err
	}

	res, err := c.evaluator.Evaluate(ctx, job)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = timeoutMessage
		}
		if _, ferr := c.fail(persist, job.SubmissionID, msg); ferr != nil {
			return ferr
		}
		return err
	}

	s, err := c.record(persist, job, res)
	if err != nil {
		return err
	}
	if s == nil {
		log.Debug().Msg("Submission deleted during evaluation")
		return nil
	}
	log.Info().Float64("score", *s.Score).Int("rank", *s.Rank).Msg("Submission evaluated")
	return nil
}

// record stores a successful evaluation: the submission, the submitter's
// standing and the event's best score. It returns nil when the submission
// was deleted while it was being evaluated.
func (c *client) record(ctx context.Context, job evaluation.Job, res evaluation.Result) (*competitions.Submission, error) {
	unlock := c.locks.Lock(boardLock(job.EventID))
	defer unlock()

	// DeleteSubmission holds the same lock, so the submission cannot go
	// away between this check and the writes below.
	if _, err := c.store.GetSubmission(ctx, job.SubmissionID); err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	e, err := c.store.GetEvent(ctx, job.EventID)
	if err != nil {
		return nil, err
	}
	dir := e.Direction()

	user, err := c.store.GetUser(ctx, job.UserID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	_, err = c.store.UpsertStanding(ctx, e.ID, job.UserID, func(st *competitions.Standing) error {
		if user != nil {
			st.UserName, st.UserAvatar = user.Name, user.Avatar
		}
		st.Offer(res.Score, res.Metrics, dir)
		return nil
	})
	if err != nil {
		return nil, err
	}

	standings, err := c.store.ListStandings(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	rank := leaderboard.Position(dir, leaderboard.Rank(dir, standings), job.UserID, res.Score)

	improved := false
	updated, err := c.store.UpdateEvent(ctx, e.ID, func(e *competitions.Event) error {
		if e.Stats.BestScore == nil || dir.Better(res.Score, *e.Stats.BestScore) {
			score := res.Score
			e.Stats.BestScore = &score
			improved = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	s, err := c.store.UpdateSubmission(ctx, job.SubmissionID, func(s *competitions.Submission) error {
		score := res.Score
		s.Status = competitions.SubmissionEvaluated
		s.Score = &score
		s.Rank = &rank
		s.Metrics = res.Metrics
		s.ErrorMessage = ""
		s.EvaluatedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.hooks.submissionEvaluated(s)
	if improved {
		c.hooks.eventUpdated(updated)
	}
	return s, nil
}

// boardLock serializes writes to the leaderboard of an event.
func boardLock(eventID string) string { return "board:" + eventID }

// fail marks a submission as errored.
func (c *client) fail(ctx context.Context, id, message string) (*competitions.Submission, error) {
	now := c.now()
	s, err := c.store.UpdateSubmission(ctx, id, func(s *competitions.Submission) error {
		s.Status = competitions.SubmissionError
		s.ErrorMessage = message
		s.EvaluatedAt = &now
		return nil
	})
	if errors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logging.FromContext(c.logContext(ctx)).Warn().Str("reason", message).Msg("Submission evaluation failed")
	c.hooks.submissionFailed(s)
	return s, nil
}
