package evalia

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
)

// Catalog handles the event catalogue and participation.
type Catalog interface {
	// ListEvents returns the events matching filter, newest first. Private
	// events are only listed for their members, organizer and admins.
	ListEvents(ctx context.Context, viewer *competitions.User, filter competitions.EventFilter) ([]*competitions.Event, error)

	// GetEvent returns an event by ID or slug. A private event is not
	// found for viewers who neither joined nor manage it.
	GetEvent(ctx context.Context, viewer *competitions.User, idOrSlug string) (*competitions.Event, error)

	// MyEvents returns the events user joined.
	MyEvents(ctx context.Context, user *competitions.User) ([]*competitions.Event, error)

	// CreateEvent creates an upcoming event organized by actor.
	CreateEvent(ctx context.Context, actor *competitions.User, draft competitions.EventDraft) (*competitions.Event, error)

	// UpdateEventStatus moves an event along its lifecycle.
	UpdateEventStatus(ctx context.Context, actor *competitions.User, id string, status competitions.EventStatus) (*competitions.Event, error)

	// SetFeatured marks an event as featured on the home page.
	SetFeatured(ctx context.Context, actor *competitions.User, id string, featured bool) (*competitions.Event, error)

	// DeleteEvent removes an event with all its participation data.
	DeleteEvent(ctx context.Context, actor *competitions.User, id string) error

	// JoinEvent registers user as a participant.
	JoinEvent(ctx context.Context, user *competitions.User, id, accessCode string) (*competitions.Event, error)

	// LeaveEvent withdraws user from an event.
	LeaveEvent(ctx context.Context, user *competitions.User, id string) (*competitions.Event, error)

	// ListParticipants returns the participants of an event.
	ListParticipants(ctx context.Context, actor *competitions.User, id string) ([]competitions.Participant, error)

	// ExcludeParticipant removes a participant from an event.
	ExcludeParticipant(ctx context.Context, actor *competitions.User, id, userID string) error
}

// ListEvents implements Catalog.
func (c *client) ListEvents(ctx context.Context, viewer *competitions.User, filter competitions.EventFilter) ([]*competitions.Event, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	joined, err := c.joinedSet(ctx, viewer)
	if err != nil {
		return nil, err
	}

	out := make([]*competitions.Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if !filter.Match(e) {
			continue
		}
		if e.IsPrivate && !joined[e.ID] && !e.CanManage(viewer) {
			continue
		}
		if err := c.decorate(ctx, viewer, e, joined[e.ID]); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// GetEvent implements Catalog.
func (c *client) GetEvent(ctx context.Context, viewer *competitions.User, idOrSlug string) (*competitions.Event, error) {
	e, err := c.lookupEvent(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	joined := false
	if viewer != nil {
		_, err := c.store.GetMember(ctx, e.ID, viewer.ID)
		switch {
		case err == nil:
			joined = true
		case !errors.IsNotFound(err):
			return nil, err
		}
	}
	if e.IsPrivate && !joined && !e.CanManage(viewer) {
		return nil, errors.NewNotFoundError(store.ResourceEvent, idOrSlug)
	}
	if err := c.decorate(ctx, viewer, e, joined); err != nil {
		return nil, err
	}
	return e, nil
}

// MyEvents implements Catalog.
func (c *client) MyEvents(ctx context.Context, user *competitions.User) ([]*competitions.Event, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	memberships, err := c.store.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*competitions.Event, 0, len(memberships))
	for _, m := range memberships {
		e, err := c.store.GetEvent(ctx, m.EventID)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := c.decorate(ctx, user, e, true); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// lookupEvent resolves an ID, falling back to a slug.
func (c *client) lookupEvent(ctx context.Context, idOrSlug string) (*competitions.Event, error) {
	e, err := c.store.GetEvent(ctx, idOrSlug)
	if errors.IsNotFound(err) {
		e, err = c.store.GetEventBySlug(ctx, idOrSlug)
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError(store.ResourceEvent, idOrSlug)
		}
	}
	return e, err
}

// joinedSet returns the IDs of the events viewer joined.
func (c *client) joinedSet(ctx context.Context, viewer *competitions.User) (map[string]bool, error) {
	joined := make(map[string]bool)
	if viewer == nil {
		return joined, nil
	}
	memberships, err := c.store.ListMemberships(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		joined[m.EventID] = true
	}
	return joined, nil
}

// decorate fills the viewer-specific participation of e. Anonymous viewers
// get none.
func (c *client) decorate(ctx context.Context, viewer *competitions.User, e *competitions.Event, joined bool) error {
	e.MyParticipation = nil
	if viewer == nil {
		return nil
	}
	p := &competitions.Participation{IsJoined: joined}
	e.MyParticipation = p
	if !joined {
		return nil
	}

	standings, err := c.store.ListStandings(ctx, e.ID)
	if err != nil {
		return err
	}
	for _, s := range standings {
		if s.UserID == viewer.ID {
			p.MySubmissionsCount = s.SubmissionsCount
			break
		}
	}
	if entry, ok := leaderboard.Find(leaderboard.Rank(e.Direction(), standings), viewer.ID); ok {
		score, rank := entry.BestScore, entry.Rank
		p.MyBestScore = &score
		p.MyRank = &rank
	}
	return nil
}

// CreateEvent implements Catalog.
func (c *client) CreateEvent(ctx context.Context, actor *competitions.User, draft competitions.EventDraft) (*competitions.Event, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.HasRole(competitions.RoleOrganizer) {
		return nil, errors.NewForbiddenError("create", "event", "organizer role required")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock("event-slugs")
	defer unlock()

	slug, err := c.uniqueSlug(ctx, draft.Title)
	if err != nil {
		return nil, err
	}
	organizer := competitions.Organizer{ID: actor.ID, Name: actor.Name, Avatar: actor.Avatar}
	e := draft.Event(c.newID(), slug, organizer, c.now())
	if err := c.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	c.logger.Info().Str("event_id", e.ID).Str("slug", e.Slug).Str("organizer_id", actor.ID).Msg("Event created")
	c.hooks.eventCreated(e)
	return e, nil
}

// uniqueSlug derives a slug from title that no event uses yet.
func (c *client) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := competitions.Slugify(title)
	if base == "" {
		base = "event"
	}
	slug := base
	for n := 2; ; n++ {
		_, err := c.store.GetEventBySlug(ctx, slug)
		if errors.IsNotFound(err) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// manage loads an event and checks that actor may manage it.
func (c *client) manage(ctx context.Context, actor *competitions.User, id, action string) (*competitions.Event, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	e, err := c.lookupEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.CanManage(actor) {
		return nil, errors.NewForbiddenError(action, "event "+e.ID, "only the organizer or an administrator may do this")
	}
	return e, nil
}

// UpdateEventStatus implements Catalog.
func (c *client) UpdateEventStatus(ctx context.Context, actor *competitions.User, id string, status competitions.EventStatus) (*competitions.Event, error) {
	e, err := c.manage(ctx, actor, id, "change the status of")
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errors.NewValidationError("status", status, "unknown status")
	}
	updated, err := c.store.UpdateEvent(ctx, e.ID, func(e *competitions.Event) error {
		if !e.Status.CanTransition(status) {
			return errors.NewConflictError(store.ResourceEvent, e.ID,
				fmt.Sprintf("cannot move from %s to %s", e.Status, status))
		}
		e.Status = status
		e.UpdatedAt = c.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("event_id", e.ID).Str("status", string(status)).Msg("Event status changed")
	c.hooks.eventUpdated(updated)
	return updated, nil
}

// SetFeatured implements Catalog.
func (c *client) SetFeatured(ctx context.Context, actor *competitions.User, id string, featured bool) (*competitions.Event, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, errors.NewForbiddenError("feature", "event", "administrator role required")
	}
	e, err := c.lookupEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := c.store.UpdateEvent(ctx, e.ID, func(e *competitions.Event) error {
		e.Featured = featured
		e.UpdatedAt = c.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.hooks.eventUpdated(updated)
	return updated, nil
}

// DeleteEvent implements Catalog.
func (c *client) DeleteEvent(ctx context.Context, actor *competitions.User, id string) error {
	e, err := c.manage(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	subs, err := c.store.ListSubmissions(ctx, competitions.SubmissionQuery{EventID: e.ID})
	if err != nil {
		return err
	}
	if err := c.store.DeleteEvent(ctx, e.ID); err != nil {
		return err
	}
	for _, s := range subs {
		c.removeArtifact(ctx, s)
	}
	c.logger.Info().Str("event_id", e.ID).Int("submissions", len(subs)).Msg("Event deleted")
	return nil
}

// JoinEvent implements Catalog.
func (c *client) JoinEvent(ctx context.Context, user *competitions.User, id, accessCode string) (*competitions.Event, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	e, err := c.lookupEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.Lock("members:" + e.ID)
	defer unlock()

	// Reload under the lock so the capacity check sees the latest count.
	if e, err = c.store.GetEvent(ctx, e.ID); err != nil {
		return nil, err
	}
	if !e.Joinable() {
		return nil, errors.NewConflictError(store.ResourceEvent, e.ID, "event is "+string(e.Status)+" and cannot be joined")
	}
	if e.IsPrivate && subtle.ConstantTimeCompare([]byte(strings.TrimSpace(accessCode)), []byte(e.AccessCode)) != 1 {
		return nil, errors.NewForbiddenError("join", "event "+e.ID, "invalid access code")
	}
	if e.Full() {
		return nil, errors.NewConflictError(store.ResourceEvent, e.ID, "event is full")
	}

	m := competitions.Membership{EventID: e.ID, UserID: user.ID, JoinedAt: c.now()}
	if err := c.store.AddMember(ctx, m); err != nil {
		return nil, err
	}
	updated, err := c.store.UpdateEvent(ctx, e.ID, func(e *competitions.Event) error {
		e.Stats.ParticipantsCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().Str("event_id", e.ID).Str("user_id", user.ID).Msg("User joined event")
	c.hooks.eventJoined(updated, user.ID)
	c.hooks.eventUpdated(updated)
	if err := c.decorate(ctx, user, updated, true); err != nil {
		return nil, err
	}
	return updated, nil
}

// LeaveEvent implements Catalog.
func (c *client) LeaveEvent(ctx context.Context, user *competitions.User, id string) (*competitions.Event, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	e, err := c.lookupEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := c.removeMember(ctx, e.ID, user.ID)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("event_id", e.ID).Str("user_id", user.ID).Msg("User left event")
	if err := c.decorate(ctx, user, updated, false); err != nil {
		return nil, err
	}
	return updated, nil
}

// removeMember deletes a membership and decrements the participant count,
// never below zero. Submissions and standings are kept.
func (c *client) removeMember(ctx context.Context, eventID, userID string) (*competitions.Event, error) {
	unlock := c.locks.Lock("members:" + eventID)
	defer unlock()

	if err := c.store.RemoveMember(ctx, eventID, userID); err != nil {
		return nil, err
	}
	updated, err := c.store.UpdateEvent(ctx, eventID, func(e *competitions.Event) error {
		if e.Stats.ParticipantsCount > 0 {
			e.Stats.ParticipantsCount--
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.hooks.eventLeft(updated, userID)
	c.hooks.eventUpdated(updated)
	return updated, nil
}

// ListParticipants implements Catalog.
func (c *client) ListParticipants(ctx context.Context, actor *competitions.User, id string) ([]competitions.Participant, error) {
	e, err := c.manage(ctx, actor, id, "list the participants of")
	if err != nil {
		return nil, err
	}
	members, err := c.store.ListMembers(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	standings, err := c.store.ListStandings(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*competitions.Standing, len(standings))
	for _, s := range standings {
		byUser[s.UserID] = s
	}

	out := make([]competitions.Participant, 0, len(members))
	for _, m := range members {
		p := competitions.Participant{UserID: m.UserID, JoinedAt: m.JoinedAt}
		u, err := c.store.GetUser(ctx, m.UserID)
		switch {
		case err == nil:
			p.Name, p.Email, p.Avatar, p.Status = u.Name, u.Email, u.Avatar, u.Status
		case errors.IsNotFound(err):
			p.Name = m.UserID
		default:
			return nil, err
		}
		if s, ok := byUser[m.UserID]; ok {
			p.SubmissionsCount = s.SubmissionsCount
			p.BestScore = s.Clone().BestScore
			if p.Name == m.UserID && s.UserName != "" {
				p.Name = s.UserName
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// ExcludeParticipant implements Catalog.
func (c *client) ExcludeParticipant(ctx context.Context, actor *competitions.User, id, userID string) error {
	e, err := c.manage(ctx, actor, id, "exclude participants from")
	if err != nil {
		return err
	}
	if _, err := c.removeMember(ctx, e.ID, userID); err != nil {
		return err
	}
	c.logger.Info().Str("event_id", e.ID).Str("user_id", userID).Str("actor_id", actor.ID).Msg("Participant excluded")
	return nil
}
