// Package memory is an in-process Store. It backs tests, the demo server
// and single-node deployments that do not need durability.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

type userRecord struct {
	user *competitions.User
	hash string
}

type memberKey struct{ eventID, userID string }

// Store is a mutex-guarded in-memory store.Store.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*userRecord
	emails      map[string]string // normalized email -> user ID
	events      map[string]*competitions.Event
	slugs       map[string]string // slug -> event ID
	members     map[memberKey]competitions.Membership
	submissions map[string]*competitions.Submission
	standings   map[memberKey]*competitions.Standing
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]*userRecord),
		emails:      make(map[string]string),
		events:      make(map[string]*competitions.Event),
		slugs:       make(map[string]string),
		members:     make(map[memberKey]competitions.Membership),
		submissions: make(map[string]*competitions.Submission),
		standings:   make(map[memberKey]*competitions.Standing),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneUser(u *competitions.User) *competitions.User {
	c := *u
	return &c
}

// CreateUser implements store.UserStore.
func (s *Store) CreateUser(_ context.Context, u *competitions.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := competitions.NormalizeEmail(u.Email)
	if _, ok := s.emails[email]; ok {
		return errors.NewConflictError(store.ResourceUser, email, "email already registered")
	}
	if _, ok := s.users[u.ID]; ok {
		return errors.NewConflictError(store.ResourceUser, u.ID, "id already exists")
	}
	c := cloneUser(u)
	c.Email = email
	s.users[u.ID] = &userRecord{user: c, hash: passwordHash}
	s.emails[email] = u.ID
	return nil
}

// GetUser implements store.UserStore.
func (s *Store) GetUser(_ context.Context, id string) (*competitions.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceUser, id)
	}
	return cloneUser(rec.user), nil
}

// GetUserByEmail implements store.UserStore.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*competitions.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = competitions.NormalizeEmail(email)
	id, ok := s.emails[email]
	if !ok {
		return nil, "", errors.NewNotFoundError(store.ResourceUser, email)
	}
	rec := s.users[id]
	return cloneUser(rec.user), rec.hash, nil
}

// ListUsers implements store.UserStore.
func (s *Store) ListUsers(_ context.Context) ([]*competitions.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*competitions.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, cloneUser(rec.user))
	}
	slices.SortFunc(out, func(a, b *competitions.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UpdateUser implements store.UserStore. The email cannot be changed.
func (s *Store) UpdateUser(_ context.Context, id string, fn func(*competitions.User) error) (*competitions.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceUser, id)
	}
	c := cloneUser(rec.user)
	if err := fn(c); err != nil {
		return nil, err
	}
	c.ID, c.Email = rec.user.ID, rec.user.Email
	rec.user = c
	return cloneUser(c), nil
}

// CreateEvent implements store.EventStore.
func (s *Store) CreateEvent(_ context.Context, e *competitions.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[e.ID]; ok {
		return errors.NewConflictError(store.ResourceEvent, e.ID, "id already exists")
	}
	if _, ok := s.slugs[e.Slug]; ok {
		return errors.NewConflictError(store.ResourceEvent, e.Slug, "slug already exists")
	}
	c := e.Clone()
	c.MyParticipation = nil
	s.events[e.ID] = c
	s.slugs[e.Slug] = e.ID
	return nil
}

// GetEvent implements store.EventStore.
func (s *Store) GetEvent(_ context.Context, id string) (*competitions.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceEvent, id)
	}
	return e.Clone(), nil
}

// GetEventBySlug implements store.EventStore.
func (s *Store) GetEventBySlug(_ context.Context, slug string) (*competitions.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceEvent, slug)
	}
	return s.events[id].Clone(), nil
}

// ListEvents implements store.EventStore.
func (s *Store) ListEvents(_ context.Context) ([]*competitions.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*competitions.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	slices.SortFunc(out, func(a, b *competitions.Event) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UpdateEvent implements store.EventStore.
func (s *Store) UpdateEvent(_ context.Context, id string, fn func(*competitions.Event) error) (*competitions.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.events[id]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceEvent, id)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.MyParticipation = nil
	if next.Slug != cur.Slug {
		if owner, taken := s.slugs[next.Slug]; taken && owner != id {
			return nil, errors.NewConflictError(store.ResourceEvent, next.Slug, "slug already exists")
		}
		delete(s.slugs, cur.Slug)
		s.slugs[next.Slug] = id
	}
	s.events[id] = next
	return next.Clone(), nil
}

// DeleteEvent implements store.EventStore.
func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return errors.NewNotFoundError(store.ResourceEvent, id)
	}
	delete(s.events, id)
	delete(s.slugs, e.Slug)
	for k := range s.members {
		if k.eventID == id {
			delete(s.members, k)
		}
	}
	for k := range s.standings {
		if k.eventID == id {
			delete(s.standings, k)
		}
	}
	for sid, sub := range s.submissions {
		if sub.EventID == id {
			delete(s.submissions, sid)
		}
	}
	return nil
}

// AddMember implements store.MembershipStore.
func (s *Store) AddMember(_ context.Context, m competitions.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memberKey{m.EventID, m.UserID}
	if _, ok := s.members[k]; ok {
		return errors.NewConflictError(store.ResourceMembership, m.EventID, "already joined")
	}
	s.members[k] = m
	return nil
}

// RemoveMember implements store.MembershipStore.
func (s *Store) RemoveMember(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memberKey{eventID, userID}
	if _, ok := s.members[k]; !ok {
		return errors.NewNotFoundError(store.ResourceMembership, eventID+"/"+userID)
	}
	delete(s.members, k)
	return nil
}

// GetMember implements store.MembershipStore.
func (s *Store) GetMember(_ context.Context, eventID, userID string) (*competitions.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberKey{eventID, userID}]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceMembership, eventID+"/"+userID)
	}
	return &m, nil
}

// ListMembers implements store.MembershipStore.
func (s *Store) ListMembers(_ context.Context, eventID string) ([]competitions.Membership, error) {
	return s.filterMembers(func(k memberKey) bool { return k.eventID == eventID }), nil
}

// ListMemberships implements store.MembershipStore.
func (s *Store) ListMemberships(_ context.Context, userID string) ([]competitions.Membership, error) {
	return s.filterMembers(func(k memberKey) bool { return k.userID == userID }), nil
}

func (s *Store) filterMembers(keep func(memberKey) bool) []competitions.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]competitions.Membership, 0)
	for k, m := range s.members {
		if keep(k) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b competitions.Membership) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EventID, b.EventID); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

// CreateSubmission implements store.SubmissionStore.
func (s *Store) CreateSubmission(_ context.Context, sub *competitions.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submissions[sub.ID]; ok {
		return errors.NewConflictError(store.ResourceSubmission, sub.ID, "id already exists")
	}
	s.submissions[sub.ID] = sub.Clone()
	return nil
}

// GetSubmission implements store.SubmissionStore.
func (s *Store) GetSubmission(_ context.Context, id string) (*competitions.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceSubmission, id)
	}
	return sub.Clone(), nil
}

// ListSubmissions implements store.SubmissionStore.
func (s *Store) ListSubmissions(_ context.Context, q competitions.SubmissionQuery) ([]*competitions.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*competitions.Submission, 0)
	for _, sub := range s.submissions {
		if q.Match(sub) {
			out = append(out, sub.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *competitions.Submission) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// UpdateSubmission implements store.SubmissionStore.
func (s *Store) UpdateSubmission(_ context.Context, id string, fn func(*competitions.Submission) error) (*competitions.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.submissions[id]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceSubmission, id)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID, next.EventID, next.UserID = cur.ID, cur.EventID, cur.UserID
	s.submissions[id] = next
	return next.Clone(), nil
}

// DeleteSubmission implements store.SubmissionStore.
func (s *Store) DeleteSubmission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submissions[id]; !ok {
		return errors.NewNotFoundError(store.ResourceSubmission, id)
	}
	delete(s.submissions, id)
	return nil
}

// GetStanding implements store.StandingStore.
func (s *Store) GetStanding(_ context.Context, eventID, userID string) (*competitions.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.standings[memberKey{eventID, userID}]
	if !ok {
		return nil, errors.NewNotFoundError(store.ResourceStanding, eventID+"/"+userID)
	}
	return st.Clone(), nil
}

// ListStandings implements store.StandingStore.
func (s *Store) ListStandings(_ context.Context, eventID string) ([]*competitions.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*competitions.Standing, 0)
	for k, st := range s.standings {
		if eventID == "" || k.eventID == eventID {
			out = append(out, st.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *competitions.Standing) int {
		if c := cmp.Compare(a.EventID, b.EventID); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out, nil
}

// UpsertStanding implements store.StandingStore.
func (s *Store) UpsertStanding(_ context.Context, eventID, userID string, fn func(*competitions.Standing) error) (*competitions.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memberKey{eventID, userID}
	next := &competitions.Standing{EventID: eventID, UserID: userID}
	if cur, ok := s.standings[k]; ok {
		next = cur.Clone()
	}
	if err := fn(next); err != nil {
		return nil, err
	}
	next.EventID, next.UserID = eventID, userID
	s.standings[k] = next
	return next.Clone(), nil
}

// DeleteStanding implements store.StandingStore.
func (s *Store) DeleteStanding(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memberKey{eventID, userID}
	if _, ok := s.standings[k]; !ok {
		return errors.NewNotFoundError(store.ResourceStanding, eventID+"/"+userID)
	}
	delete(s.standings, k)
	return nil
}
