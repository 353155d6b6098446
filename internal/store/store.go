// Package store defines the persistence boundary of EvalIA.
//
// Implementations live in sub-packages: memory keeps everything in process
// and sqlstore persists to SQLite or PostgreSQL. Both return copies, so a
// caller mutating a returned value never changes stored state; all
// read-modify-write goes through the Update* callbacks, which run under the
// implementation's lock or transaction.
package store

import (
	"context"

	"github.com/evalia-ai/evalia/pkg/competitions"
)

// Store is the full persistence surface.
type Store interface {
	UserStore
	EventStore
	MembershipStore
	SubmissionStore
	StandingStore

	// Close releases the underlying resources.
	Close() error
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser stores a user. A duplicate email is a conflict.
	CreateUser(ctx context.Context, u *competitions.User, passwordHash string) error
	GetUser(ctx context.Context, id string) (*competitions.User, error)
	// GetUserByEmail returns the user and their password hash.
	GetUserByEmail(ctx context.Context, email string) (*competitions.User, string, error)
	ListUsers(ctx context.Context) ([]*competitions.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*competitions.User) error) (*competitions.User, error)
}

// EventStore persists competition events.
type EventStore interface {
	// CreateEvent stores an event. A duplicate ID or slug is a conflict.
	CreateEvent(ctx context.Context, e *competitions.Event) error
	GetEvent(ctx context.Context, id string) (*competitions.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*competitions.Event, error)
	// ListEvents returns events by creation time, oldest first.
	ListEvents(ctx context.Context) ([]*competitions.Event, error)
	UpdateEvent(ctx context.Context, id string, fn func(*competitions.Event) error) (*competitions.Event, error)
	// DeleteEvent removes the event with its memberships, submissions and standings.
	DeleteEvent(ctx context.Context, id string) error
}

// MembershipStore persists who joined which event.
type MembershipStore interface {
	// AddMember records a join. Joining twice is a conflict.
	AddMember(ctx context.Context, m competitions.Membership) error
	// RemoveMember deletes a join. A missing join is not found.
	RemoveMember(ctx context.Context, eventID, userID string) error
	GetMember(ctx context.Context, eventID, userID string) (*competitions.Membership, error)
	ListMembers(ctx context.Context, eventID string) ([]competitions.Membership, error)
	ListMemberships(ctx context.Context, userID string) ([]competitions.Membership, error)
}

// SubmissionStore persists submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, s *competitions.Submission) error
	GetSubmission(ctx context.Context, id string) (*competitions.Submission, error)
	// ListSubmissions returns matching submissions, newest first.
	ListSubmissions(ctx context.Context, q competitions.SubmissionQuery) ([]*competitions.Submission, error)
	UpdateSubmission(ctx context.Context, id string, fn func(*competitions.Submission) error) (*competitions.Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
}

// StandingStore persists per-event user standings.
type StandingStore interface {
	GetStanding(ctx context.Context, eventID, userID string) (*competitions.Standing, error)
	// ListStandings returns the standings of an event, or of every event when eventID is empty.
	ListStandings(ctx context.Context, eventID string) ([]*competitions.Standing, error)
	// UpsertStanding runs fn on the existing standing, or on a new empty one.
	UpsertStanding(ctx context.Context, eventID, userID string, fn func(*competitions.Standing) error) (*competitions.Standing, error)
	DeleteStanding(ctx context.Context, eventID, userID string) error
}

// Resource names used in store errors.
const (
	ResourceUser       = "user"
	ResourceEvent      = "event"
	ResourceMembership = "membership"
	ResourceSubmission = "submission"
	ResourceStanding   = "standing"
)
