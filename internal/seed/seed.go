// Package seed loads the demo dataset into a store.
package seed

import (
	"context"
	"io/fs"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/evalia-ai/evalia/internal/embedded"
	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// User is a seeded account. Password is empty for accounts that only
// populate leaderboards.
type User struct {
	competitions.User `yaml:",inline"`
	Password          string `yaml:"password,omitempty"`
}

// Dataset is a complete seed.
type Dataset struct {
	Users       []User                              `yaml:"users"`
	Events      []*competitions.Event               `yaml:"events"`
	Submissions []*competitions.Submission          `yaml:"submissions"`
	Standings   map[string][]*competitions.Standing `yaml:"standings"`
}

// Hasher turns a plaintext password into a stored hash.
type Hasher func(password string) (string, error)

// Load reads the embedded demo dataset.
func Load() (*Dataset, error) {
	return LoadFS(embedded.FS, embedded.DemoSeed)
}

// LoadFS reads a dataset from fsys.
func LoadFS(fsys fs.FS, name string) (*Dataset, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return Parse(data, name)
}

// Parse decodes a YAML dataset and fills defaults.
func Parse(data []byte, name string) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	for i := range ds.Users {
		u := &ds.Users[i].User
		u.Email = competitions.NormalizeEmail(u.Email)
		if u.Status == "" {
			u.Status = competitions.UserActive
		}
		if u.Avatar == "" {
			u.Avatar = competitions.AvatarURL(u.Name)
		}
		role, err := competitions.ParseRole(string(u.Role))
		if err != nil {
			return nil, errors.NewParseError("yaml", name, "user "+u.ID+": "+err.Error(), nil)
		}
		u.Role = role
	}
	for _, e := range ds.Events {
		e.Rules.AllowedFormats = competitions.NormalizeFormats(e.Rules.AllowedFormats)
		if e.Slug == "" {
			e.Slug = competitions.Slugify(e.Title)
		}
	}
	for eventID, standings := range ds.Standings {
		for _, s := range standings {
			s.EventID = eventID
		}
	}
	return &ds, nil
}

// Result counts what Apply wrote.
type Result struct {
	Users       int
	Events      int
	Memberships int
	Submissions int
	Standings   int
}

// Apply writes the dataset into st. Records that already exist are left
// untouched, so applying twice is harmless. Memberships, submissions and
// standings are only written for events this call created; an event that
// already exists keeps whatever its users did since. Every user with a
// standing or a submission in a new event becomes a member of it.
func (ds *Dataset) Apply(ctx context.Context, st store.Store, hash Hasher) (Result, error) {
	var res Result

	for _, u := range ds.Users {
		if _, err := st.GetUser(ctx, u.ID); err == nil {
			continue
		}
		var h string
		if u.Password != "" {
			var err error
			if h, err = hash(u.Password); err != nil {
				return res, err
			}
		}
		user := u.User
		if err := st.CreateUser(ctx, &user, h); err != nil {
			if errors.IsConflict(err) {
				continue
			}
			return res, err
		}
		res.Users++
	}

	fresh := make(map[string]bool, len(ds.Events))
	for _, e := range ds.Events {
		if err := st.CreateEvent(ctx, e); err != nil {
			if errors.IsConflict(err) {
				continue
			}
			return res, err
		}
		fresh[e.ID] = true
		res.Events++
	}

	joined := make(map[[2]string]bool)
	join := func(eventID, userID string) error {
		key := [2]string{eventID, userID}
		if joined[key] {
			return nil
		}
		joined[key] = true
		m := competitions.Membership{EventID: eventID, UserID: userID, JoinedAt: ds.joinedAt(eventID)}
		if err := st.AddMember(ctx, m); err != nil {
			if errors.IsConflict(err) {
				return nil
			}
			return err
		}
		res.Memberships++
		return nil
	}

	for _, s := range ds.Submissions {
		if !fresh[s.EventID] {
			continue
		}
		if err := join(s.EventID, s.UserID); err != nil {
			return res, err
		}
		if _, err := st.GetSubmission(ctx, s.ID); err == nil {
			continue
		}
		if err := st.CreateSubmission(ctx, s); err != nil {
			return res, err
		}
		res.Submissions++
	}

	for eventID, standings := range ds.Standings {
		if !fresh[eventID] {
			continue
		}
		for _, s := range standings {
			if err := join(eventID, s.UserID); err != nil {
				return res, err
			}
			seeded := s
			created := false
			_, err := st.UpsertStanding(ctx, eventID, s.UserID, func(cur *competitions.Standing) error {
				if cur.SubmissionsCount > 0 || cur.Scored() {
					return nil
				}
				*cur = *seeded.Clone()
				created = true
				return nil
			})
			if err != nil {
				return res, err
			}
			if created {
				res.Standings++
			}
		}
	}
	return res, nil
}

// joinedAt places seeded joins at the event's registration opening.
func (ds *Dataset) joinedAt(eventID string) (t time.Time) {
	for _, e := range ds.Events {
		if e.ID == eventID {
			return e.RegistrationStart
		}
	}
	return t
}
