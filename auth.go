package evalia

import (
	"context"
	"net/mail"
	"strings"

	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// Session is an authenticated session: a signed token and its user.
type Session = auth.Session

// Claims are the decoded claims of a session token.
type Claims = auth.Claims

// Accounts handles registration and sessions.
type Accounts interface {
	// Register creates an account and opens a session for it.
	Register(ctx context.Context, reg Registration) (*Session, error)

	// Login checks credentials and opens a session.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Logout revokes a session token.
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a session token to the current state of its user.
	Authenticate(ctx context.Context, token string) (*competitions.User, *Claims, error)

	// UpdateProfile changes the name or avatar of user.
	UpdateProfile(ctx context.Context, user *competitions.User, update ProfileUpdate) (*competitions.User, error)
}

// Registration is the input of Register.
type Registration struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Role     competitions.Role `json:"role,omitempty"`
}

// ProfileUpdate changes the set fields of a profile.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Register implements Accounts. Anyone may sign up as a participant or an
// organizer; administrators are only created by other administrators.
func (c *client) Register(ctx context.Context, reg Registration) (*Session, error) {
	if reg.Role == "" {
		reg.Role = competitions.RoleParticipant
	}
	role, err := competitions.ParseRole(string(reg.Role))
	if err != nil {
		return nil, errors.NewValidationError("role", reg.Role, err.Error())
	}
	if role == competitions.RoleAdmin {
		return nil, errors.NewValidationError("role", role, "administrators are appointed by an administrator")
	}
	reg.Role = role
	u, err := c.createUser(ctx, reg)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("User registered")
	return c.tokens.Issue(u)
}

// createUser validates a registration and stores the account.
func (c *client) createUser(ctx context.Context, reg Registration) (*competitions.User, error) {
	role, err := competitions.ParseRole(string(reg.Role))
	if err != nil {
		return nil, errors.NewValidationError("role", reg.Role, err.Error())
	}

	var errs errors.ValidationErrors
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		errs = append(errs, errors.NewValidationError("name", reg.Name, "is required"))
	}
	email := competitions.NormalizeEmail(reg.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs = append(errs, errors.NewValidationError("email", reg.Email, "is not a valid address"))
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	u := &competitions.User{
		ID:        c.newID(),
		Email:     email,
		Name:      name,
		Role:      role,
		Avatar:    competitions.AvatarURL(name),
		Status:    competitions.UserActive,
		CreatedAt: c.now(),
	}
	if err := c.store.CreateUser(ctx, u, hash); err != nil {
		return nil, err
	}
	return u, nil
}

// Login implements Accounts. Unknown emails and wrong passwords return the
// same error.
func (c *client) Login(ctx context.Context, email, password string) (*Session, error) {
	u, hash, err := c.store.GetUserByEmail(ctx, email)
	if errors.IsNotFound(err) && c.options.autoProvision {
		return c.provision(ctx, email, password)
	}
	if errors.IsNotFound(err) {
		return nil, errors.NewAuthenticationError("password", "invalid email or password", nil)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(hash, password) {
		return nil, errors.NewAuthenticationError("password", "invalid email or password", nil)
	}
	if u.Suspended() {
		return nil, errors.NewForbiddenError("log in as", "user", "account suspended")
	}
	c.logger.Debug().Str("user_id", u.ID).Msg("User logged in")
	return c.tokens.Issue(u)
}

// provision creates a participant named after the local part of email.
func (c *client) provision(ctx context.Context, email, password string) (*Session, error) {
	u, err := c.createUser(ctx, Registration{
		Name:     competitions.NameFromEmail(email),
		Email:    email,
		Password: password,
		Role:     competitions.RoleParticipant,
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("user_id", u.ID).Msg("User provisioned on login")
	return c.tokens.Issue(u)
}

// Logout implements Accounts.
func (c *client) Logout(_ context.Context, token string) error {
	claims, err := c.tokens.Parse(token)
	if err != nil {
		return err
	}
	c.tokens.Revoke(claims)
	return nil
}

// Authenticate implements Accounts. The user is reloaded on every call so
// role changes and suspensions apply to open sessions.
func (c *client) Authenticate(ctx context.Context, token string) (*competitions.User, *Claims, error) {
	claims, err := c.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	u, err := c.store.GetUser(ctx, claims.UserID())
	if errors.IsNotFound(err) {
		return nil, nil, errors.NewAuthenticationError("token", "user no longer exists", nil)
	}
	if err != nil {
		return nil, nil, err
	}
	if u.Suspended() {
		return nil, nil, errors.NewForbiddenError("use", "session", "account suspended")
	}
	return u, claims, nil
}

// UpdateProfile implements Accounts.
func (c *client) UpdateProfile(ctx context.Context, user *competitions.User, update ProfileUpdate) (*competitions.User, error) {
	if user == nil {
		return nil, errors.NewAuthenticationError("session", "login required", nil)
	}
	return c.store.UpdateUser(ctx, user.ID, func(u *competitions.User) error {
		if update.Name != nil {
			name := strings.TrimSpace(*update.Name)
			if name == "" {
				return errors.NewValidationError("name", *update.Name, "is required")
			}
			u.Name = name
		}
		if update.Avatar != nil {
			u.Avatar = strings.TrimSpace(*update.Avatar)
			if u.Avatar == "" {
				u.Avatar = competitions.AvatarURL(u.Name)
			}
		}
		return nil
	})
}

// requireUser fails for anonymous callers.
func requireUser(u *competitions.User) error {
	if u == nil {
		return errors.NewAuthenticationError("session", "login required", nil)
	}
	return nil
}
