package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safar/go-food-order/internal/apperr"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/models"
)

const msgInvalidCredentials = "Invalid email or password"

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type Authenticator struct {
	users  UserStore
	tokens *Tokens
	log    *zap.SugaredLogger

	// compared against when the email is unknown so both paths cost one bcrypt run
	dummyHash string
}

func NewAuthenticator(users UserStore, tokens *Tokens, log *zap.SugaredLogger) *Authenticator {
	dummy, _ := HashPassword(uuid.NewString())
	return &Authenticator{users: users, tokens: tokens, log: log, dummyHash: dummy}
}

// ResolveUser maps a token to its live user. Invalid tokens, unknown users
// and deactivated users all resolve to nil without an error.
func (a *Authenticator) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		a.log.Debugw("token rejected", "error", err)
		return nil, nil
	}

	user, err := a.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to resolve user", fmt.Errorf("resolve user: %w", err))
	}

	if !user.IsActive {
		return nil, nil
	}

	return user, nil
}

type Authorization struct {
	User       *models.User
	Authorized bool
}

// Authorize resolves token and checks the user's role against roles. No roles
// means any authenticated user. A refusal is reported in the result.
func (a *Authenticator) Authorize(ctx context.Context, token string, roles ...models.Role) (Authorization, error) {
	user, err := a.ResolveUser(ctx, token)
	if err != nil {
		return Authorization{}, err
	}
	if user == nil {
		return Authorization{}, nil
	}

	return Authorization{
		User:       user,
		Authorized: len(roles) == 0 || slices.Contains(roles, user.Role),
	}, nil
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		a.log.Errorw("login lookup failed", "error", err)
		return nil, apperr.Persistence("Failed to log in", err)
	}

	if user == nil {
		VerifyPassword(password, a.dummyHash)
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	if !VerifyPassword(password, user.PasswordHash) || !user.IsActive {
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	token, err := a.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      models.Role
}

func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, apperr.Validation("Missing required fields: email, password, firstName, lastName")
	}

	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		names := make([]string, len(models.Roles))
		for i, role := range models.Roles {
			names[i] = string(role)
		}
		return nil, apperr.Validation("Invalid role. Must be one of: %s", strings.Join(names, ", "))
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Error registering user", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         in.Role,
		IsActive:     true,
	}

	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperr.Validation("Email already registered")
		}
		a.log.Errorw("register user failed", "email", in.Email, "error", err)
		return nil, apperr.Persistence("Error registering user", err)
	}

	a.log.Infow("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}
