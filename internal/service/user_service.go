package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/token"
	"blogapi/pkg/tracing"
)

// TokenIssuer signs session tokens at login.
type TokenIssuer interface {
	Issue(userID, role string) (string, *token.Claims, error)
}

type UserService struct {
	repo            domain.UserRepository
	hasher          domain.PasswordHasher
	issuer          TokenIssuer
	denylist        token.Denylist
	strictOwnership bool
	logger          logger.Logger
}

// NewUserService wires the user service. A nil denylist keeps logout purely
// client-side.
func NewUserService(
	repo domain.UserRepository,
	hasher domain.PasswordHasher,
	issuer TokenIssuer,
	denylist token.Denylist,
	strictOwnership bool,
	logger logger.Logger,
) *UserService {
	return &UserService{
		repo:            repo,
		hasher:          hasher,
		issuer:          issuer,
		denylist:        denylist,
		strictOwnership: strictOwnership,
		logger:          logger,
	}
}

func (s *UserService) Signup(ctx context.Context, in domain.SignupInput) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.Signup")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if blank(in.Fullname) || blank(in.Username) || blank(in.Email) || in.Password == "" {
		return nil, domain.NewValidationError("Something is missing, fullname, username, email and password are required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, internalError(ctx, s.logger, "check email", err, map[string]interface{}{"email": in.Email})
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	existing, err = s.repo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, internalError(ctx, s.logger, "check username", err, map[string]interface{}{"username": in.Username})
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, hashError(ctx, s.logger, err)
	}

	role := in.Role
	if role == "" {
		role = domain.UserRoleUser
	}
	user := &domain.User{
		Fullname:     strings.TrimSpace(in.Fullname),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Avatar:       in.Avatar,
		Bio:          in.Bio,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewConflictError("Username or email is already taken")
		}
		return nil, internalError(ctx, s.logger, "create user", err, map[string]interface{}{"username": in.Username})
	}

	s.logger.InfoContext(ctx, "User signed up", map[string]interface{}{"user_id": user.ID, "username": user.Username})
	return user, nil
}

func (s *UserService) Login(ctx context.Context, in domain.LoginInput) (*domain.User, *domain.Session, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.Login")
	defer span.End()

	if blank(in.Username) || in.Password == "" || blank(in.Role) {
		return nil, nil, domain.NewValidationError("Something is missing, username, password and role are required")
	}

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, nil, internalError(ctx, s.logger, "find user", err, map[string]interface{}{"username": in.Username})
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, in.Password) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if in.Role != user.Role {
		return nil, nil, domain.ErrRoleMismatch
	}

	raw, claims, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, nil, internalError(ctx, s.logger, "issue token", err, map[string]interface{}{"user_id": user.ID})
	}

	s.logger.InfoContext(ctx, "User logged in", map[string]interface{}{"user_id": user.ID})
	return user, &domain.Session{Token: raw, TokenID: claims.TokenID(), ExpiresAt: claims.ExpiresAt()}, nil
}

func (s *UserService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.denylist == nil || tokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, tokenID, expiresAt); err != nil {
		return internalError(ctx, s.logger, "revoke token", err, map[string]interface{}{"token_id": tokenID})
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.logger, "find user", err, map[string]interface{}{"id": id})
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, internalError(ctx, s.logger, "list users", err, nil)
	}
	if len(users) == 0 {
		return nil, domain.ErrNoUsers
	}
	return users, nil
}

// UpdateUser replaces the profile of user id. Fullname and username are
// required, plus at least one of email or password.
func (s *UserService) UpdateUser(ctx context.Context, requester domain.Identity, id string, in domain.UpdateUserInput) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if blank(in.Fullname) || blank(in.Username) || (blank(in.Email) && in.Password == "") {
		return nil, domain.NewValidationError("Something is missing, fullname, username and email or password are required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if s.strictOwnership && !domain.CanMutate(id, requester.ID) {
		return nil, domain.ErrNotSelfUpdate
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != user.Username {
		other, err := s.repo.FindByUsername(ctx, in.Username)
		if err != nil {
			return nil, internalError(ctx, s.logger, "check username", err, map[string]interface{}{"username": in.Username})
		}
		if other != nil && other.ID != user.ID {
			return nil, domain.ErrUsernameTaken
		}
	}
	if in.Email != "" && in.Email != user.Email {
		other, err := s.repo.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, internalError(ctx, s.logger, "check email", err, map[string]interface{}{"email": in.Email})
		}
		if other != nil && other.ID != user.ID {
			return nil, domain.ErrEmailTaken
		}
	}

	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, hashError(ctx, s.logger, err)
		}
		user.PasswordHash = hash
	}
	user.Fullname = strings.TrimSpace(in.Fullname)
	user.Username = in.Username
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}
	if in.Bio != "" {
		user.Bio = in.Bio
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return nil, domain.ErrUserNotFound
		case errors.Is(err, domain.ErrDuplicateKey):
			return nil, domain.NewConflictError("Username or email is already taken")
		}
		return nil, internalError(ctx, s.logger, "update user", err, map[string]interface{}{"id": id})
	}

	s.logger.InfoContext(ctx, "User updated", map[string]interface{}{"user_id": id, "requester": requester.ID})
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, requester domain.Identity, id string) (*domain.User, error) {
	if s.strictOwnership && !domain.CanMutate(id, requester.ID) {
		return nil, domain.ErrNotSelfDelete
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, internalError(ctx, s.logger, "delete user", err, map[string]interface{}{"id": id})
	}

	s.logger.InfoContext(ctx, "User deleted", map[string]interface{}{"user_id": id, "requester": requester.ID})
	return user, nil
}

// internalError logs an infrastructure failure and wraps it so the client
// only ever sees the generic server error message.
func internalError(ctx context.Context, log logger.Logger, op string, err error, fields map[string]interface{}) error {
	if fields == nil {
		fields = make(map[string]interface{}, 2)
	}
	fields["operation"] = op
	fields["error"] = err.Error()
	log.ErrorContext(ctx, "Operation failed", fields)
	return domain.NewInternalError(op, fmt.Errorf("%s: %w", op, err))
}

// hashError passes classified hasher errors through and treats anything
// else as internal.
func hashError(ctx context.Context, log logger.Logger, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return internalError(ctx, log, "hash password", err, nil)
}

var _ domain.UserService = (*UserService)(nil)
