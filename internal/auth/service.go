package auth

import (
	"context"
	"strings"
	"time"

	"UniPath/internal/apperr"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Users is the persistence UserService needs.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, email, role string) error
}

type UserService struct {
	repo   Users
	tokens *TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(repo *UserRepository, tokens *TokenIssuer, logger *zap.Logger) *UserService {
	return newUserService(repo, tokens, logger)
}

func newUserService(repo Users, tokens *TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, logger: logger, now: time.Now}
}

// RegisterUser creates a student account. Staff and admin roles are granted
// out of band with PromoteUser.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}
	user := &User{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleStudent,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// AuthenticateUser returns a signed token for valid credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, cred Credential) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(cred.Email)))
	if err != nil {
		return "", nil, err
	}
	if user == nil || !CheckPasswordHash(cred.Password, user.PasswordHash) {
		return "", nil, errors.Wrap(apperr.ErrUnauthorized, "invalid email or password")
	}
	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", nil, errors.Wrap(err, "signing token")
	}
	return token, user, nil
}

func (s *UserService) Me(ctx context.Context, id primitive.ObjectID) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}

func (s *UserService) PromoteUser(ctx context.Context, email, role string) error {
	if !validRoles[role] {
		return apperr.NewValidationError(errors.Errorf("unknown role %q", role))
	}
	if err := s.repo.UpdateRole(ctx, strings.ToLower(email), role); err != nil {
		return err
	}
	s.logger.Info("user role changed", zap.String("email", email), zap.String("role", role))
	return nil
}
