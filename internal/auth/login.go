package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/internal/audit"
	pkgAuth "github.com/danielcastano/abasto-backend/pkg/auth"
	"github.com/danielcastano/abasto-backend/pkg/config"
	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
	"github.com/danielcastano/abasto-backend/pkg/security"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	MarkLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// LoginInput carries the credentials submitted to the login endpoint.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the authenticated identity echoed back with the token.
type UserInfo struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// LoginResponse carries the minted access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserInfo  `json:"user"`
}

// Service authenticates users and mints access tokens.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResponse, error)
}

type service struct {
	users userStore
	cfg   config.JWTConfig
	audit audit.Recorder
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds an auth service.
func NewService(users userStore, cfg config.JWTConfig, auditor audit.Recorder, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		users: users,
		cfg:   cfg,
		audit: auditor,
		logg:  logg,
		now:   time.Now,
	}, nil
}

// A single message for every credential failure keeps user enumeration off
// the table.
var errInvalidCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if !user.IsActive {
		return nil, errInvalidCredentials
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !match {
		return nil, errInvalidCredentials
	}

	now := s.now()
	token, err := pkgAuth.MintAccessToken(s.cfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.users.MarkLogin(ctx, user.ID, now); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.mark_login_failed")
	}

	s.audit.Record(ctx, user.ID, enums.AuditUserLogin, fmt.Sprintf("user %s logged in", user.Email))

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(time.Duration(s.cfg.ExpirationMinutes) * time.Minute),
		User: UserInfo{
			ID:    user.ID,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}
