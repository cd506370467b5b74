// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"time"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/user"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/pkg/jwt"
	"subdesk-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Storage dependencies, satisfied by the postgres user repository and the
// redis session primitives.
type UserRepo interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, data *session.Data) error
	Revoke(ctx context.Context, userID, jti string) error
}

type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

type Recorder interface {
	Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string)
}

type AuthService struct {
	userRepo    UserRepo
	jwtManager  *jwt.Manager
	sessions    SessionStore
	rateLimiter LoginLimiter
	activity    Recorder
	logger      *zap.Logger
}

func NewAuthService(
	userRepo UserRepo,
	jwtManager *jwt.Manager,
	sessions SessionStore,
	rateLimiter LoginLimiter,
	activity Recorder,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		activity:    activity,
		logger:      logger,
	}
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords return the same unauthorized error so the response does not leak
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest, ip, userAgent string) (*user.LoginResponse, error) {
	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, ip, req.Email)
	if err != nil {
		// Redis being down should not lock everyone out.
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		s.logger.Warn("login rate limited",
			zap.String("ip", ip),
			zap.Int64("attempts_remaining", remaining))
		return nil, xerrors.ErrRateLimited
	}

	u, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid email or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid email or password")
	}

	token, jti, err := s.jwtManager.Generate(u.ID, u.Name, string(u.Role))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.sessions.Create(ctx, &session.Data{
		JTI:            jti,
		UserID:         u.ID,
		Role:           string(u.Role),
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.jwtManager.TTL),
	})
	if err != nil {
		return nil, err
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	if err := s.userRepo.UpdateLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn("failed to stamp last login", zap.String("user_id", u.ID), zap.Error(err))
	}

	actor := activitydom.Actor{ID: u.ID, Name: u.Name, Role: string(u.Role)}
	s.activity.Record(actor, activitydom.ActionLogin, activitydom.ObjectUser, u.ID, u.Name, "signed in")

	return &user.LoginResponse{Token: token, User: u.Public()}, nil
}

// Logout revokes the session behind the presented token. The JWT itself stays
// valid until expiry, but without its session it is refused by the middleware.
func (s *AuthService) Logout(ctx context.Context, actor activitydom.Actor, jti string) error {
	if err := s.sessions.Revoke(ctx, actor.ID, jti); err != nil {
		return err
	}
	s.activity.Record(actor, activitydom.ActionLogout, activitydom.ObjectUser, actor.ID, actor.Name, "signed out")
	return nil
}

// CurrentUser returns the authenticated user's profile.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*user.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
