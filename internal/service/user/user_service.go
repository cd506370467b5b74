// internal/service/user/user_service.go
package user

import (
	"context"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/user"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/pkg/id"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Storage dependencies, satisfied by the postgres user repository and the
// redis session manager.
type UserRepo interface {
	Create(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, id string) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

type Recorder interface {
	Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string)
}

type UserService struct {
	userRepo UserRepo
	sessions SessionRevoker
	activity Recorder
	logger   *zap.Logger
}

func NewUserService(userRepo UserRepo, sessions SessionRevoker, activity Recorder, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		sessions: sessions,
		activity: activity,
		logger:   logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, actor activitydom.Actor, req *user.CreateUserRequest) (*user.User, error) {
	taken, err := s.userRepo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, xerrors.Duplicatef("email %s is already registered", req.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, xerrors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           id.New("usr"),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.activity.Record(actor, activitydom.ActionCreate, activitydom.ObjectUser, u.ID, u.Name, "user account created")
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*user.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, actor activitydom.Actor, userID string, req *user.UpdateUserRequest) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil && *req.Email != u.Email {
		taken, err := s.userRepo.ExistsByEmail(ctx, *req.Email, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, xerrors.Duplicatef("email %s is already registered", *req.Email)
		}
		u.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, xerrors.Wrap(err, "hash password")
		}
		u.PasswordHash = string(hash)
	}
	roleChanged := req.Role != nil && *req.Role != u.Role
	if req.Role != nil {
		u.Role = *req.Role
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}

	// A password or role change invalidates the user's open sessions; their
	// tokens still carry the old role.
	if req.Password != nil || roleChanged {
		if err := s.sessions.RevokeAll(ctx, u.ID); err != nil {
			s.logger.Warn("failed to revoke sessions", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	s.activity.Record(actor, activitydom.ActionUpdate, activitydom.ObjectUser, u.ID, u.Name, "user account updated")
	return u, nil
}

// DeleteUser removes a user account. A user cannot delete themselves, which
// keeps at least the acting admin alive.
func (s *UserService) DeleteUser(ctx context.Context, actor activitydom.Actor, userID string) error {
	if actor.ID == userID {
		return xerrors.Validationf("cannot delete your own account")
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		// Deleting an already-absent id is a success, not an error.
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("user deleted", zap.String("user_id", userID))
	s.activity.Record(actor, activitydom.ActionDelete, activitydom.ObjectUser, u.ID, u.Name, "user account deleted")
	return nil
}
