// internal/service/activity/activity_service.go
package activity

import (
	"context"
	"time"

	"subdesk-service/internal/domain/activity"
	"subdesk-service/internal/pkg/id"

	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// ActivityRepo is the append-only storage behind the audit trail, satisfied
// by the postgres activity repository.
type ActivityRepo interface {
	Insert(ctx context.Context, l *activity.Log) error
	List(ctx context.Context, p activity.ListParams) ([]activity.Log, error)
}

type ActivityService struct {
	activityRepo ActivityRepo
	logger       *zap.Logger
}

func NewActivityService(activityRepo ActivityRepo, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Record appends an audit entry asynchronously. The write is fire-and-forget:
// it runs on its own goroutine with its own deadline, detached from the
// request context, and a failure is logged but never surfaces to the caller.
func (s *ActivityService) Record(actor activity.Actor, action activity.ActionType, objectType activity.ObjectType, objectID, objectName, details string) {
	entry := &activity.Log{
		ID:         id.New("act"),
		UserID:     actor.ID,
		UserName:   actor.Name,
		UserRole:   actor.Role,
		ActionType: action,
		ObjectType: objectType,
		ObjectID:   objectID,
		ObjectName: objectName,
		Details:    details,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := s.activityRepo.Insert(ctx, entry); err != nil {
			s.logger.Error("failed to record activity",
				zap.String("action", string(action)),
				zap.String("object_type", string(objectType)),
				zap.String("object_id", objectID),
				zap.Error(err))
		}
	}()
}

// List returns audit entries newest first.
func (s *ActivityService) List(ctx context.Context, params activity.ListParams) ([]activity.Log, error) {
	return s.activityRepo.List(ctx, params)
}
