// internal/repository/postgres/activity_repo.go
package postgres

import (
	"context"
	"fmt"

	"subdesk-service/internal/domain/activity"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends one audit row. There is no update or delete counterpart;
// the table is append-only.
func (r *ActivityRepository) Insert(ctx context.Context, l *activity.Log) error {
	query := `
		INSERT INTO activity_logs
			(id, user_id, user_name, user_role, action_type, object_type, object_id, object_name, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		l.ID, l.UserID, l.UserName, l.UserRole,
		l.ActionType, l.ObjectType, l.ObjectID, l.ObjectName, l.Details,
	).Scan(&l.Timestamp)
	if err != nil {
		return storageErr("insert activity log", err)
	}
	return nil
}

// List returns audit rows newest first, optionally narrowed by action type,
// object type, and a case-insensitive search over the snapshot and object
// text columns.
func (r *ActivityRepository) List(ctx context.Context, p activity.ListParams) ([]activity.Log, error) {
	query := `
		SELECT id, user_id, user_name, user_role, action_type, object_type, object_id, object_name, details, created_at
		FROM activity_logs
		WHERE 1=1
	`
	args := []any{}

	if p.ActionType != "" {
		args = append(args, p.ActionType)
		query += fmt.Sprintf(" AND action_type = $%d", len(args))
	}
	if p.ObjectType != "" {
		args = append(args, p.ObjectType)
		query += fmt.Sprintf(" AND object_type = $%d", len(args))
	}
	if p.Search != "" {
		args = append(args, "%"+p.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (user_name ILIKE $%d OR object_name ILIKE $%d OR details ILIKE $%d)", n, n, n)
	}

	query += " ORDER BY created_at DESC"

	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list activity logs", err)
	}
	defer rows.Close()

	logs := []activity.Log{}
	for rows.Next() {
		var l activity.Log
		err := rows.Scan(&l.ID, &l.UserID, &l.UserName, &l.UserRole,
			&l.ActionType, &l.ObjectType, &l.ObjectID, &l.ObjectName, &l.Details, &l.Timestamp)
		if err != nil {
			return nil, storageErr("scan activity log", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list activity logs", err)
	}
	return logs, nil
}
