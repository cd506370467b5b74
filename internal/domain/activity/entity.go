// internal/domain/activity/entity.go
package activity

import "time"

type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
	ActionLogin  ActionType = "login"
	ActionLogout ActionType = "logout"
	ActionView   ActionType = "view"
)

type ObjectType string

const (
	ObjectAccount      ObjectType = "account"
	ObjectPackage      ObjectType = "package"
	ObjectCustomer     ObjectType = "customer"
	ObjectSubscription ObjectType = "subscription"
	ObjectUser         ObjectType = "user"
	ObjectSettings     ObjectType = "settings"
)

// Log is one append-only audit row. UserName and UserRole are snapshots taken
// at write time; they are served as stored and never joined against the
// current user profile, so renaming or re-roling a user cannot rewrite
// history.
type Log struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"userId" db:"user_id"`
	UserName   string     `json:"userName" db:"user_name"`
	UserRole   string     `json:"userRole" db:"user_role"`
	ActionType ActionType `json:"actionType" db:"action_type"`
	ObjectType ObjectType `json:"objectType" db:"object_type"`
	ObjectID   string     `json:"objectId" db:"object_id"`
	ObjectName string     `json:"objectName" db:"object_name"`
	Details    string     `json:"details" db:"details"`
	Timestamp  time.Time  `json:"timestamp" db:"created_at"`
}

// Actor identifies who performed an operation, as recorded in each row.
type Actor struct {
	ID   string
	Name string
	Role string
}

type ListParams struct {
	Search     string `form:"search"`
	ActionType string `form:"action_type" binding:"omitempty,oneof=create update delete login logout view"`
	ObjectType string `form:"object_type" binding:"omitempty,oneof=account package customer subscription user settings"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}
