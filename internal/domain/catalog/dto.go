// internal/domain/catalog/dto.go
package catalog

type CreateAccountRequest struct {
	Type             AccountType  `json:"type" binding:"required"`
	Name             string       `json:"name" binding:"required,max=255"`
	Details          []Credential `json:"details"`
	SubscriptionDate string       `json:"subscriptionDate"`
	ExpiryDate       string       `json:"expiryDate"`
	Price            Price        `json:"price"`
}

type UpdateAccountRequest struct {
	Name             *string       `json:"name" binding:"omitempty,max=255"`
	Details          *[]Credential `json:"details"`
	SubscriptionDate *string       `json:"subscriptionDate"`
	ExpiryDate       *string       `json:"expiryDate"`
	Price            *Price        `json:"price"`
}

type CreatePackageRequest struct {
	AccountID string       `json:"accountId" binding:"required"`
	Name      string       `json:"name" binding:"required,max=255"`
	Details   []Credential `json:"details"`
	Price     Price        `json:"price"`
}

type UpdatePackageRequest struct {
	AccountID *string       `json:"accountId"`
	Name      *string       `json:"name" binding:"omitempty,max=255"`
	Details   *[]Credential `json:"details"`
	Price     *Price        `json:"price"`
}

type ListParams struct {
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Type      string `form:"type" binding:"omitempty,oneof=subscription purchase"`
}
