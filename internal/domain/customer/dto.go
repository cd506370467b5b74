// internal/domain/customer/dto.go
package customer

type CreateCustomerRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	CountryCode string `json:"countryCode" binding:"required"`
	Phone       string `json:"phone" binding:"required,max=20"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`

	// Optional initial subscription
	PackageID        string `json:"packageId"`
	SubscriptionDate string `json:"subscriptionDate"`
	Duration         int    `json:"subscriptionDuration" binding:"omitempty,min=0"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	CountryCode *string `json:"countryCode"`
	Phone       *string `json:"phone" binding:"omitempty,max=20"`
	Email       *string `json:"email" binding:"omitempty,email,max=255"`

	// Full replacement of the history; diffed against the stored history to
	// derive counter deltas, never applied as a blind overwrite.
	SubscriptionHistory *[]Subscription `json:"subscriptionHistory"`
}

type ListParams struct {
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Package   string `form:"package"`
	Status    string `form:"status" binding:"omitempty,oneof=active expired sold"`
}
