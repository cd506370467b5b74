// internal/handlers/customer/customer_handler.go
package customer

import (
	"net/http"
	"time"

	"subdesk-service/internal/domain/customer"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/response"
	customersvc "subdesk-service/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService *customersvc.CustomerService
}

func NewCustomerHandler(customerService *customersvc.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid customer payload", err)
		return
	}

	created, err := h.customerService.CreateCustomer(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "customer created", created)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var params customer.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	customers, err := h.customerService.ListCustomers(c.Request.Context(), params, time.Now())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", customers)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	cust, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", cust)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req customer.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid customer payload", err)
		return
	}

	updated, err := h.customerService.UpdateCustomer(c.Request.Context(), middleware.Actor(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "customer updated", updated)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.DeleteCustomer(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "customer deleted", nil)
}
