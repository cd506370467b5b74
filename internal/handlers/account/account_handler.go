// internal/handlers/account/account_handler.go
package account

import (
	"net/http"

	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/response"
	"subdesk-service/internal/service/account"
	"subdesk-service/internal/service/pack"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService *account.AccountService
	packageService *pack.PackageService
}

func NewAccountHandler(accountService *account.AccountService, packageService *pack.PackageService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		packageService: packageService,
	}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req catalog.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid account payload", err)
		return
	}

	created, err := h.accountService.CreateAccount(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "account created", created)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var params catalog.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "accounts retrieved", accounts)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	a, err := h.accountService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "account retrieved", a)
}

// ListAccountPackages returns the packages created from one account.
func (h *AccountHandler) ListAccountPackages(c *gin.Context) {
	packages, err := h.packageService.ListByAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "packages retrieved", packages)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req catalog.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid account payload", err)
		return
	}

	updated, err := h.accountService.UpdateAccount(c.Request.Context(), middleware.Actor(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "account updated", updated)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if err := h.accountService.DeleteAccount(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "account deleted", nil)
}
