// internal/handlers/pack/package_handler.go
package pack

import (
	"net/http"

	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/response"
	"subdesk-service/internal/service/pack"

	"github.com/gin-gonic/gin"
)

type PackageHandler struct {
	packageService *pack.PackageService
}

func NewPackageHandler(packageService *pack.PackageService) *PackageHandler {
	return &PackageHandler{
		packageService: packageService,
	}
}

func (h *PackageHandler) CreatePackage(c *gin.Context) {
	var req catalog.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid package payload", err)
		return
	}

	created, err := h.packageService.CreatePackage(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "package created", created)
}

func (h *PackageHandler) ListPackages(c *gin.Context) {
	var params catalog.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	packages, err := h.packageService.ListPackages(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "packages retrieved", packages)
}

func (h *PackageHandler) GetPackage(c *gin.Context) {
	p, err := h.packageService.GetPackage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "package retrieved", p)
}

func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	var req catalog.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid package payload", err)
		return
	}

	updated, err := h.packageService.UpdatePackage(c.Request.Context(), middleware.Actor(c), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "package updated", updated)
}

func (h *PackageHandler) DeletePackage(c *gin.Context) {
	if err := h.packageService.DeletePackage(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "package deleted", nil)
}
