package license

import (
	"net/http"

	"license-sync/pkg/config"
	"license-sync/pkg/db/pagination"
	"license-sync/pkg/errutil"
	"license-sync/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type Handler struct {
	svc *Service
	cfg *config.Config
}

type HandlerParams struct {
	fx.In
	Service *Service
	Config  *config.Config
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{svc: p.Service, cfg: p.Config}
}

func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.GET("/licenses/validate", h.Validate)

	admin := v1.Group("/licenses", middleware.AdminKey(h.cfg.Admin.APIKey))
	admin.POST("/grant", h.Grant)
	admin.GET("", h.List)
}

// Validate always answers 200 for licensing facts; "not licensed" is an
// answer, not a failure. Only a storage fault surfaces as an error status.
func (h *Handler) Validate(c *gin.Context) {
	result, err := h.svc.Validate(c.Request.Context(), c.Query("email"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type grantRequest struct {
	Email  string `json:"email"`
	Months int    `json:"months"`
}

func (h *Handler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	lic, err := h.svc.Grant(c.Request.Context(), req.Email, req.Months)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, lic)
}

type listResponse struct {
	Licenses []*License           `json:"licenses"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

func (h *Handler) List(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.Error(errutil.BadRequest("invalid pagination params", err))
		return
	}

	licenses, pageInfo, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, listResponse{Licenses: licenses, PageInfo: pageInfo})
}
