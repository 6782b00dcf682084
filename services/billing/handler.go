package billing

import (
	"net/http"

	"license-sync/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type Handler struct {
	svc *Service
}

type HandlerParams struct {
	fx.In
	Service *Service
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{svc: p.Service}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/webhooks/stripe", h.Webhook)
}

// Webhook reads the raw body before anything can re-serialize it, then hands
// off to the service. The acknowledgment contract lives in
// Service.HandleEvent: a nil error always acks 200.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.Error(errutil.BadRequest("failed to read request body", err))
		return
	}

	if err := h.svc.HandleEvent(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
