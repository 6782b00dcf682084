package billing

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"license-sync/pkg/middleware"
)

func TestWebhookEndpointAcksValidDelivery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, _ := newTestBillingService(t, noResolver(t))
	h := NewHandler(HandlerParams{Service: svc})

	r := gin.New()
	r.Use(middleware.Error())
	h.Register(r)

	payload := []byte(`{"id": "evt_1", "type": "charge.refunded", "data": {"object": {}}}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, signPayload(t, testSecret, time.Now(), payload))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"received":true`)
}

func TestWebhookEndpointRejectsUnsignedDelivery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, _ := newTestBillingService(t, noResolver(t))
	h := NewHandler(HandlerParams{Service: svc})

	r := gin.New()
	r.Use(middleware.Error())
	h.Register(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
