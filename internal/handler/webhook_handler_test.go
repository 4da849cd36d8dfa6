package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaydesk/internal/provider"
	"relaydesk/pkg/logger"
)

const (
	testSecret  = "wh-secret"
	testBaseURL = "https://api.relaydesk.example.com"
)

type recordingIngest struct {
	payloads []provider.InboundPayload
}

func (r *recordingIngest) ProcessInbound(_ context.Context, payload provider.InboundPayload) {
	r.payloads = append(r.payloads, payload)
}

type recordingReceipts struct {
	payloads []provider.StatusPayload
}

func (r *recordingReceipts) ProcessReceipt(_ context.Context, payload provider.StatusPayload) {
	r.payloads = append(r.payloads, payload)
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *recordingIngest, *recordingReceipts) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ingest := &recordingIngest{}
	receipts := &recordingReceipts{}
	h := NewWebhookHandler(ingest, receipts, testSecret, testBaseURL, logger.NewNop())

	router := gin.New()
	router.POST("/v1/webhooks/inbound", h.Inbound)
	router.POST("/v1/webhooks/status", h.Status)
	return router, ingest, receipts
}

func signedRequest(t *testing.T, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(provider.SignatureHeader,
		provider.ComputeSignature(testSecret, testBaseURL+path, []byte(body)))
	return req
}

func inboundForm() string {
	form := url.Values{}
	form.Set("From", "+15557772222")
	form.Set("To", "+15550001111")
	form.Set("Body", "hello")
	form.Set("MessageSid", "SM1")
	return form.Encode()
}

func TestInboundWebhookAccepted(t *testing.T) {
	router, ingest, _ := newWebhookRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "/v1/webhooks/inbound", inboundForm()))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ingest.payloads, 1)
	assert.Equal(t, "+15557772222", ingest.payloads[0].From)
	assert.Equal(t, "SM1", ingest.payloads[0].ExternalMessageID)
}

func TestInboundWebhookBadSignatureRejected(t *testing.T) {
	router, ingest, _ := newWebhookRouter(t)

	body := inboundForm()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/inbound", strings.NewReader(body))
	req.Header.Set(provider.SignatureHeader, "not-a-signature")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ingest.payloads)
}

func TestInboundWebhookSignatureCoversURL(t *testing.T) {
	router, ingest, _ := newWebhookRouter(t)

	// signature computed over a different callback URL must not verify
	body := inboundForm()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/inbound", strings.NewReader(body))
	req.Header.Set(provider.SignatureHeader,
		provider.ComputeSignature(testSecret, "https://evil.example.com/v1/webhooks/inbound", []byte(body)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ingest.payloads)
}

func TestInboundWebhookUnparseableBodyStillAcked(t *testing.T) {
	router, ingest, _ := newWebhookRouter(t)

	body := "%%%not-a-form"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "/v1/webhooks/inbound", body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ingest.payloads)
}

func TestStatusWebhookAccepted(t *testing.T) {
	router, _, receipts := newWebhookRouter(t)

	form := url.Values{}
	form.Set("From", "+15550001111")
	form.Set("MessageSid", "SM2")
	form.Set("MessageStatus", "delivered")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, "/v1/webhooks/status", form.Encode()))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, receipts.payloads, 1)
	assert.Equal(t, "SM2", receipts.payloads[0].ExternalMessageID)
	assert.Equal(t, "delivered", receipts.payloads[0].Status)
}

func TestStatusWebhookBadSignatureStillAcked(t *testing.T) {
	router, _, receipts := newWebhookRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/status", strings.NewReader("MessageSid=SM3"))
	req.Header.Set(provider.SignatureHeader, "garbage")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// lower trust path: acknowledged but not processed
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, receipts.payloads)
}
