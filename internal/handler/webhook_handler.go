package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"relaydesk/internal/provider"
	"relaydesk/internal/transport/httpdto"
	"relaydesk/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// InboundProcessor consumes verified inbound message payloads.
type InboundProcessor interface {
	ProcessInbound(ctx context.Context, payload provider.InboundPayload)
}

// ReceiptProcessor consumes verified delivery receipts.
type ReceiptProcessor interface {
	ProcessReceipt(ctx context.Context, payload provider.StatusPayload)
}

// WebhookHandler is the provider-facing ingress. Signature verification is
// the only gate that may reject a request. Once a payload passes it, the
// response is 200 no matter what processing does: a non-200 makes the
// provider redeliver the same payload, and nothing past the signature
// check gets better on retry.
type WebhookHandler struct {
	ingest        InboundProcessor
	receipts      ReceiptProcessor
	signingSecret string
	publicBaseURL string
	log           *logger.Logger
}

func NewWebhookHandler(ingest InboundProcessor, receipts ReceiptProcessor, signingSecret, publicBaseURL string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		ingest:        ingest,
		receipts:      receipts,
		signingSecret: signingSecret,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// Inbound receives new-message webhooks. An invalid signature is the one
// rejectable condition and returns 401.
func (h *WebhookHandler) Inbound(c *gin.Context) {
	body, ok := h.readAndVerify(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("invalid signature", "INVALID_SIGNATURE"))
		return
	}

	payload, err := provider.ParseInbound(body)
	if err != nil {
		h.log.WarnCtx(c.Request.Context(), "unparseable inbound webhook body")
	} else {
		h.ingest.ProcessInbound(c.Request.Context(), payload)
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Status receives delivery receipts. Receipts are lower trust: a bad
// signature is logged but still acknowledged, since rejecting it only
// triggers redelivery of a payload that will never verify.
func (h *WebhookHandler) Status(c *gin.Context) {
	body, ok := h.readAndVerify(c)
	if !ok {
		h.log.WarnCtx(c.Request.Context(), "status receipt failed signature check")
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
		return
	}

	payload, err := provider.ParseStatus(body)
	if err != nil {
		h.log.WarnCtx(c.Request.Context(), "unparseable status receipt body")
	} else {
		h.receipts.ProcessReceipt(c.Request.Context(), payload)
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// readAndVerify reads the raw body and checks the provider signature over
// the callback URL plus the exact bytes received. The body must be read
// before any form parsing touches it.
func (h *WebhookHandler) readAndVerify(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		return nil, false
	}

	callbackURL := h.publicBaseURL + c.Request.URL.Path
	signature := c.GetHeader(provider.SignatureHeader)
	if !provider.VerifySignature(h.signingSecret, callbackURL, body, signature) {
		return nil, false
	}
	return body, true
}
