package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/identity"
	"github.com/geni/gdpr-consent-api/internal/models"
	"github.com/geni/gdpr-consent-api/internal/rpcclient"
	"github.com/geni/gdpr-consent-api/internal/utils"
)

// RPCHandler relays POST calls outside the GDPR site to the RPC backend
type RPCHandler struct {
	forwarder *rpcclient.Forwarder
	logger    *logrus.Logger
}

// NewRPCHandler creates a new RPC handler instance
func NewRPCHandler(forwarder *rpcclient.Forwarder, logger *logrus.Logger) *RPCHandler {
	return &RPCHandler{forwarder: forwarder, logger: logger}
}

// Forward posts the request to the RPC backend and relays its answer.
// The caller's URN is passed along when the peer certificate carries one.
func (h *RPCHandler) Forward(c *gin.Context) {
	call := &rpcclient.Call{
		Path:          c.Request.URL.RequestURI(),
		ContentType:   c.GetHeader("Content-Type"),
		Body:          c.Request.Body,
		CorrelationID: utils.GetCorrelationIDFromContext(c),
	}
	if urn, ok := identity.UserURNFromTLS(c.Request.TLS); ok {
		call.ClientURN = urn
	}

	resp, err := h.forwarder.Forward(c.Request.Context(), call)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, rpcclient.ErrRequestTooLarge) {
			utils.SendBadRequestError(c, models.ErrCodePayloadTooLarge, "Client is sending too much data")
			return
		}
		utils.SendErrorResponse(c, models.ErrCodeUpstreamError, "RPC backend unavailable", "")
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	utils.SendBody(c, resp.StatusCode, contentType, resp.Body)
}
