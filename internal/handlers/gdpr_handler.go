package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/models"
	"github.com/geni/gdpr-consent-api/internal/service"
	"github.com/geni/gdpr-consent-api/internal/utils"
)

// GdprHandler handles the requests of the GDPR consent site
type GdprHandler struct {
	gdprService    *service.GdprService
	maxAcceptBytes int64
	logger         *logrus.Logger
}

// NewGdprHandler creates a new GDPR handler instance
func NewGdprHandler(gdprService *service.GdprService, maxAcceptBytes int64, logger *logrus.Logger) *GdprHandler {
	return &GdprHandler{
		gdprService:    gdprService,
		maxAcceptBytes: maxAcceptBytes,
		logger:         logger,
	}
}

// Page handles GET /gdpr, /gdpr/ and /gdpr/index.html
func (h *GdprHandler) Page(c *gin.Context) {
	utils.SendBody(c, http.StatusOK, utils.ContentTypeHTML, h.gdprService.HTML())
}

// Script handles GET /gdpr/gdpr.js
func (h *GdprHandler) Script(c *gin.Context) {
	utils.SendBody(c, http.StatusOK, utils.ContentTypeJavaScript, h.gdprService.JS())
}

// Stylesheet handles GET /gdpr/gdpr.css
func (h *GdprHandler) Stylesheet(c *gin.Context) {
	utils.SendBody(c, http.StatusOK, utils.ContentTypeCSS, h.gdprService.CSS())
}

// GetAccepts handles GET /gdpr/accept. A user without a record gets a JSON null.
func (h *GdprHandler) GetAccepts(c *gin.Context) {
	accepts, err := h.gdprService.GetUserAccepts(c.Request.Context(), utils.GetUserURNFromContext(c))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	if accepts == nil {
		utils.SendIndentedJSON(c, http.StatusOK, nil)
		return
	}
	utils.SendIndentedJSON(c, http.StatusOK, accepts)
}

// PutAccepts handles PUT /gdpr/accept
func (h *GdprHandler) PutAccepts(c *gin.Context) {
	if c.Request.ContentLength > h.maxAcceptBytes {
		utils.SendBadRequestError(c, models.ErrCodePayloadTooLarge, "Client is sending too much data")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxAcceptBytes+1))
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read accept payload")
		utils.SendBadRequestError(c, models.ErrCodeRequiredDataMissing, "Required data missing")
		return
	}
	if int64(len(body)) > h.maxAcceptBytes {
		utils.SendBadRequestError(c, models.ErrCodePayloadTooLarge, "Client is sending too much data")
		return
	}
	if len(body) == 0 {
		utils.SendBadRequestError(c, models.ErrCodeRequiredDataMissing, "Required data missing")
		return
	}

	request, err := models.ParseAcceptRequest(body)
	if err != nil {
		utils.SendBadRequestError(c, models.ErrCodeMalformedPayload, "JSON parse exception")
		return
	}

	if err := h.gdprService.RegisterAccept(c.Request.Context(), utils.GetUserURNFromContext(c), request); err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendNoContentResponse(c)
}

// DeleteAccepts handles DELETE /gdpr, /gdpr/ and /gdpr/accept
func (h *GdprHandler) DeleteAccepts(c *gin.Context) {
	if err := h.gdprService.RegisterDecline(c.Request.Context(), utils.GetUserURNFromContext(c)); err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendNoContentResponse(c)
}

func (h *GdprHandler) sendServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, models.ErrInvalidUserURN):
		utils.SendForbiddenResponse(c)
	case errors.Is(err, models.ErrStorageFailure):
		utils.SendStorageFailureError(c)
	default:
		utils.SendInternalServerError(c, "Failed to process request")
	}
}
