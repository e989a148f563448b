package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/geni/gdpr-consent-api/internal/models"
)

// Context keys set by the middleware chain
const (
	ContextKeyUserURN       = "userURN"
	ContextKeyCorrelationID = "correlationID"
)

// Content types of the GDPR site responses
const (
	ContentTypeHTML       = "text/html"
	ContentTypeJavaScript = "application/javascript"
	ContentTypeCSS        = "text/css"
	ContentTypeJSON       = "application/json"
	ContentTypeText       = "text/plain"
)

// jsonIndent matches the indentation of the accepts document
const jsonIndent = "    "

// SendBody writes body with an explicit Content-Length
func SendBody(c *gin.Context, statusCode int, contentType string, body []byte) {
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(statusCode, contentType, body)
}

// SendIndentedJSON writes data as JSON indented by four spaces
func SendIndentedJSON(c *gin.Context, statusCode int, data interface{}) {
	body, err := json.MarshalIndent(data, "", jsonIndent)
	if err != nil {
		SendInternalServerError(c, "Failed to encode response")
		return
	}
	SendBody(c, statusCode, ContentTypeJSON, body)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Header("Content-Length", "0")
	c.Status(http.StatusNoContent)
	c.Writer.WriteHeaderNow()
}

// SendErrorResponse sends an error JSON response with the status mapped from errCode
func SendErrorResponse(c *gin.Context, errCode, message, details string) {
	body, err := json.Marshal(models.NewErrorResponse(errCode, message, details))
	if err != nil {
		body = []byte(`{"code":"` + models.ErrCodeInternalError + `"}`)
	}
	SendBody(c, models.HTTPStatusForErrorCode(errCode), ContentTypeJSON, body)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, errCode, message string) {
	SendErrorResponse(c, errCode, message, "")
}

// SendForbiddenResponse sends a plain text 403 Forbidden
func SendForbiddenResponse(c *gin.Context) {
	SendBody(c, http.StatusForbidden, ContentTypeText, []byte("Forbidden"))
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context) {
	SendErrorResponse(c, models.ErrCodeNotFound, "Not found", "")
}

// SendMethodNotAllowedError sends a 405 Method Not Allowed error
func SendMethodNotAllowedError(c *gin.Context) {
	SendErrorResponse(c, models.ErrCodeMethodNotAllowed, "Method not allowed here", "")
}

// SendStorageFailureError sends a 500 that never carries driver detail
func SendStorageFailureError(c *gin.Context) {
	SendErrorResponse(c, models.ErrCodeStorageFailure, "Consent storage unavailable", "")
}

// SendInternalServerError sends a 500 Internal Server Error
func SendInternalServerError(c *gin.Context, message string) {
	SendErrorResponse(c, models.ErrCodeInternalError, message, "")
}

// GetUserURNFromContext extracts the authenticated user URN from context
func GetUserURNFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyUserURN)
}

// GetCorrelationIDFromContext extracts correlation ID from context
func GetCorrelationIDFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
