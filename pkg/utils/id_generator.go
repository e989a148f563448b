package utils

import (
	"github.com/google/uuid"
)

// GenerateCorrelationID generates a request correlation ID
func GenerateCorrelationID() string {
	return "GDPR-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
