package utils

import (
	"fmt"
	"strings"
)

// MaxUserURNLength is the longest user identifier the store accepts
const MaxUserURNLength = 255

// ValidateUserURN validates a user identifier before it is used as a store key
func ValidateUserURN(userURN, prefix string) error {
	if userURN == "" {
		return fmt.Errorf("user URN cannot be empty")
	}
	if len(userURN) > MaxUserURNLength {
		return fmt.Errorf("user URN too long (max %d characters)", MaxUserURNLength)
	}
	if !strings.HasPrefix(userURN, prefix) {
		return fmt.Errorf("user URN must start with %s", prefix)
	}
	return nil
}
