package utils

import (
	"strings"
	"testing"
)

const testPrefix = "urn:publicid:IDN+"

func TestValidateUserURN(t *testing.T) {
	tests := []struct {
		name    string
		urn     string
		wantErr bool
	}{
		{"valid URN", "urn:publicid:IDN+example.org+user+alice", false},
		{"empty", "", true},
		{"wrong prefix", "urn:uuid:1234", true},
		{"max length", testPrefix + strings.Repeat("a", MaxUserURNLength-len(testPrefix)), false},
		{"too long", testPrefix + strings.Repeat("a", MaxUserURNLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserURN(tt.urn, testPrefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUserURN(%q) error = %v, wantErr %v", tt.urn, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateCorrelationID()
		if !strings.HasPrefix(id, "GDPR-") {
			t.Fatalf("unexpected correlation ID format: %s", id)
		}
		if !IsValidUUID(strings.TrimPrefix(id, "GDPR-")) {
			t.Fatalf("correlation ID does not wrap a UUID: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate correlation ID: %s", id)
		}
		seen[id] = true
	}
}
