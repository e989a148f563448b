package utils

import (
	"testing"
	"time"
)

func TestFormatTimestamp_UsesNumericOffset(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "UTC with microseconds",
			input:    time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC),
			expected: "2024-05-01T09:30:00.123456+00:00",
		},
		{
			name:     "UTC whole second",
			input:    time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			expected: "2024-05-01T09:30:00+00:00",
		},
		{
			name:     "fixed offset",
			input:    time.Date(2024, 5, 1, 11, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			expected: "2024-05-01T11:30:00+02:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTimestamp(tt.input)
			if got != tt.expected {
				t.Errorf("FormatTimestamp() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
		wantUTC time.Time
	}{
		{
			name:    "numeric offset",
			value:   "2024-05-01T09:30:00.123456+00:00",
			wantUTC: time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC),
		},
		{
			name:    "zulu",
			value:   "2024-05-01T09:30:00Z",
			wantUTC: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "non-UTC offset",
			value:   "2024-05-01T11:30:00+02:00",
			wantUTC: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "space separator",
			value:   "2024-05-01 09:30:00.5+00:00",
			wantUTC: time.Date(2024, 5, 1, 9, 30, 0, 500000000, time.UTC),
		},
		{name: "naive", value: "2024-05-01T09:30:00.123456", wantErr: true},
		{name: "naive with space", value: "2024-05-01 09:30:00", wantErr: true},
		{name: "garbage", value: "yesterday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q) expected error, got %v", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.value, err)
			}
			if !got.Equal(tt.wantUTC) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.value, got, tt.wantUTC)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	now := NowUTC()
	parsed, err := ParseTimestamp(FormatTimestamp(now))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !parsed.Equal(now.Truncate(time.Microsecond)) {
		t.Errorf("round trip = %v, want %v", parsed, now.Truncate(time.Microsecond))
	}
	if _, offset := parsed.Zone(); offset != 0 {
		t.Errorf("expected UTC offset, got %d", offset)
	}
}
