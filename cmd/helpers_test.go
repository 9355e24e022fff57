package cmd

import (
	"strings"
	"testing"
	"time"
)

func TestFormatExpiry(t *testing.T) {
	tests := []struct {
		name      string
		expiresOn time.Time
		want      string
	}{
		{
			name:      "expired token",
			expiresOn: time.Now().Add(-time.Minute),
			want:      "(expired)",
		},
		{
			name:      "expiring soon",
			expiresOn: time.Now().Add(2 * time.Minute),
			want:      "(in ",
		},
		{
			name:      "plenty of time left",
			expiresOn: time.Now().Add(time.Hour),
			want:      "(in ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatExpiry(tt.expiresOn)
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatExpiry() = %q, expected it to contain %q", got, tt.want)
			}
		})
	}
}
