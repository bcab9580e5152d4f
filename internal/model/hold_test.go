package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldLive(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		status    string
		expiresAt time.Time
		want      bool
	}{
		{"held with future expiry", HoldStatusHeld, now.Add(time.Minute), true},
		{"held at exact expiry", HoldStatusHeld, now, false},
		{"held past expiry", HoldStatusHeld, now.Add(-time.Second), false},
		{"released", HoldStatusReleased, now.Add(time.Minute), false},
		{"expired", HoldStatusExpired, now.Add(time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &Hold{Status: tc.status, ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.want, h.Live(now))
		})
	}
}
