package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to AccountStatus
		want     bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusReject, true},
		{StatusActive, StatusReject, true},
		{StatusReject, StatusActive, true},
		{StatusActive, StatusActive, true},
		{StatusReject, StatusReject, true},
		{"unknown", "unknown", false},
		{StatusActive, StatusPending, false},
		{StatusReject, StatusPending, false},
		{"unknown", StatusActive, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAccountStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusReject.Valid())
	assert.False(t, AccountStatus("deleted").Valid())
}

func TestResetCode_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, ResetCode{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, ResetCode{ExpiresAt: now}.Expired(now))
	assert.True(t, ResetCode{ExpiresAt: now.Add(-time.Second)}.Expired(now))
}
