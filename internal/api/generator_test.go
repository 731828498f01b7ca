package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", 401, ErrAuthentication},
		{"forbidden", 403, ErrAuthentication},
		{"rate limited", 429, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(&anthropic.Error{StatusCode: tt.status})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v in chain, got %v", tt.want, err)
		})
	}
}

func TestClassify_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := classify(cause)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAuthentication)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	c, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, c.Model())
	assert.Equal(t, int64(8192), c.maxTokens)
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	assert.Equal(t, anthropic.Model("us.anthropic.claude-sonnet-4-20250514-v1:0"), got)

	// Unknown names pass through untouched.
	custom := anthropic.Model("us.anthropic.custom-v1:0")
	assert.Equal(t, custom, translateModelForBedrock(custom))
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(100, 50)
	tr.Add(10, 5)

	in, out := tr.Total()
	assert.Equal(t, int64(110), in)
	assert.Equal(t, int64(55), out)
	assert.Equal(t, 2, tr.Calls())
}
