package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		env, level string
		debug      bool
	}{
		{"production", "", false},
		{"development", "", true},
		{"production", "debug", true},
		{"development", "warn", false},
	}
	for _, tc := range testCases {
		t.Run(tc.env+"/"+tc.level, func(t *testing.T) {
			logger, err := New(tc.env, tc.level)
			require.NoError(t, err)
			assert.Equal(t, tc.debug, logger.Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("production", "verbose")
	assert.Error(t, err)
}
