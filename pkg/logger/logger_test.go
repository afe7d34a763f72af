package logger

import (
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewGlobal(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	require.NoError(t, NewGlobal("debug", false))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	assert.Error(t, NewGlobal("loud", false))
}
