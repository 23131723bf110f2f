package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "warn", "json")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Warn().Str("field", "x").Msg("shown")
	assert.Contains(t, buf.String(), `"field":"x"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNewWriterDefaults(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestNewWriterErrors(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)
	_, err = NewWriter(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
