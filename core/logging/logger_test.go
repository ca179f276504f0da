package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{input: "debug", expected: zerolog.DebugLevel},
		{input: "WARN", expected: zerolog.WarnLevel},
		{input: " error ", expected: zerolog.ErrorLevel},
		{input: "", expected: zerolog.InfoLevel},
		{input: "verbose", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestInitLoggerWithWriter(t *testing.T) {
	previous := log.Logger
	previousLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(previousLevel)
		zerolog.DefaultContextLogger = nil
	})

	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, "prod", "info")

	log.Ctx(context.Background()).Info().Msg("✅ ready")
	log.Debug().Msg("hidden")

	line := buf.String()
	assert.Equal(t, "✅ ready", gjson.Get(line, "message").String())
	assert.Equal(t, "convbackend", gjson.Get(line, "service").String())
	assert.NotContains(t, line, "hidden")
}
