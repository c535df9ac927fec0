package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewSetsLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(Config{Level: tt.level})
			assert.Equal(t, tt.expected, log.GetLevel())
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestNewPretty(t *testing.T) {
	log := New(Config{Level: "info", Pretty: true})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
