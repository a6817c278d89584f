package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("default level = %s, want info", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("default pretty should be false")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LogLevel("warning"), zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{LogLevel("bogus"), zerolog.InfoLevel},
		{LogLevel(""), zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.level, got, tt.want)
			}
		})
	}
}

func TestSetup_WritesToConfiguredOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf})

	logger.Info().Str("category", "networkdevice").Msg("collection fetch complete")

	out := buf.String()
	if !strings.Contains(out, "collection fetch complete") {
		t.Errorf("output %q missing message", out)
	}
	if !strings.Contains(out, `"category":"networkdevice"`) {
		t.Errorf("output %q missing category field", out)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelWarn, Output: buf})

	logger.Debug().Msg("gate admission")
	logger.Info().Msg("fetch complete")

	if buf.Len() != 0 {
		t.Errorf("below-level messages were written: %q", buf.String())
	}

	logger.Warn().Msg("page fetch failed")
	if !strings.Contains(buf.String(), "page fetch failed") {
		t.Errorf("warn message not written: %q", buf.String())
	}
}

func TestNewLogger_ComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelDebug, Output: buf})

	logger := NewLogger("executor")
	logger.Info().Msg("call classified")

	if !strings.Contains(buf.String(), `"component":"executor"`) {
		t.Errorf("output %q missing component field", buf.String())
	}
}
