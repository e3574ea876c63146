package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  zapcore.Level
	}{
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "warning", want: zapcore.WarnLevel},
		{input: "ERROR", want: zapcore.ErrorLevel},
		{input: "  info  ", want: zapcore.InfoLevel},
		{input: "", want: zapcore.InfoLevel},
		{input: "gibberish", want: zapcore.InfoLevel},
	}
	for _, testCase := range cases {
		if got := ParseLevel(testCase.input); got != testCase.want {
			t.Fatalf("level %q parsed to %v, want %v", testCase.input, got, testCase.want)
		}
	}
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	logger, err := NewLogger("error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn entries must be suppressed at error level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error entries must be enabled at error level")
	}
}
