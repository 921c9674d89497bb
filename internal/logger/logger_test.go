package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("file", "statement.pdf").Msg("extracted")

	out := buf.String()
	if !strings.Contains(out, `"message":"extracted"`) || !strings.Contains(out, `"file":"statement.pdf"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLevel(t *testing.T) {
	if got := New("warn", FormatJSON).GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("got %v, want warn", got)
	}
}

func TestContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	l := FromContext(ctx)
	l.Info().Msg("from context")
	if buf.Len() == 0 {
		t.Error("expected output from the stored logger")
	}

	// A bare context yields a logger that writes nothing and does not panic.
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
}
