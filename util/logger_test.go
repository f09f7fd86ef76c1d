package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_LevelGating(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  []string
		skip  []string
	}{
		{LogNone, nil, []string{"[ERR]", "[WRN]", "[INF]", "[DBG]"}},
		{LogError, []string{"[ERR]"}, []string{"[WRN]", "[INF]", "[DBG]"}},
		{LogWarn, []string{"[ERR]", "[WRN]"}, []string{"[INF]", "[DBG]"}},
		{LogInfo, []string{"[ERR]", "[WRN]", "[INF]"}, []string{"[DBG]"}},
		{LogDebug, []string{"[ERR]", "[WRN]", "[INF]", "[DBG]"}, nil},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		l := NewLogger(tt.level)
		l.SetOutput(&buf)
		l.SetTimestamps(false)

		l.Error("e")
		l.Warn("w")
		l.Info("i")
		l.Debug("d")

		out := buf.String()
		for _, prefix := range tt.want {
			if !strings.Contains(out, prefix) {
				t.Errorf("level %d: output %q missing %q", tt.level, out, prefix)
			}
		}
		for _, prefix := range tt.skip {
			if strings.Contains(out, prefix) {
				t.Errorf("level %d: output %q should not contain %q", tt.level, out, prefix)
			}
		}
	}
}

func TestLogger_Formatting(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogInfo)
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Info("connected to %s:%d", "example.com", 443)
	if got, want := buf.String(), "[INF] connected to example.com:443\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogDebug) // debug auto-enables timestamps
	l.SetOutput(&buf)

	l.Debug("x")
	line := buf.String()
	if strings.HasPrefix(line, "[DBG]") {
		t.Errorf("debug logger should prepend a timestamp, got %q", line)
	}
	if !strings.Contains(line, "[DBG] x") {
		t.Errorf("output %q missing the message", line)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Error("ignored")
	l.Warn("ignored")
	l.Info("ignored")
	l.Debug("ignored")
	if l.Level() != LogNone {
		t.Errorf("nil Level = %d, want LogNone", l.Level())
	}
}
