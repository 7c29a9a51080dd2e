package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "ptv")
	l.SetLevel(WarnLevel)

	ctx := context.Background()
	l.Debug(ctx, "debug-line")
	l.Info(ctx, "info-line")
	l.Warn(ctx, "warn-line", String("k", "v"))
	l.Error(ctx, "error-line", Error(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "debug-line")
	assert.NotContains(t, out, "info-line")
	assert.Contains(t, out, "[WARN] ptv warn-line k=v")
	assert.Contains(t, out, "error=boom")
}

func TestStdLogger_WithFieldsSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "")
	child := l.WithFields(String("component", "history"))
	l.SetLevel(ErrorLevel)

	child.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(DebugLevel)
	id := uuid.MustParse("6f1c1f8e-2b59-4d43-9f0d-0d8f0c5c1a11")
	child.Debug(context.Background(), "shown", UUID("root", id))
	assert.True(t, strings.Contains(buf.String(), "component=history"))
	assert.Contains(t, buf.String(), "root="+id.String())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "warning": WarnLevel, "error": ErrorLevel, "": InfoLevel}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetLogger_Global(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	SetLogger(NewStdLoggerTo(&buf, ""))
	ComponentLogger("sweeper").Info(context.Background(), "tick")
	assert.Contains(t, buf.String(), "component=sweeper")

	SetLogger(nil)
	assert.IsType(t, &NoopLogger{}, GetLogger())
}
