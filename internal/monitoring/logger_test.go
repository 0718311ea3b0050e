package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func restoreLoggers(t *testing.T) {
	logf, warnf := Logf, Warnf
	t.Cleanup(func() { Logf, Warnf = logf, warnf })
}

func TestSetLogger(t *testing.T) {
	restoreLoggers(t)

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	assert.True(t, called, "custom logger was not called")

	// nil installs a no-op
	called = false
	SetLogger(nil)
	Logf("test message")
	Warnf("test message")
	assert.False(t, called, "no-op logger should not have triggered callback")
}

func TestSetLogger_WarnfPrefix(t *testing.T) {
	restoreLoggers(t)

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Warnf("skipped %d traces", 2)
	assert.Equal(t, []string{"warning: skipped 2 traces"}, got)
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() {
		Logf("test message: %s", "value")
	})
}

func TestUseZap(t *testing.T) {
	restoreLoggers(t)

	core, logs := observer.New(zapcore.InfoLevel)
	UseZap(zap.New(core))

	Logf("selected trace %d of %d", 0, 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "selected trace 0 of 3", entries[0].Message)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	}
}

func TestUseZap_Warnf(t *testing.T) {
	restoreLoggers(t)

	core, logs := observer.New(zapcore.InfoLevel)
	UseZap(zap.New(core))

	Warnf("using the first of %d traces", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "using the first of 3 traces", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	}
}

func TestUseZap_Nil(t *testing.T) {
	restoreLoggers(t)

	UseZap(nil)
	assert.NotPanics(t, func() {
		Logf("muted")
		Warnf("muted")
	})
}
