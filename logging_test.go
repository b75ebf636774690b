// logging_test.go: Tests for logger normalization and the test logger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AcceptsLoggerInterface(t *testing.T) {
	custom := NewTestLogger()
	logger := NewLogger(custom)
	assert.Same(t, Logger(custom), logger)
}

func TestNewLogger_NilGivesNoOp(t *testing.T) {
	logger := NewLogger(nil)
	require.IsType(t, &NoOpLogger{}, logger)

	// Must not panic and must stay silent.
	logger.Debug("msg")
	logger.Info("msg")
	logger.Warn("msg")
	logger.Error("msg")
	assert.Same(t, logger, logger.With("key", "value"))
}

func TestNewLogger_RejectsUnsupportedType(t *testing.T) {
	assert.Panics(t, func() {
		NewLogger("not a logger")
	})
}

func TestTestLogger_CapturesMessages(t *testing.T) {
	logger := NewTestLogger()

	logger.Debug("debug message", "k", 1)
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	logger.Error("another error")

	assert.Equal(t, 1, logger.Count("DEBUG"))
	assert.Equal(t, 1, logger.Count("INFO"))
	assert.Equal(t, 1, logger.Count("WARN"))
	assert.Equal(t, 2, logger.Count("ERROR"))

	assert.True(t, logger.HasMessage("INFO", "info"))
	assert.True(t, logger.HasMessage("ERROR", "another"))
	assert.False(t, logger.HasMessage("INFO", "nope"))
	assert.False(t, logger.HasMessage("WARN", "info message"), "level must match too")

	require.Len(t, logger.Messages, 5)
	assert.Equal(t, []any{"k", 1}, logger.Messages[0].Args)
}
