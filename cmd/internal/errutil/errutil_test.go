package errutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("AUTH_LOOKUP_FAILED").
		With("op", "identity.FindByIdentity").
		Errorf("connection reset")

	LogError(logger, "auth.authenticate.failed", err, "request_id", "r1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "auth.authenticate.failed", entry["msg"])
	assert.Equal(t, "AUTH_LOOKUP_FAILED", entry["code"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.Equal(t, map[string]any{"op": "identity.FindByIdentity"}, entry["context"])
}

func TestLogWarn_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogWarn(logger, "session.invalid", errors.New("token expired"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Contains(t, entry["error"], "token expired")
	assert.NotContains(t, entry, "code")
}

func TestAssertErrorCode(t *testing.T) {
	AssertErrorCode(t, oops.Code("X").Errorf("boom"), "X")
}
