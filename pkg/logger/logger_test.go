package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "entry=%s", buf.String())
	return entry
}

func TestErrorCarriesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "pos-test", Level: zerolog.DebugLevel, Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithOrderID(ctx, "order-9")
	ctx = log.WithIngredientID(ctx, "ing-1")
	log.Error(ctx, "confirm failed", errors.New("boom"))

	entry := decodeEntry(t, buf)
	assert.Equal(t, "pos-test", entry["service"])
	assert.Equal(t, "req-123", entry[FieldRequestID])
	assert.Equal(t, "order-9", entry[FieldOrderID])
	assert.Equal(t, "ing-1", entry[FieldIngredientID])
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestFieldsDoNotLeakIntoParentContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "pos-test", Output: buf})

	parent := log.WithUserID(context.Background(), "cashier-1")
	_ = log.WithActorRole(parent, "cashier")
	log.Info(parent, "order created")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "cashier-1", entry[FieldUserID])
	assert.NotContains(t, entry, FieldActorRole)
}

func TestWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Output: buf}).Warn(context.Background(), "audit sink slow")
	assert.NotContains(t, decodeEntry(t, buf), "stack")

	buf.Reset()
	New(Options{Output: buf, WarnStack: true}).Warn(context.Background(), "audit sink slow")
	assert.Contains(t, decodeEntry(t, buf), "stack")
}

func TestLevelFiltersEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Level: zerolog.WarnLevel, Output: buf})
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len(), "entry=%s", buf.String())
}

func TestConsoleFormatIsNotJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Format: "Console", Output: buf}).Info(context.Background(), "started")
	assert.Contains(t, buf.String(), "started")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}
