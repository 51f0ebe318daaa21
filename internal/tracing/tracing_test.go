package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewWithExporter_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	p, err := NewWithExporter("recruit-grader", "test", exporter)
	require.NoError(t, err)

	_, span := p.Start(context.Background(), "recalculate")
	span.SetString("cycle", "fall-2026").SetInt("succeeded", 12)
	span.End(nil)

	_, failed := p.Start(context.Background(), "categorize")
	failed.End(errors.New("no eligible applicants"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "recalculate", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "fall-2026", attrs["cycle"])
	assert.Equal(t, int64(12), attrs["succeeded"])

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "no eligible applicants", spans[1].Status.Description)

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_WritesFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.json")

	p, err := New("recruit-grader", "test", fname)
	require.NoError(t, err)
	_, span := p.Start(context.Background(), "export")
	span.End(nil)
	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"export"`)
}

func TestNew_Disabled(t *testing.T) {
	p, err := New("recruit-grader", "test", "")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, span := p.Start(context.Background(), "noop")
		span.SetInt("rows", 1).End(errors.New("ignored"))
	})
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.NotPanics(t, func() {
		_, span := p.Start(context.Background(), "noop")
		span.End(nil)
	})
	assert.NoError(t, p.Shutdown(context.Background()))
}
