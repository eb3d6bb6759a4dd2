package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

// reinstall forgets the installed provider so each test can call Init afresh.
func reinstall(t *testing.T) {
	t.Helper()
	require.NoError(t, Shutdown(context.Background()))
	providerOnce = sync.Once{}
	providerErr = nil
	provider = nil
	otel.SetTracerProvider(noop.NewTracerProvider())
}

func TestStartRecordsSpans(t *testing.T) {
	reinstall(t)
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("taskmatch-test", "dev", exp))
	exp.Reset()

	ctx, end := Start(context.Background(), "recommend", attribute.String("task.id", "t-1"))
	_, child := Start(ctx, "rank")
	Annotate(ctx, attribute.Int("candidates", 3))
	child(nil)
	end(errors.New("boom"))

	spans := exp.GetSpans()
	require.Len(t, spans, 2)

	rank, rec := spans[0], spans[1]
	assert.Equal(t, "rank", rank.Name)
	assert.Equal(t, codes.Ok, rank.Status.Code)
	assert.Equal(t, rec.SpanContext.SpanID(), rank.Parent.SpanID())

	assert.Equal(t, "recommend", rec.Name)
	assert.Equal(t, codes.Error, rec.Status.Code)
	assert.Contains(t, rec.Attributes, attribute.String("task.id", "t-1"))
	assert.Contains(t, rec.Attributes, attribute.Int("candidates", 3))

	// A second install is ignored.
	require.NoError(t, InitWithExporter("other", "dev", tracetest.NewInMemoryExporter()))
	_, end = Start(context.Background(), "again")
	end(nil)
	assert.Len(t, exp.GetSpans(), 3)
}

func TestInitWritesFileAndClosesItOnShutdown(t *testing.T) {
	reinstall(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "spans.json")
	second := filepath.Join(dir, "ignored.json")

	require.NoError(t, Init("taskmatch-test", "dev", first))
	require.NoError(t, Init("taskmatch-test", "dev", second))
	_, err := os.Stat(second)
	assert.True(t, os.IsNotExist(err), "a second Init must not open a file")

	_, end := Start(context.Background(), "assign")
	end(nil)

	require.NoError(t, Shutdown(context.Background()))
	assert.Nil(t, output)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(data), "assign")

	// Shutting down twice is harmless.
	assert.NoError(t, Shutdown(context.Background()))
}

func TestInitNilExporter(t *testing.T) {
	assert.NoError(t, InitWithExporter("x", "y", nil))
}
