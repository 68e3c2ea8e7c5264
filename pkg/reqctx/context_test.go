package reqctx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestMeta(t *testing.T) {
	ctx := context.Background()
	_, ok := RequestMetaFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "rid-1", RequestedAt: time.Now()})
	meta, ok := RequestMetaFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "rid-1", meta.RequestID)
	assert.Equal(t, "rid-1", RequestIDFromContext(ctx))
}

func TestLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "rid-2"})
	Logger(ctx).Info("hello")
	Logger(context.Background()).Info("bare")

	assert.Contains(t, buf.String(), "request_id=rid-2")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("request_id")))
}
