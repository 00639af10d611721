package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesDailyFile(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(Options{Dir: dir, Level: "debug"})
	require.NoError(t, err)

	log.Debugw("hello", "k", "v")
	require.NoError(t, log.Sync())

	name := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"hello"`)
	assert.Contains(t, string(raw), `"level":"debug"`)
}

func TestFromContext(t *testing.T) {
	assert.Same(t, zap.S(), FromContext(context.Background()))

	l := zap.NewNop().Sugar().With("request_id", "abc")
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
