package logging

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewTeesIntoExtra(t *testing.T) {
	var out lockedBuffer
	logger, err := New(Options{Extra: &out})
	require.NoError(t, err)

	logger.Info("pivots generated", zap.String("set", "ADF"))
	logger.Debug("hidden")

	text := out.String()
	assert.Contains(t, text, "pivots generated")
	assert.Contains(t, text, `"set": "ADF"`)
	assert.NotContains(t, text, "hidden")
}

func TestNewVerboseLogsDebug(t *testing.T) {
	var out lockedBuffer
	logger, err := New(Options{Verbose: true, Console: true, Extra: &out})
	require.NoError(t, err)

	logger.Debug("column renamed")
	assert.Contains(t, out.String(), "column renamed")
}
