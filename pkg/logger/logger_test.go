package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, flush, err := New(Config{Level: "info", Format: "json", Output: path}, zap.String("app", "usedbooks"))
	require.NoError(t, err)

	log.Info("order confirmed", zap.String("order_id", "u1_b1_1"))
	log.Debug("should be filtered")
	require.NoError(t, flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"order confirmed"`)
	assert.Contains(t, string(data), `"app":"usedbooks"`)
	assert.NotContains(t, string(data), "should be filtered")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}
