package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTransferConfig(t *testing.T) {
	config := DefaultTransferConfig()
	require.NotNil(t, config)
	require.NoError(t, config.Validate())

	assert.Equal(t, int32(DownloadChunkSize), config.DownloadChunkSize)
	assert.Equal(t, int32(UploadPartSize), config.UploadPartSize)
	assert.Equal(t, int64(BigFileThreshold), config.BigFileThreshold)
	assert.Equal(t, int64(MaxUploadSize), config.MaxUploadSize)
	assert.Equal(t, DefaultDownloadRoot, config.DownloadRoot)
	assert.NotNil(t, config.RetryPolicy)
}

func TestTransferConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*TransferConfig)
		expectError bool
	}{
		{"valid config", func(*TransferConfig) {}, false},
		{"smaller valid sizes", func(c *TransferConfig) {
			c.UploadPartSize = 64 * 1024
			c.DownloadChunkSize = 4096
		}, false},
		{"zero part size", func(c *TransferConfig) { c.UploadPartSize = 0 }, true},
		{"part size above limit", func(c *TransferConfig) { c.UploadPartSize = 1024 * 1024 }, true},
		{"part size not a multiple of 1KB", func(c *TransferConfig) { c.UploadPartSize = 1000 }, true},
		{"part size not dividing 512KB", func(c *TransferConfig) { c.UploadPartSize = 3 * 1024 }, true},
		{"chunk size not a multiple of 4KB", func(c *TransferConfig) { c.DownloadChunkSize = 5000 }, true},
		{"chunk size above limit", func(c *TransferConfig) { c.DownloadChunkSize = 2 * 1024 * 1024 }, true},
		{"max upload below threshold", func(c *TransferConfig) { c.MaxUploadSize = c.BigFileThreshold - 1 }, true},
		{"empty download root", func(c *TransferConfig) { c.DownloadRoot = "" }, true},
		{"nil retry policy", func(c *TransferConfig) { c.RetryPolicy = nil }, true},
		{"negative retries", func(c *TransferConfig) { c.RetryPolicy.MaxRetries = -1 }, true},
		{"max delay below initial", func(c *TransferConfig) {
			c.RetryPolicy.InitialDelay = time.Second
			c.RetryPolicy.MaxDelay = time.Millisecond
		}, true},
		{"backoff below one", func(c *TransferConfig) { c.RetryPolicy.BackoffFactor = 0.5 }, true},
		{"zero event buffer", func(c *TransferConfig) { c.EventBufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultTransferConfig()
			tt.modify(config)

			err := config.Validate()
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransferConfig_Parts(t *testing.T) {
	config := DefaultTransferConfig()

	tests := []struct {
		size  int64
		parts int32
		big   bool
	}{
		{1, 1, false},
		{UploadPartSize, 1, false},
		{UploadPartSize + 1, 2, false},
		{BigFileThreshold, 20, false},
		{BigFileThreshold + 1, 21, true},
		{MaxUploadSize, 3000, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.parts, config.PartsFor(tt.size), "parts for %d", tt.size)
		assert.Equal(t, tt.big, config.IsBigFile(tt.size), "big for %d", tt.size)
	}
}
