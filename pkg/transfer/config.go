package transfer

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// TransferConfig holds all configuration for downloads and uploads.
type TransferConfig struct {
	// Bytes requested per GetFile call.
	DownloadChunkSize int32 `json:"download_chunk_size" validate:"gt=0,lte=1048576"`
	// Bytes per uploaded part.
	UploadPartSize int32 `json:"upload_part_size" validate:"gt=0,lte=524288"`
	// Files larger than this are uploaded with SaveBigFilePart.
	BigFileThreshold int64 `json:"big_file_threshold" validate:"gt=0"`
	// Largest file the service accepts.
	MaxUploadSize int64 `json:"max_upload_size" validate:"gtfield=BigFileThreshold"`

	// Directory used when a download names none; relative directories are
	// resolved against it.
	DownloadRoot string `json:"download_root" validate:"required"`

	// Retry policy for missing upload parts
	RetryPolicy *RetryPolicy `json:"retry_policy" validate:"required"`

	// Event settings
	EventBufferSize int `json:"event_buffer_size" validate:"gt=0"`
}

const (
	DownloadChunkSize   = 1024 * 1024        // 1MB, the most GetFile returns in one call
	UploadPartSize      = 512 * 1024         // 512KB, the largest part the service accepts
	BigFileThreshold    = 10 * 1024 * 1024   // 10MB
	MaxUploadSize       = 1500 * 1024 * 1024 // 1500MB
	DefaultDownloadRoot = "downloads"
)

var validate = validator.New()

// DefaultTransferConfig returns a configuration with sensible defaults
func DefaultTransferConfig() *TransferConfig {
	return &TransferConfig{
		DownloadChunkSize: DownloadChunkSize,
		UploadPartSize:    UploadPartSize,
		BigFileThreshold:  BigFileThreshold,
		MaxUploadSize:     MaxUploadSize,
		DownloadRoot:      DefaultDownloadRoot,
		RetryPolicy:       DefaultRetryPolicy(),
		EventBufferSize:   100,
	}
}

// Validate checks if the configuration values are valid
func (tc *TransferConfig) Validate() error {
	if err := validate.Struct(tc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	// The service only accepts sizes that evenly divide its maximum.
	if tc.UploadPartSize%1024 != 0 || UploadPartSize%tc.UploadPartSize != 0 {
		return fmt.Errorf("%w: upload_part_size must be a multiple of 1024 dividing %d",
			ErrInvalidConfiguration, UploadPartSize)
	}
	if tc.DownloadChunkSize%4096 != 0 || DownloadChunkSize%tc.DownloadChunkSize != 0 {
		return fmt.Errorf("%w: download_chunk_size must be a multiple of 4096 dividing %d",
			ErrInvalidConfiguration, DownloadChunkSize)
	}
	if tc.RetryPolicy.BackoffFactor < 1 {
		return errors.Join(ErrInvalidConfiguration, errors.New("backoff_factor cannot be less than 1"))
	}
	return nil
}

// PartsFor returns how many upload parts a file of the given size needs.
func (tc *TransferConfig) PartsFor(fileSize int64) int32 {
	part := int64(tc.UploadPartSize)
	return int32((fileSize + part - 1) / part)
}

// IsBigFile reports whether a file of the given size uses big-file parts.
func (tc *TransferConfig) IsBigFile(fileSize int64) bool {
	return fileSize > tc.BigFileThreshold
}
