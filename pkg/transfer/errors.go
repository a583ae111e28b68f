package transfer

import (
	"errors"
	"fmt"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

// LocalIOError is a failure of the local filesystem while reading a source
// file or writing a destination.
type LocalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LocalIOError) Unwrap() error {
	return e.Err
}

func localIO(op, path string, err error) error {
	return &LocalIOError{Op: op, Path: path, Err: err}
}

// translateServiceError maps an id the service refuses onto the local
// invalid-identifier kind. Other errors pass through unchanged.
func translateServiceError(err error) error {
	if errors.Is(err, rpc.ErrFileIDInvalid) {
		return fmt.Errorf("%w: %w", fileid.ErrInvalidIdentifier, err)
	}
	return err
}
