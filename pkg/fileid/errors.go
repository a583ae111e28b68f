package fileid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier is returned for blobs that are not validly framed
	// or whose length does not match the layout selected by their tag.
	ErrInvalidIdentifier = errors.New("invalid file id")

	// ErrUnsupportedMediaType matches any *UnsupportedMediaTypeError.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// UnsupportedMediaTypeError reports a well-formed blob carrying a tag that
// selects none of the known layouts.
type UnsupportedMediaTypeError struct {
	Tag int32
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type: %d", e.Tag)
}

func (e *UnsupportedMediaTypeError) Is(target error) bool {
	return target == ErrUnsupportedMediaType
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidIdentifier, fmt.Sprintf(format, args...))
}
