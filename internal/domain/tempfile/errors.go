package tempfile

import "errors"

var (
	ErrFileNotFound = errors.New("temp file not found")
	ErrInvalidID    = errors.New("temp file id is not a valid uuid")
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)
