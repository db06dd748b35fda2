package markdown

import "errors"

// Sentinel errors for library operations.
var (
	// ErrInternal reports a logic fault recovered during a conversion.
	ErrInternal = errors.New("internal conversion error")

	// ErrInvalidOption reports an option value outside its allowed range.
	ErrInvalidOption = errors.New("invalid option")

	// ErrExtension reports an extension that failed to register.
	ErrExtension = errors.New("extension registration failed")

	// ErrStripTopLevel reports serialized output without the document tag.
	ErrStripTopLevel = errors.New("failed to strip top-level tags")

	// I/O errors from ConvertFile.
	ErrReadInput   = errors.New("failed to read input")
	ErrWriteOutput = errors.New("failed to write output")
)
