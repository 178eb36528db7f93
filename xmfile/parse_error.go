package xmfile

import (
	"fmt"
)

// ParseError describes a malformed XM file.
type ParseError struct {
	// Message includes the parsing stage, like "instrument[2].sample[0]".
	Message string

	// Offset is a data offset where the problem was detected.
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
}
