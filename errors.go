package flod

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat matches every *UnrecognizedFormatError.
	ErrUnrecognizedFormat = errors.New("unrecognized module format")

	// ErrMalformedModule matches every *MalformedModuleError.
	ErrMalformedModule = errors.New("malformed module")
)

// UnrecognizedFormatError is returned by Load when no known
// signature matches the data. The data is probably not a module at all.
type UnrecognizedFormatError struct {
	// Offset is the position of the checked signature, usually 0.
	Offset int

	Reason string
}

func (e *UnrecognizedFormatError) Error() string {
	if e.Reason == "" {
		return ErrUnrecognizedFormat.Error()
	}
	return fmt.Sprintf("%s: %s (offset=%d)", ErrUnrecognizedFormat, e.Reason, e.Offset)
}

func (e *UnrecognizedFormatError) Is(target error) bool { return target == ErrUnrecognizedFormat }

// MalformedModuleError is returned by Load when the data was
// recognized as some format, but its contents are inconsistent.
type MalformedModuleError struct {
	Format Format

	// Offset points to the data that caused the error.
	// It is -1 for the problems found after the file was parsed,
	// like a pattern cell that references a missing instrument.
	Offset int

	Message string
}

func (e *MalformedModuleError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: %s", e.Format, e.Message)
	}
	return fmt.Sprintf("%s: %s (offset=%d)", e.Format, e.Message, e.Offset)
}

func (e *MalformedModuleError) Is(target error) bool { return target == ErrMalformedModule }

func malformedf(f Format, format string, args ...any) *MalformedModuleError {
	return &MalformedModuleError{
		Format:  f,
		Offset:  -1,
		Message: fmt.Sprintf(format, args...),
	}
}
