package flod

import (
	"errors"

	"github.com/quasilyte/flod/modfile"
	"github.com/quasilyte/flod/xmfile"
)

var zipSignature = []byte{'P', 'K', 0x03, 0x04}

// Load detects the module format and decodes the data into a song.
//
// A non-nil error is either an *UnrecognizedFormatError
// or a *MalformedModuleError.
//
// Loading is relatively slow: the sample data is decoded and
// the pattern data is validated. Load every song once and reuse it.
func Load(data []byte) (*Song, error) {
	if len(data) >= len(zipSignature) && string(data[:len(zipSignature)]) == string(zipSignature) {
		return nil, &UnrecognizedFormatError{Reason: "zip archives are not supported"}
	}

	format := Sniff(data)
	switch {
	case format.IsXM():
		m, err := xmfile.Parse(data)
		if err != nil {
			return nil, convertParseError(format, err)
		}
		return compileXM(m, format)

	case format.IsMOD():
		m, err := modfile.Parse(data)
		if err != nil {
			return nil, convertParseError(format, err)
		}
		return compileMOD(m, format)

	default:
		return nil, &UnrecognizedFormatError{Reason: "no known signature matched"}
	}
}

func convertParseError(format Format, err error) error {
	var xmErr *xmfile.ParseError
	if errors.As(err, &xmErr) {
		return &MalformedModuleError{Format: format, Offset: xmErr.Offset, Message: xmErr.Message}
	}
	var modErr *modfile.ParseError
	if errors.As(err, &modErr) {
		return &MalformedModuleError{Format: format, Offset: modErr.Offset, Message: modErr.Message}
	}
	return &MalformedModuleError{Format: format, Offset: -1, Message: err.Error()}
}
