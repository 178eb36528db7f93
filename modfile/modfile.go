// Package modfile decodes Amiga MOD family modules: ProTracker and
// NoiseTracker ("M.K.", "M!K!"), StarTrekker ("FLT4"), multichannel
// PC trackers ("6CHN", "16CH", ...) and the 15-sample SoundTracker
// layout that has no signature at all.
package modfile

import (
	"fmt"
)

const (
	// SignatureOffset is where the 4-byte format id is stored
	// in a 31-sample module.
	SignatureOffset = 1080

	NumRows = 64

	// MaxOrders is the size of the order table.
	MaxOrders = 128
)

// Module is a parsed MOD file.
//
// Sample lengths and loop points are in bytes even though the
// file stores most of them in 16-bit words.
type Module struct {
	Title string

	// Signature is the 4-byte id at offset 1080.
	// It's empty for 15-sample modules.
	Signature string

	NumChannels int

	Samples []Sample

	SongLength int

	// RestartPosition is the raw byte that follows the song length.
	// NoiseTracker uses it as a restart position, other trackers
	// store 127 or the song speed there.
	RestartPosition int

	Orders [MaxOrders]uint8

	Patterns []Pattern
}

// NumPatterns reports the number of stored patterns.
func (m *Module) NumPatterns() int { return len(m.Patterns) }

type Sample struct {
	Name string

	Length int

	// Finetune is a signed value in -8..7.
	Finetune int

	Volume int

	LoopStart  int
	LoopLength int

	Data []int8
}

// Looped reports whether the sample has a loop.
// A loop of one word (or less) is the "no loop" marker.
func (s *Sample) Looped() bool {
	return s.LoopLength > 2
}

type Pattern struct {
	// Notes are stored row by row, NumChannels notes per row.
	Notes []Note
}

type Note struct {
	// Period is the Amiga period; 0 means no note.
	Period uint16

	// Sample is a 1-based sample number; 0 means no sample.
	Sample uint8

	Effect uint8
	Param  uint8
}

// ParseError describes a malformed MOD file.
type ParseError struct {
	Message string

	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
}

// ChannelsFromSignature returns the number of channels encoded
// in a 31-sample module signature. A zero result means the
// signature is not known.
func ChannelsFromSignature(id string) int {
	switch id {
	case "M.K.", "M!K!", "FLT4", "4CHN":
		return 4
	}
	if len(id) != 4 {
		return 0
	}
	if id[1:] == "CHN" && isDigit(id[0]) {
		n := int(id[0] - '0')
		if n >= 2 {
			return n
		}
		return 0
	}
	if id[2:] == "CH" && isDigit(id[0]) && isDigit(id[1]) {
		n := int(id[0]-'0')*10 + int(id[1]-'0')
		if n >= 2 && n <= 32 {
			return n
		}
	}
	return 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
