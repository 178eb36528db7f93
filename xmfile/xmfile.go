// Package xmfile decodes FastTracker II extended modules (.xm).
package xmfile

// Module is a parsed XM file contents.
// This is a raw module format that is not optimized for anything.
//
// Lengths and loop points of the samples are kept in bytes, exactly as stored.
type Module struct {
	Name string

	TrackerName string

	// Major and minor version numbers.
	// Version[0] is a major version.
	// Version[1] is a minor version.
	Version [2]byte

	SongLength      int
	RestartPosition int

	NumChannels    int
	NumPatterns    int
	NumInstruments int

	// 0 - Amiga
	// 1 - Linear
	Flags uint16

	DefaultTempo int
	DefaultBPM   int

	PatternOrder []uint8

	Patterns []Pattern

	Instruments []Instrument
}

// LinearFrequencies reports whether the module uses the linear frequency table.
func (m *Module) LinearFrequencies() bool {
	return m.Flags&1 != 0
}

type Pattern struct {
	Rows []PatternRow
}

type PatternRow struct {
	Notes []PatternNote
}

type PatternNote struct {
	Note            uint8
	Instrument      uint8
	Volume          uint8
	EffectType      uint8
	EffectParameter uint8
}

type Instrument struct {
	Name string

	KeymapAssignments []byte
	EnvelopeVolume    []EnvelopePoint
	EnvelopePanning   []EnvelopePoint

	VolumeSustainPoint    uint8
	VolumeLoopStartPoint  uint8
	VolumeLoopEndPoint    uint8
	PanningSustainPoint   uint8
	PanningLoopStartPoint uint8
	PanningLoopEndPoint   uint8

	VolumeFlags  EnvelopeFlags
	PanningFlags EnvelopeFlags

	VibratoType  uint8
	VibratoSweep uint8
	VibratoDepth uint8
	VibratoRate  uint8

	VolumeFadeout int

	Samples []InstrumentSample
}

type EnvelopePoint struct {
	X uint16
	Y uint16
}

type InstrumentSample struct {
	Name         string
	Length       int
	LoopStart    int
	LoopLength   int
	Volume       int
	Finetune     int
	TypeFlags    uint8
	Panning      uint8
	RelativeNote int
	Format       SampleFormat

	// Data is stored as is: delta coded 8 or 16 bit values,
	// or a 16-byte table followed by 4-bit indexes for ADPCM samples.
	Data []byte
}

type SampleLoopType int

const (
	SampleLoopNone SampleLoopType = iota
	SampleLoopForward
	SampleLoopPingPong
	SampleLoopUnknown
)

func (s *InstrumentSample) LoopType() SampleLoopType {
	bits := s.TypeFlags & 0b11
	return SampleLoopType(bits)
}

func (s *InstrumentSample) Is16bits() bool {
	return (s.TypeFlags & (1 << 4)) != 0
}

type EnvelopeFlags int

func (f EnvelopeFlags) IsOn() bool {
	return f&(1<<0) != 0
}

func (f EnvelopeFlags) SustainEnabled() bool {
	return f&(1<<1) != 0
}

func (f EnvelopeFlags) LoopEnabled() bool {
	return f&(1<<2) != 0
}

type SampleFormat int

const (
	SampleFormatDeltaPacked SampleFormat = iota

	// SampleFormatADPCM is the ModPlug 4-bit ADPCM encoding.
	SampleFormatADPCM
)

// ParserConfig tunes the parser.
type ParserConfig struct {
	// NeedStrings makes the parser keep instrument and sample names.
	// Module and tracker names are always kept.
	NeedStrings bool
}

// Parse decodes XM file data into a module.
//
// A non-nil error is always a *ParseError object.
func Parse(data []byte) (*Module, error) {
	return NewParser(ParserConfig{NeedStrings: true}).ParseFromBytes(data)
}
