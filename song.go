package flod

// Song is a loaded module in a format-agnostic form.
//
// A song is never modified after Load returns it, so one
// song can be played by several sequencers at once.
type Song struct {
	Format Format

	Title string

	// Tracker is the tracker name stored in the file.
	// It's the format name for the formats that don't store it.
	Tracker string

	NumChannels int

	// Orders lists the pattern indexes in the play order.
	Orders []int

	// RestartOrder is the order the song loops to after the last one.
	RestartOrder int

	Patterns []Pattern

	// Instruments[i] is the instrument number i+1 in the pattern data.
	Instruments []Instrument

	// InitialSpeed is the number of ticks per row.
	InitialSpeed int

	// InitialTempo is the song BPM; a tick lasts 2.5/tempo seconds.
	InitialTempo int

	// InitialGlobalVolume is in 0..64.
	InitialGlobalVolume int

	// LinearPeriods selects the FastTracker II linear frequency table.
	// Otherwise the Amiga periods are used.
	LinearPeriods bool

	// AmigaClock converts Amiga periods (times 4) into frequencies.
	AmigaClock int

	// AmigaLimits enables the ProTracker behavior: periods are clamped
	// to the 3 octave range and the panning effects are ignored,
	// the channels are hard panned instead.
	AmigaLimits bool

	// DefaultPanning holds the initial panning of each channel in 0..255.
	DefaultPanning []int
}

// Pattern is a grid of cells, stored row by row.
type Pattern struct {
	NumRows     int
	NumChannels int

	Cells []Cell
}

// Row returns the cells of the given row.
func (p *Pattern) Row(i int) []Cell {
	return p.Cells[i*p.NumChannels : (i+1)*p.NumChannels]
}

// NoteKeyOff is a note value that releases the playing note.
const NoteKeyOff = 97

// Cell is a single row/channel slot of a pattern.
type Cell struct {
	// Note is 0 for "no note", 1..96 for C-0..B-7 or NoteKeyOff.
	Note uint8

	// Instrument is a 1-based instrument number, 0 means "no instrument".
	Instrument uint8

	// Volume is a raw volume column byte, 0 means "empty".
	Volume uint8

	// Effect and Param use the FastTracker II effect numbering.
	// Amiga effects 0x0-0xF have the same meaning there.
	Effect uint8
	Param  uint8
}

func (c Cell) IsEmpty() bool { return c == Cell{} }

type LoopType int

const (
	LoopNone LoopType = iota
	LoopForward
	LoopPingPong
)

// Sample is a PCM waveform with its playback defaults.
type Sample struct {
	Name string

	// Data holds signed 16-bit values; 8-bit samples are widened.
	Data []int16

	// Loop points are in frames.
	Loop       LoopType
	LoopStart  int
	LoopLength int

	// Volume is in 0..64.
	Volume int

	// Finetune is in 1/128 semitone units.
	Finetune int

	// Panning is in 0..255 or -1 if the sample keeps the channel panning.
	Panning int

	// RelativeNote is added to the played note.
	RelativeNote int
}

// LoopEnd returns the first frame after the loop.
func (s *Sample) LoopEnd() int { return s.LoopStart + s.LoopLength }

// Instrument maps notes to samples and holds the note envelopes.
type Instrument struct {
	Name string

	Samples []Sample

	// KeyMap selects a sample for every note (0 = C-0).
	KeyMap [96]uint8

	VolumeEnvelope  Envelope
	PanningEnvelope Envelope

	// Fadeout is subtracted from the 32768-based fadeout volume
	// every tick after a key off.
	Fadeout int

	// Instrument vibrato (auto-vibrato) settings.
	VibratoType  int
	VibratoSweep int
	VibratoDepth int
	VibratoRate  int
}

// SampleForNote returns the sample that plays the note (1..96)
// or nil if there is none.
func (inst *Instrument) SampleForNote(note int) *Sample {
	if note < 1 || note > len(inst.KeyMap) {
		return nil
	}
	i := int(inst.KeyMap[note-1])
	if i >= len(inst.Samples) {
		return nil
	}
	return &inst.Samples[i]
}

type Envelope struct {
	Enabled bool
	Sustain bool
	Loop    bool

	// Point indexes.
	SustainPoint int
	LoopStart    int
	LoopEnd      int

	Points []EnvelopePoint
}

// EnvelopePoint sets the Value (0..64) at the Tick since the note start.
type EnvelopePoint struct {
	Tick  int
	Value int
}

// ValueAt returns the envelope value at the tick,
// interpolating between the points.
func (e *Envelope) ValueAt(tick int) int {
	points := e.Points
	if len(points) == 0 {
		return 64
	}
	if tick <= points[0].Tick {
		return points[0].Value
	}
	for i := 1; i < len(points); i++ {
		b := points[i]
		if tick > b.Tick {
			continue
		}
		a := points[i-1]
		if b.Tick == a.Tick {
			return b.Value
		}
		return a.Value + (b.Value-a.Value)*(tick-a.Tick)/(b.Tick-a.Tick)
	}
	return points[len(points)-1].Value
}
