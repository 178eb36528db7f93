package flod

import (
	"errors"
)

// Synthesizer can be used to play individual notes
// with the instruments of some song.
//
// It is more efficient and convenient to use for this
// use case than a stream with a constant module re-loading.
type Synthesizer struct {
	stream *Stream
	config LoadModuleConfig

	numChannels int
	song        *Song
}

type SynthesizerConfig struct {
	// NumChannels limits the number of notes that can be played at once.
	// A zero value means 1.
	NumChannels int

	SampleRate uint

	LinearInterpolation bool
}

func NewSynthesizer(config SynthesizerConfig) *Synthesizer {
	return &Synthesizer{
		stream:      NewStream(),
		numChannels: max(config.NumChannels, 1),
		config: LoadModuleConfig{
			SampleRate:          config.SampleRate,
			LinearInterpolation: config.LinearInterpolation,
		},
	}
}

// SetVolume adjusts the global volume scaling for the underlying stream.
func (s *Synthesizer) SetVolume(v float64) {
	s.stream.SetVolume(v)
}

// LoadInstruments prepares the song instruments for further use.
//
// The patterns don't really matter as this method
// is only interested in instruments (and samples).
func (s *Synthesizer) LoadInstruments(song *Song) error {
	if song == nil {
		return errors.New("nil song")
	}
	s.song = &Song{
		Format:              song.Format,
		Title:               song.Title,
		Tracker:             song.Tracker,
		NumChannels:         s.numChannels,
		Orders:              []int{0},
		Instruments:         song.Instruments,
		InitialSpeed:        song.InitialSpeed,
		InitialTempo:        song.InitialTempo,
		InitialGlobalVolume: 64,
		LinearPeriods:       song.LinearPeriods,
		AmigaClock:          song.AmigaClock,
	}
	return nil
}

// PlayNote plays one or more notes up to the specified duration (in seconds).
// Using 0 for the duration will play it for several seconds.
//
// Every cell goes to its own channel; the extra cells are ignored.
func (s *Synthesizer) PlayNote(duration float64, cells ...Cell) error {
	if s.song == nil {
		return errors.New("no instruments loaded")
	}

	song := *s.song
	if duration == 0 {
		song.InitialSpeed = 240
	} else {
		song.InitialSpeed = 1 + int(ticksPerSecond(song.InitialTempo)*duration)
	}
	row := make([]Cell, s.numChannels)
	copy(row, cells)
	song.Patterns = []Pattern{
		{NumRows: 1, NumChannels: s.numChannels, Cells: row},
	}

	return s.stream.Play(&song, s.config)
}

func (s *Synthesizer) Read(b []byte) (int, error) {
	return s.stream.Read(b)
}

func (s *Synthesizer) Rewind() {
	s.stream.Rewind()
}

func (s *Synthesizer) Seek(offset int64, whence int) (int64, error) {
	return s.stream.Seek(offset, whence)
}
