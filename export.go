package flod

import (
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// ExportConfig configures the WAV rendering.
type ExportConfig struct {
	// SampleRate is the output rate in Hz.
	// A zero value means 44100.
	SampleRate int

	LinearInterpolation bool

	// MaxDuration limits the output length.
	// A zero value renders the whole song pass.
	MaxDuration time.Duration
}

// ExportWAV renders a single pass of the song as a 16-bit stereo WAV file.
func ExportWAV(w io.WriteSeeker, song *Song, config ExportConfig) error {
	seq := NewSequencer()
	seq.SetPlayOnce(true)
	m := NewMixer(seq, MixerConfig{
		SampleRate:          config.SampleRate,
		LinearInterpolation: config.LinearInterpolation,
	})
	if err := seq.Play(song); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	streamer := NewBeepStreamer(m)
	format := streamer.Format()
	var s beep.Streamer = streamer
	if config.MaxDuration > 0 {
		s = beep.Take(format.SampleRate.N(config.MaxDuration), s)
	}
	if err := wav.Encode(w, s, format); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
