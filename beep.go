package flod

import (
	"github.com/gopxl/beep/v2"
)

// BeepStreamer adapts a Mixer to the beep.Streamer interface.
type BeepStreamer struct {
	mixer  *Mixer
	buffer []int16
}

func NewBeepStreamer(m *Mixer) *BeepStreamer {
	return &BeepStreamer{mixer: m}
}

// Format returns the beep format that matches the mixer output.
// The streamer always produces stereo samples, a mono mixer
// output is duplicated to both sides.
func (b *BeepStreamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(b.mixer.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
}

// Stream fills the provided buffer with audio frames.
// It reports ok=false once the sequencer is stopped and
// there is nothing else to produce.
func (b *BeepStreamer) Stream(samples [][2]float64) (int, bool) {
	nch := b.mixer.NumChannels()
	if cap(b.buffer) < len(samples)*nch {
		b.buffer = make([]int16, len(samples)*nch)
	}
	buf := b.buffer[:len(samples)*nch]

	n := b.mixer.RenderInto(buf)
	if n < len(samples) {
		if b.mixer.seq.State() != Stopped {
			// Paused: keep the output going with silence.
			n = len(samples)
		} else if n == 0 {
			return 0, false
		}
	}

	const scale = 1.0 / 32768.0
	for i := 0; i < n; i++ {
		if nch == 1 {
			v := float64(buf[i]) * scale
			samples[i] = [2]float64{v, v}
			continue
		}
		j := i * 2
		samples[i][0] = float64(buf[j]) * scale
		samples[i][1] = float64(buf[j+1]) * scale
	}
	return n, true
}

// Err implements beep.Streamer; the mixer never fails.
func (b *BeepStreamer) Err() error { return nil }
