package flod

const (
	defaultSampleRate = 44100

	// rampFrames is the length of the volume ramp that
	// smooths the note starts and the gain changes.
	rampFrames = 64
)

// MixerConfig configures the PCM rendering.
//
// A zero value is a valid config: 44100 Hz stereo without interpolation.
type MixerConfig struct {
	// SampleRate is the output rate in Hz.
	// A zero value means 44100.
	SampleRate int

	// Mono makes the mixer produce a single output channel.
	// The left and right sides are summed.
	Mono bool

	// LinearInterpolation enables the sub-sample interpolation.
	// It makes the high-pitched notes sound smoother at the cost of
	// some extra work per frame.
	LinearInterpolation bool
}

// Mixer renders the sequencer channels into interleaved int16 frames.
//
// The mixer drives the sequencer: every time a tick worth of frames is
// rendered, it asks the sequencer to run the next tick.
type Mixer struct {
	seq *Sequencer

	sampleRate  int
	numChannels int
	interpolate bool

	// volume is the master volume with 4096 as the unity.
	// It's guarded by the sequencer mutex.
	volume int64

	acc []int32
}

// NewMixer creates a mixer that renders the seq channels.
// A sequencer should be rendered by a single mixer at a time.
func NewMixer(seq *Sequencer, config MixerConfig) *Mixer {
	if config.SampleRate <= 0 {
		config.SampleRate = defaultSampleRate
	}
	m := &Mixer{
		seq:         seq,
		sampleRate:  config.SampleRate,
		numChannels: 2,
		interpolate: config.LinearInterpolation,
		volume:      3276, // 0.8
	}
	if config.Mono {
		m.numChannels = 1
	}

	seq.mu.Lock()
	seq.sampleRate = config.SampleRate
	seq.mu.Unlock()

	return m
}

// SetVolume sets the master volume.
// The default value is 0.8; the value is clamped in [0, 1].
func (m *Mixer) SetVolume(v float64) {
	v = clamp(v, 0, 1)
	m.seq.mu.Lock()
	m.volume = int64(v * 4096)
	m.seq.mu.Unlock()
}

func (m *Mixer) Volume() float64 {
	m.seq.mu.Lock()
	defer m.seq.mu.Unlock()
	return float64(m.volume) / 4096
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// NumChannels returns the number of output channels: 1 or 2.
func (m *Mixer) NumChannels() int { return m.numChannels }

// FramesRendered returns the number of song frames rendered
// since the playback start.
func (m *Mixer) FramesRendered() int64 {
	m.seq.mu.Lock()
	defer m.seq.mu.Unlock()
	return m.seq.frame
}

// Render allocates and renders frameCount frames.
// See RenderInto for the details.
func (m *Mixer) Render(frameCount int) []int16 {
	dst := make([]int16, frameCount*m.numChannels)
	m.RenderInto(dst)
	return dst
}

// RenderInto fills dst with interleaved frames.
//
// It returns the number of frames produced by the song.
// When the sequencer is paused, stopped or the song is over,
// this number is less than the dst capacity and the rest of dst is zeroed.
func (m *Mixer) RenderInto(dst []int16) int {
	s := m.seq
	nch := m.numChannels
	n := len(dst) / nch

	s.mu.Lock()
	defer s.mu.Unlock()

	done := 0
	for done < n {
		if s.state != Playing {
			break
		}
		if s.tickFrames == 0 {
			if !s.startTick() {
				break
			}
		}
		k := min(s.tickFrames, n-done)
		m.mix(dst[done*nch:(done+k)*nch], k)
		s.tickFrames -= k
		s.frame += int64(k)
		done += k
	}

	clear(dst[done*nch:])
	return done
}

func (m *Mixer) mix(out []int16, frames int) {
	if cap(m.acc) < frames*2 {
		m.acc = make([]int32, frames*2)
	}
	acc := m.acc[:frames*2]
	clear(acc)

	channels := m.seq.channels
	for i := range channels {
		m.mixChannel(&channels[i], acc)
	}

	if m.numChannels == 1 {
		for i := 0; i < frames; i++ {
			v := int64(acc[i*2]) + int64(acc[i*2+1])
			out[i] = saturate16(v * m.volume >> 12)
		}
		return
	}
	for i, v := range acc {
		out[i] = saturate16(int64(v) * m.volume >> 12)
	}
}

func (m *Mixer) mixChannel(ch *channel, acc []int32) {
	if ch.retrigger {
		ch.retrigger = false
		ch.gain = [2]int32{}
		ch.rampTarget = ch.targetGain
		ch.rampLeft = rampFrames
	} else if ch.targetGain != ch.rampTarget {
		ch.rampTarget = ch.targetGain
		ch.rampLeft = rampFrames
	}

	if !ch.IsActive() {
		ch.gain = ch.rampTarget
		ch.rampLeft = 0
		return
	}

	smp := ch.sample
	if smp.Loop != LoopNone {
		if smp.LoopLength <= 0 || smp.LoopStart < 0 || smp.LoopEnd() > len(smp.Data) {
			// A broken loop can't be played; silence this channel only.
			ch.active = false
			return
		}
	}

	data := smp.Data
	if int(ch.pos>>32) >= len(data) {
		ch.active = false
		return
	}
	step := int64(ch.freq * (1 << 32) / float64(m.sampleRate))
	frames := len(acc) / 2
	for i := 0; i < frames; i++ {
		idx := int(ch.pos >> 32)
		v := int32(data[idx])
		if m.interpolate {
			v = interpolate(smp, idx, ch.pos&0xffffffff, ch.backward)
		}
		acc[i*2] += v * ch.gain[0] >> 12
		acc[i*2+1] += v * ch.gain[1] >> 12

		if ch.rampLeft > 0 {
			left := int32(ch.rampLeft)
			ch.gain[0] += (ch.rampTarget[0] - ch.gain[0]) / left
			ch.gain[1] += (ch.rampTarget[1] - ch.gain[1]) / left
			ch.rampLeft--
		}

		if !advance(ch, step) {
			return
		}
	}
}

// advance moves the sample cursor by step.
// It reports false if the sample is over.
func advance(ch *channel, step int64) bool {
	smp := ch.sample
	switch smp.Loop {
	case LoopForward:
		ch.pos += step
		if end := int64(smp.LoopEnd()) << 32; ch.pos >= end {
			start := int64(smp.LoopStart) << 32
			ch.pos = start + (ch.pos-start)%(int64(smp.LoopLength)<<32)
		}

	case LoopPingPong:
		// u is an offset inside the unfolded loop: a forward pass
		// followed by a backward one.
		start := int64(smp.LoopStart) << 32
		length := int64(smp.LoopLength) << 32
		u := ch.pos - start
		if ch.backward {
			u = 2*length - u - 1
		}
		u += step
		if u < 0 {
			ch.pos = start + u
			return true
		}
		u %= 2 * length
		if u < length {
			ch.backward = false
			ch.pos = start + u
		} else {
			ch.backward = true
			ch.pos = start + 2*length - u - 1
		}

	default:
		ch.pos += step
		if ch.pos>>32 >= int64(len(smp.Data)) {
			ch.active = false
			return false
		}
	}
	return true
}

func interpolate(smp *Sample, idx int, frac int64, backward bool) int32 {
	a := int64(smp.Data[idx])
	next := idx + 1
	switch {
	case backward:
		next = max(idx-1, smp.LoopStart)
	case smp.Loop == LoopForward && next >= smp.LoopEnd():
		next = smp.LoopStart
	case next >= len(smp.Data):
		next = idx
	}
	b := int64(smp.Data[next])
	return int32(a + (b-a)*frac>>32)
}
