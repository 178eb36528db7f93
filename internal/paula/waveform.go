package paula

// Waveform selects an LFO shape for vibrato and tremolo.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveRampDown
	WaveSquare
	WaveRandom
)

// sineTable is the first half of the ProTracker vibrato sine.
var sineTable = [32]int{
	0, 24, 49, 74, 97, 120, 141, 161, 180, 197, 212, 224, 235, 244, 250, 253,
	255, 253, 250, 244, 235, 224, 212, 197, 180, 161, 141, 120, 97, 74, 49, 24,
}

// LFO is a vibrato/tremolo oscillator state.
// A 64-step phase covers one full period.
type LFO struct {
	Phase int
	Speed int
	Depth int

	// Shape is the low two bits of the E4x/E7x parameter.
	// Bit 2 set means "do not reset the phase on a new note".
	Shape int

	seed int
}

// Reset prepares the oscillator for a new song.
// The seed makes the random waveform differ between channels but
// stay the same from one playback to another.
func (l *LFO) Reset(seed int) {
	*l = LFO{seed: (seed + 1) * 0xABCDEF}
}

// Retrigger is called on a new note.
func (l *LFO) Retrigger() {
	if l.Shape < 4 {
		l.Phase = 0
	}
}

// Value returns the current amplitude in -255..255.
func (l *LFO) Value() int {
	return l.sample(Waveform(l.Shape & 3))
}

func (l *LFO) Advance() {
	l.Phase = (l.Phase + l.Speed) & 63
}

func (l *LFO) sample(w Waveform) int {
	phase := l.Phase & 63
	switch w {
	case WaveRampDown:
		return 255 - (((phase + 0x20) & 0x3f) << 3)
	case WaveSquare:
		if phase&0x20 != 0 {
			return -255
		}
		return 255
	case WaveRandom:
		v := (l.seed >> 20) - 255
		l.seed = (l.seed*65 + 17) & 0x1fffffff
		return v
	default:
		v := sineTable[phase&0x1f]
		if phase&0x20 != 0 {
			v = -v
		}
		return v
	}
}

// AutoVibrato returns the instrument vibrato waveform value in -255..255.
// The FastTracker II instrument vibrato types are
// 0 = sine, 1 = square, 2 = ramp down, 3 = ramp up;
// phase runs over 256 steps per period.
func AutoVibrato(kind, phase int) int {
	phase &= 0xff
	switch kind {
	case 1:
		if phase < 128 {
			return 255
		}
		return -255
	case 2:
		return 255 - phase*2
	case 3:
		return phase*2 - 255
	default:
		v := sineTable[(phase>>2)&0x1f]
		if phase&0x80 != 0 {
			v = -v
		}
		return v
	}
}
