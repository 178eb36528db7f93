// Package paula holds the Amiga-side tables: note periods, finetune
// multipliers, clocks, LFO waveforms and the hardware value ranges.
//
// All periods in this package use "fine" units: the Amiga period times 4.
// ProTracker's C-2 (period 428) is 1712 here, which also happens to be
// the FastTracker II Amiga-mode period of C-4.
package paula

const (
	// PALClock is the Paula DMA clock of a PAL Amiga divided by 2.
	// A sample played at period p has the rate PALClock/p.
	PALClock = 3546895

	// NTSCClock is the same value for NTSC machines.
	NTSCClock = 3579545

	// FastTrackerClock is the fine-period clock of FastTracker II Amiga mode:
	// C-4 (period 1712) plays at 8363 Hz.
	FastTrackerClock = 8363 * 1712

	// MinPeriod and MaxPeriod are the ProTracker slide limits
	// (B-3 and C-1) in fine units.
	MinPeriod = 113 * 4
	MaxPeriod = 856 * 4

	// MaxVolume is the Paula channel volume range upper bound.
	MaxVolume = 64

	// NumKeys is the number of playable notes (C-0 .. B-7).
	NumKeys = 96
)

// octavePeriods lists one octave of fine periods, starting at C-4.
// Values are ProTracker's finetune 0 periods for octave 2 times 4.
var octavePeriods = [12]int{
	1712, 1616, 1524, 1440, 1356, 1280, 1208, 1140, 1076, 1016, 960, 906,
}

// fineTuning holds finetune multipliers in .12 fixed point.
// Index 8 is finetune 0; index 16 is a whole semitone up
// and is only used for interpolation.
var fineTuning = [17]int{
	4340, 4308, 4277, 4247, 4216, 4186, 4156, 4126,
	4096, 4067, 4037, 4008, 3979, 3951, 3922, 3894,
	3866,
}

// arpTuning maps a semitone offset (0..15) to a frequency multiplier in .12 fixed point.
var arpTuning = [16]int{
	4096, 4340, 4598, 4871, 5161, 5468, 5793, 6137,
	6502, 6889, 7298, 7732, 8192, 8679, 9195, 9742,
}

// Period returns the fine period of a 0-based key (0 = C-0, 48 = C-4).
//
// finetune is given in 1/128 semitone units, which is the FastTracker II scale.
// ProTracker finetunes (-8..7) map onto it as ft*16 and
// then hit the exact ProTracker multipliers.
func Period(key, finetune int) int {
	if key < 0 {
		key = 0
	}
	if key >= NumKeys {
		key = NumKeys - 1
	}
	p := (octavePeriods[key%12] << 4) >> (key / 12)
	if finetune == 0 {
		return p
	}
	idx := finetune >> 4
	frac := finetune & 0xf
	m := fineTuning[idx+8]
	if frac != 0 {
		m += (fineTuning[idx+9] - m) * frac / 16
	}
	return (p * m) >> 12
}

// KeyFromPeriod maps a fine period to the nearest 0-based key.
// It is used to convert Amiga pattern data into note numbers.
func KeyFromPeriod(period int) int {
	best := 0
	bestDist := -1
	for key := 0; key < NumKeys; key++ {
		d := Period(key, 0) - period
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best = key
			bestDist = d
		}
	}
	return best
}

// Frequency converts a fine period into a playback rate in Hz.
// clock is the fine-period clock: PALClock*4 for ProTracker,
// FastTrackerClock for XM Amiga mode.
func Frequency(period, clock int) int {
	if period <= 0 {
		return 0
	}
	return clock / period
}

// Arpeggio scales a frequency by semitones (0..15).
func Arpeggio(freq, semitones int) int {
	if semitones <= 0 {
		return freq
	}
	if semitones > 15 {
		semitones = 15
	}
	return (freq * arpTuning[semitones]) >> 12
}

// ClampPeriod applies the ProTracker period range.
func ClampPeriod(period int) int {
	if period < MinPeriod {
		return MinPeriod
	}
	if period > MaxPeriod {
		return MaxPeriod
	}
	return period
}

// ClampVolume applies the Paula volume range.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

// ChannelPanning returns the hardware panning of Amiga channel i in 0..255:
// channels 0 and 3 are wired left, 1 and 2 right, repeated every 4 channels.
func ChannelPanning(i int) int {
	switch i % 4 {
	case 0, 3:
		return 0
	default:
		return 255
	}
}
