package flod

import (
	"github.com/quasilyte/flod/internal/fxdb"
	"github.com/quasilyte/flod/internal/paula"
)

// channel is a single voice state.
// The sequencer updates it once per tick, the mixer reads it between ticks.
type channel struct {
	index int

	// Note-related data.
	inst    *Instrument
	instNum int
	sample  *Sample
	note    int
	key     int
	keyOn   bool

	// Sample playback.
	active    bool
	pos       int64 // 32.32 fixed point frame offset
	backward  bool  // ping-pong loop direction
	retrigger bool  // the sample was (re)started during this tick

	finetune    int
	period      int
	portaTarget int
	freq        float64

	volume  int
	panning int

	fadeout    int
	volEnvTick int
	panEnvTick int

	autoVibPhase int
	autoVibAmp   int

	// Effects of the current row.
	effect       fxdb.Effect
	volumeEffect fxdb.Effect
	delayedCell  Cell
	hasDelayed   bool

	// Effect memory.
	portaUpMem        uint8
	portaDownMem      uint8
	finePortaUpMem    uint8
	finePortaDownMem  uint8
	extraFineUpMem    uint8
	extraFineDownMem  uint8
	volumeSlideMem    uint8
	fineVolumeUpMem   uint8
	fineVolumeDownMem uint8
	globalSlideMem    uint8
	panningSlideMem   uint8
	offsetMem         uint8
	multiRetrigMem    uint8
	tremorMem         uint8
	portaSpeed        int

	glissando   bool
	retrigCount int
	tremorPos   int
	tremorOff   bool

	vibrato      paula.LFO
	tremolo      paula.LFO
	vibratoDelta int
	tremoloDelta int
	arpeggio     int

	loopRow   int
	loopCount int

	// Mixer gains with 4096 as the unity, per output side.
	gain       [2]int32
	targetGain [2]int32
	rampTarget [2]int32
	rampLeft   int
}

func (ch *channel) Reset(index, panning int) {
	*ch = channel{
		index:   index,
		panning: panning,
		fadeout: 32768,
	}
	ch.vibrato.Reset(index)
	ch.tremolo.Reset(index + 64)
}

// IsActive reports whether the channel produces any sound.
func (ch *channel) IsActive() bool {
	return ch.active && ch.sample != nil && len(ch.sample.Data) != 0
}

// ChannelState is a read-only snapshot of a channel.
type ChannelState struct {
	Active bool

	// Instrument is a 1-based number of the last used instrument.
	Instrument int

	// Note is the last started note (1..96).
	Note int

	// Volume is in 0..64, panning is in 0..255.
	Volume  int
	Panning int

	// Period is in the song period units (Amiga periods times 4 or linear periods).
	Period int

	// Frequency is the current playback rate of the sample in Hz.
	Frequency float64
}

func (ch *channel) State() ChannelState {
	return ChannelState{
		Active:     ch.IsActive(),
		Instrument: ch.instNum,
		Note:       ch.note,
		Volume:     ch.volume,
		Panning:    ch.panning,
		Period:     ch.period,
		Frequency:  ch.freq,
	}
}
