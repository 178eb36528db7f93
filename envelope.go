package flod

import (
	"github.com/quasilyte/flod/internal/paula"
)

// advance returns the envelope position for the next tick.
// The position stays at the sustain point while the key is held.
func (e *Envelope) advance(tick int, keyOn bool) int {
	if len(e.Points) == 0 {
		return tick
	}
	if keyOn && e.Sustain && e.SustainPoint < len(e.Points) {
		if tick == e.Points[e.SustainPoint].Tick {
			return tick
		}
	}
	tick++
	if e.Loop && e.LoopEnd < len(e.Points) && e.LoopStart <= e.LoopEnd {
		if tick >= e.Points[e.LoopEnd].Tick {
			tick = e.Points[e.LoopStart].Tick
		}
	}
	if last := e.Points[len(e.Points)-1].Tick; tick > last {
		tick = last
	}
	return tick
}

// updateChannel turns the channel state into the mixer parameters.
// It runs once per tick, after the effects.
func (s *Sequencer) updateChannel(ch *channel) {
	if !ch.IsActive() {
		ch.freq = 0
		ch.targetGain = [2]int32{}
		return
	}

	envVolume := 64
	envPanning := 32
	autoVib := 0
	if inst := ch.inst; inst != nil {
		if env := &inst.VolumeEnvelope; env.Enabled {
			envVolume = env.ValueAt(ch.volEnvTick)
			ch.volEnvTick = env.advance(ch.volEnvTick, ch.keyOn)
		}
		if env := &inst.PanningEnvelope; env.Enabled {
			envPanning = env.ValueAt(ch.panEnvTick)
			ch.panEnvTick = env.advance(ch.panEnvTick, ch.keyOn)
		}
		if !ch.keyOn {
			ch.fadeout = max(ch.fadeout-inst.Fadeout, 0)
			if ch.fadeout == 0 {
				ch.active = false
				ch.freq = 0
				ch.targetGain = [2]int32{}
				return
			}
		}
		autoVib = s.autoVibrato(ch, inst)
	}

	volume := clamp(ch.volume+ch.tremoloDelta, 0, 64)
	if ch.tremorOff {
		volume = 0
	}

	panning := ch.panning
	if envPanning != 32 {
		panning += (envPanning - 32) * (128 - abs(panning-128)) / 32
		panning = clamp(panning, 0, 255)
	}

	period := ch.period + ch.vibratoDelta + autoVib
	if ch.glissando && ch.effect.IsPortamento() {
		period = s.roundPeriod(period, ch.finetune)
	}
	ch.freq = s.frequency(period, ch.arpeggio)

	amp := int64(volume) * int64(envVolume) * int64(s.globalVolume) * int64(ch.fadeout) >> 21
	ch.targetGain[0] = int32(amp * int64(255-panning) / 255)
	ch.targetGain[1] = int32(amp * int64(panning) / 255)
}

func (s *Sequencer) autoVibrato(ch *channel, inst *Instrument) int {
	if inst.VibratoDepth == 0 || inst.VibratoRate == 0 {
		return 0
	}
	depth := inst.VibratoDepth << 8
	switch {
	case inst.VibratoSweep == 0:
		ch.autoVibAmp = depth
	case ch.keyOn:
		ch.autoVibAmp = min(ch.autoVibAmp+depth/inst.VibratoSweep, depth)
	}
	delta := paula.AutoVibrato(inst.VibratoType, ch.autoVibPhase) * ch.autoVibAmp >> 16
	ch.autoVibPhase = (ch.autoVibPhase + inst.VibratoRate) & 0xff
	return delta
}

// roundPeriod snaps the period to the closest semitone.
func (s *Sequencer) roundPeriod(period, finetune int) int {
	if s.song.LinearPeriods {
		key := (linearPeriod(0, finetune) - period + 32) / 64
		return linearPeriod(max(key, 0), finetune)
	}
	return paula.Period(paula.KeyFromPeriod(period), finetune)
}

func (s *Sequencer) frequency(period, arpeggio int) float64 {
	if s.song.LinearPeriods {
		return linearFrequency(period - arpeggio*64)
	}
	freq := paula.Frequency(period, s.song.AmigaClock)
	if arpeggio != 0 {
		freq = paula.Arpeggio(freq, arpeggio)
	}
	return float64(freq)
}
