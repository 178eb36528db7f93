package flod

import (
	"github.com/quasilyte/flod/internal/fxdb"
	"github.com/quasilyte/flod/internal/paula"
)

const (
	maxKey    = 120
	maxPeriod = 32000
)

func (s *Sequencer) processCell(ch *channel, cell Cell) {
	ch.effect = fxdb.Decode(cell.Effect, cell.Param)
	ch.volumeEffect = fxdb.FromVolumeByte(cell.Volume)
	ch.arpeggio = 0
	ch.vibratoDelta = 0
	ch.tremoloDelta = 0
	ch.tremorOff = false
	ch.hasDelayed = false

	if ch.effect.Op == fxdb.EffectNoteDelay && ch.effect.Arg != 0 {
		// A delay that is longer than a row swallows the note.
		if int(ch.effect.Arg) < s.speed {
			ch.delayedCell = cell
			ch.hasDelayed = true
		}
		return
	}

	s.startCell(ch, cell)
	s.volumeColumnRow(ch, ch.volumeEffect)
	s.rowEffects(ch, ch.effect)
}

func (s *Sequencer) startCell(ch *channel, cell Cell) {
	fx := ch.effect
	porta := fx.IsPortamento() || ch.volumeEffect.Op == fxdb.EffectNotePortamento

	if cell.Instrument != 0 && int(cell.Instrument) <= len(s.song.Instruments) {
		ch.inst = &s.song.Instruments[cell.Instrument-1]
		ch.instNum = int(cell.Instrument)
	}

	if cell.Note == NoteKeyOff {
		s.keyOff(ch)
		return
	}

	started := false
	if cell.Note != 0 && ch.inst != nil {
		smp := ch.inst.SampleForNote(int(cell.Note))
		if smp == nil {
			ch.active = false
			return
		}
		key := int(cell.Note) - 1 + smp.RelativeNote
		if key < 0 || key >= maxKey {
			return
		}
		finetune := smp.Finetune
		if fx.Op == fxdb.EffectSetFinetune {
			finetune = s.finetuneArg(fx.Arg)
		}

		if porta && ch.IsActive() {
			ch.portaTarget = s.notePeriod(key, finetune)
		} else {
			ch.sample = smp
			ch.note = int(cell.Note)
			ch.key = key
			ch.finetune = finetune
			ch.period = s.notePeriod(key, finetune)
			s.triggerSample(ch)
			s.resetEnvelopes(ch)
			started = true
		}
	}

	if cell.Instrument != 0 && ch.sample != nil {
		ch.volume = ch.sample.Volume
		if ch.sample.Panning >= 0 && !s.song.AmigaLimits {
			ch.panning = ch.sample.Panning
		}
		s.resetEnvelopes(ch)
	}

	if started {
		s.emit(Event{
			Kind:       EventNote,
			Channel:    ch.index,
			Order:      s.cursor.Order,
			Row:        s.cursor.Row,
			Note:       ch.note,
			Instrument: ch.instNum,
			Volume:     ch.volume,
		})
	}
}

func (s *Sequencer) triggerSample(ch *channel) {
	s.restartSample(ch)
	ch.retrigCount = 0
	ch.tremorPos = 0
	ch.vibrato.Retrigger()
	ch.tremolo.Retrigger()

	if ch.effect.Op == fxdb.EffectSampleOffset {
		arg := s.memory(&ch.offsetMem, ch.effect.Arg, true)
		offset := int(arg) * 256
		if offset >= len(ch.sample.Data) {
			ch.active = false
		} else {
			ch.pos = int64(offset) << 32
		}
	}
}

func (s *Sequencer) restartSample(ch *channel) {
	if ch.sample == nil {
		return
	}
	ch.pos = 0
	ch.backward = false
	ch.retrigger = true
	ch.active = len(ch.sample.Data) != 0
}

func (s *Sequencer) resetEnvelopes(ch *channel) {
	ch.keyOn = true
	ch.fadeout = 32768
	ch.volEnvTick = 0
	ch.panEnvTick = 0
	ch.autoVibPhase = 0
	ch.autoVibAmp = 0
}

func (s *Sequencer) keyOff(ch *channel) {
	ch.keyOn = false
	if ch.inst == nil || !ch.inst.VolumeEnvelope.Enabled {
		ch.volume = 0
	}
}

// memory implements the "zero argument reuses the previous one" rule.
// The Amiga trackers only have it for a few effects.
func (s *Sequencer) memory(mem *uint8, arg uint8, amigaToo bool) uint8 {
	if arg != 0 || (!amigaToo && s.song.Format.IsMOD()) {
		*mem = arg
	}
	return *mem
}

func (s *Sequencer) finetuneArg(arg uint8) int {
	if s.song.Format.IsMOD() {
		ft := int(arg & 0xf)
		if ft > 7 {
			ft -= 16
		}
		return ft * 16
	}
	return int(arg&0xf)*16 - 128
}

func (s *Sequencer) notePeriod(key, finetune int) int {
	if s.song.LinearPeriods {
		return linearPeriod(key, finetune)
	}
	return paula.Period(key, finetune)
}

func (s *Sequencer) slidePeriod(period int) int {
	if s.song.AmigaLimits {
		return paula.ClampPeriod(period)
	}
	return clamp(period, 1, maxPeriod)
}

func (s *Sequencer) rowEffects(ch *channel, fx fxdb.Effect) {
	switch fx.Op {
	case fxdb.EffectPortamentoUp:
		s.memory(&ch.portaUpMem, fx.Arg, false)
	case fxdb.EffectPortamentoDown:
		s.memory(&ch.portaDownMem, fx.Arg, false)
	case fxdb.EffectNotePortamento:
		if fx.Arg != 0 {
			ch.portaSpeed = int(fx.Arg) * 4
		}
	case fxdb.EffectVibrato:
		setLFO(&ch.vibrato, fx)
	case fxdb.EffectTremolo:
		setLFO(&ch.tremolo, fx)
	case fxdb.EffectVolumeSlide, fxdb.EffectNotePortamentoWithVolumeSlide, fxdb.EffectVibratoWithVolumeSlide:
		s.memory(&ch.volumeSlideMem, fx.Arg, false)

	case fxdb.EffectSetPanning:
		if !s.song.AmigaLimits {
			ch.panning = int(fx.Arg)
		}
	case fxdb.EffectSetCoarsePanning:
		if !s.song.AmigaLimits {
			ch.panning = int(fx.Arg) * 17
		}

	case fxdb.EffectPositionJump:
		s.positionJump = true
		s.jumpOrder = int(fx.Arg)
	case fxdb.EffectPatternBreak:
		s.patternBreak = true
		s.breakRow = int(fx.Arg)
	case fxdb.EffectPatternLoop:
		s.patternLoop(ch, int(fx.Arg))
	case fxdb.EffectPatternDelay:
		if s.patternDelay == 0 {
			s.patternDelay = int(fx.Arg)
		}

	case fxdb.EffectSetVolume:
		ch.volume = min(int(fx.Arg), 64)
	case fxdb.EffectFineVolumeSlideUp:
		arg := s.memory(&ch.fineVolumeUpMem, fx.Arg, false)
		ch.volume = min(ch.volume+int(arg), 64)
	case fxdb.EffectFineVolumeSlideDown:
		arg := s.memory(&ch.fineVolumeDownMem, fx.Arg, false)
		ch.volume = max(ch.volume-int(arg), 0)
	case fxdb.EffectNoteCut:
		if fx.Arg == 0 {
			ch.volume = 0
		}

	case fxdb.EffectFinePortamentoUp:
		arg := s.memory(&ch.finePortaUpMem, fx.Arg, false)
		ch.period = s.slidePeriod(ch.period - int(arg)*4)
	case fxdb.EffectFinePortamentoDown:
		arg := s.memory(&ch.finePortaDownMem, fx.Arg, false)
		ch.period = s.slidePeriod(ch.period + int(arg)*4)
	case fxdb.EffectExtraFinePortamentoUp:
		arg := s.memory(&ch.extraFineUpMem, fx.Arg, false)
		ch.period = s.slidePeriod(ch.period - int(arg))
	case fxdb.EffectExtraFinePortamentoDown:
		arg := s.memory(&ch.extraFineDownMem, fx.Arg, false)
		ch.period = s.slidePeriod(ch.period + int(arg))

	case fxdb.EffectGlissando:
		ch.glissando = fx.Arg != 0
	case fxdb.EffectVibratoWaveform:
		ch.vibrato.Shape = int(fx.Arg)
	case fxdb.EffectTremoloWaveform:
		ch.tremolo.Shape = int(fx.Arg)
	case fxdb.EffectSetFinetune:
		ch.finetune = s.finetuneArg(fx.Arg)

	case fxdb.EffectSetSpeed:
		if fx.Arg != 0 {
			s.speed = int(fx.Arg)
		} else if s.song.Format.IsMOD() {
			s.stopSong = true
		}
	case fxdb.EffectSetTempo:
		s.tempo = int(fx.Arg)
	case fxdb.EffectSetGlobalVolume:
		s.globalVolume = min(int(fx.Arg), 64)
	case fxdb.EffectGlobalVolumeSlide:
		s.memory(&ch.globalSlideMem, fx.Arg, true)

	case fxdb.EffectKeyOff:
		if fx.Arg == 0 {
			s.keyOff(ch)
		}
	case fxdb.EffectSetEnvelopePos:
		ch.volEnvTick = int(fx.Arg)
		ch.panEnvTick = int(fx.Arg)
	case fxdb.EffectPanningSlide:
		s.memory(&ch.panningSlideMem, fx.Arg, true)
	case fxdb.EffectMultiRetrigger:
		if hi := fx.Hi(); hi != 0 {
			ch.multiRetrigMem = hi<<4 | ch.multiRetrigMem&0xf
		}
		if lo := fx.Lo(); lo != 0 {
			ch.multiRetrigMem = ch.multiRetrigMem&0xf0 | lo
		}
	case fxdb.EffectTremor:
		s.memory(&ch.tremorMem, fx.Arg, true)
	}
}

func (s *Sequencer) volumeColumnRow(ch *channel, vfx fxdb.Effect) {
	switch vfx.Op {
	case fxdb.EffectSetVolume:
		ch.volume = min(int(vfx.Arg), 64)
	case fxdb.EffectFineVolumeSlideUp:
		ch.volume = min(ch.volume+int(vfx.Arg), 64)
	case fxdb.EffectFineVolumeSlideDown:
		ch.volume = max(ch.volume-int(vfx.Arg), 0)
	case fxdb.EffectSetVibratoSpeed:
		if vfx.Arg != 0 {
			ch.vibrato.Speed = int(vfx.Arg)
		}
	case fxdb.EffectVibrato:
		if vfx.Arg != 0 {
			ch.vibrato.Depth = int(vfx.Arg)
		}
	case fxdb.EffectSetPanning:
		ch.panning = int(vfx.Arg)
	case fxdb.EffectNotePortamento:
		if vfx.Arg != 0 {
			ch.portaSpeed = int(vfx.Arg) * 4
		}
	}
}

// tickEffects applies the continuous effects; t is a tick inside the row.
func (s *Sequencer) tickEffects(ch *channel, t int) {
	if ch.hasDelayed && t == int(ch.effect.Arg) {
		ch.hasDelayed = false
		s.startCell(ch, ch.delayedCell)
		s.volumeColumnRow(ch, ch.volumeEffect)
	}
	if t == 0 {
		// The first tick of a repeated row (pattern delay).
		return
	}

	fx := ch.effect
	switch fx.Op {
	case fxdb.EffectArpeggio:
		switch t % 3 {
		case 0:
			ch.arpeggio = 0
		case 1:
			ch.arpeggio = int(fx.Hi())
		case 2:
			ch.arpeggio = int(fx.Lo())
		}
	case fxdb.EffectPortamentoUp:
		ch.period = s.slidePeriod(ch.period - int(ch.portaUpMem)*4)
	case fxdb.EffectPortamentoDown:
		ch.period = s.slidePeriod(ch.period + int(ch.portaDownMem)*4)
	case fxdb.EffectNotePortamento:
		s.tonePortamento(ch)
	case fxdb.EffectNotePortamentoWithVolumeSlide:
		s.tonePortamento(ch)
		s.volumeSlide(ch)
	case fxdb.EffectVibrato:
		s.vibrato(ch)
	case fxdb.EffectVibratoWithVolumeSlide:
		s.vibrato(ch)
		s.volumeSlide(ch)
	case fxdb.EffectTremolo:
		ch.tremoloDelta = ch.tremolo.Value() * ch.tremolo.Depth >> 6
		ch.tremolo.Advance()
	case fxdb.EffectVolumeSlide:
		s.volumeSlide(ch)
	case fxdb.EffectRetrigger:
		if fx.Arg != 0 && t%int(fx.Arg) == 0 {
			s.restartSample(ch)
		}
	case fxdb.EffectNoteCut:
		if t == int(fx.Arg) {
			ch.volume = 0
		}
	case fxdb.EffectKeyOff:
		if t == int(fx.Arg) {
			s.keyOff(ch)
		}
	case fxdb.EffectGlobalVolumeSlide:
		arg := ch.globalSlideMem
		if hi := int(arg >> 4); hi != 0 {
			s.globalVolume = min(s.globalVolume+hi, 64)
		} else {
			s.globalVolume = max(s.globalVolume-int(arg&0xf), 0)
		}
	case fxdb.EffectPanningSlide:
		arg := ch.panningSlideMem
		if hi := int(arg >> 4); hi != 0 {
			ch.panning = min(ch.panning+hi, 255)
		} else {
			ch.panning = max(ch.panning-int(arg&0xf), 0)
		}
	case fxdb.EffectMultiRetrigger:
		s.multiRetrigger(ch)
	case fxdb.EffectTremor:
		on := int(ch.tremorMem>>4) + 1
		off := int(ch.tremorMem&0xf) + 1
		ch.tremorOff = ch.tremorPos%(on+off) >= on
		ch.tremorPos++
	}

	vfx := ch.volumeEffect
	switch vfx.Op {
	case fxdb.EffectVolumeSlideDown:
		ch.volume = max(ch.volume-int(vfx.Arg), 0)
	case fxdb.EffectVolumeSlideUp:
		ch.volume = min(ch.volume+int(vfx.Arg), 64)
	case fxdb.EffectPanningSlideLeft:
		ch.panning = max(ch.panning-int(vfx.Arg), 0)
	case fxdb.EffectPanningSlideRight:
		ch.panning = min(ch.panning+int(vfx.Arg), 255)
	case fxdb.EffectVibrato:
		if fx.Op != fxdb.EffectVibrato && fx.Op != fxdb.EffectVibratoWithVolumeSlide {
			s.vibrato(ch)
		}
	case fxdb.EffectNotePortamento:
		if !fx.IsPortamento() {
			s.tonePortamento(ch)
		}
	}
}

func setLFO(lfo *paula.LFO, fx fxdb.Effect) {
	if hi := fx.Hi(); hi != 0 {
		lfo.Speed = int(hi)
	}
	if lo := fx.Lo(); lo != 0 {
		lfo.Depth = int(lo)
	}
}

func (s *Sequencer) vibrato(ch *channel) {
	ch.vibratoDelta = ch.vibrato.Value() * ch.vibrato.Depth >> 5
	ch.vibrato.Advance()
}

func (s *Sequencer) volumeSlide(ch *channel) {
	arg := ch.volumeSlideMem
	if hi := int(arg >> 4); hi != 0 {
		ch.volume = min(ch.volume+hi, 64)
	} else {
		ch.volume = max(ch.volume-int(arg&0xf), 0)
	}
}

func (s *Sequencer) tonePortamento(ch *channel) {
	if ch.portaTarget == 0 || ch.period == ch.portaTarget {
		return
	}
	if ch.period < ch.portaTarget {
		ch.period = min(ch.period+ch.portaSpeed, ch.portaTarget)
	} else {
		ch.period = max(ch.period-ch.portaSpeed, ch.portaTarget)
	}
}

func (s *Sequencer) patternLoop(ch *channel, arg int) {
	if arg == 0 {
		ch.loopRow = s.cursor.Row
		return
	}
	if ch.loopCount == 0 {
		ch.loopCount = arg
	} else {
		ch.loopCount--
	}
	if ch.loopCount != 0 {
		s.loopJump = true
		s.loopRow = ch.loopRow
	}
}

func (s *Sequencer) multiRetrigger(ch *channel) {
	arg := ch.multiRetrigMem
	interval := int(arg & 0xf)
	if interval == 0 {
		return
	}
	ch.retrigCount++
	if ch.retrigCount < interval {
		return
	}
	ch.retrigCount = 0

	v := ch.volume
	switch arg >> 4 {
	case 0x1:
		v--
	case 0x2:
		v -= 2
	case 0x3:
		v -= 4
	case 0x4:
		v -= 8
	case 0x5:
		v -= 16
	case 0x6:
		v = v * 2 / 3
	case 0x7:
		v /= 2
	case 0x9:
		v++
	case 0xA:
		v += 2
	case 0xB:
		v += 4
	case 0xC:
		v += 8
	case 0xD:
		v += 16
	case 0xE:
		v = v * 3 / 2
	case 0xF:
		v *= 2
	}
	ch.volume = clamp(v, 0, 64)
	s.restartSample(ch)
}
