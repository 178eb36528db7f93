// Package fxdb decodes tracker effect bytes into effect opcodes.
//
// Cells keep FastTracker II effect numbering (the Amiga effect set is a subset of it);
// the sequencer only works with the decoded opcodes.
package fxdb

type Effect struct {
	Op  EffectOp
	Arg uint8
}

type EffectOp uint8

const (
	EffectNone EffectOp = iota

	// Encoding: effect=0x00
	// Arg: semitone offsets (x, y)
	EffectArpeggio

	// Encoding: effect=0x01
	// Arg: slide speed (0 = reuse the previous value)
	EffectPortamentoUp

	// Encoding: effect=0x02
	EffectPortamentoDown

	// Encoding: effect=0x03 [or] volume byte 0xF?
	// Arg: slide speed
	EffectNotePortamento

	// Encoding: effect=0x04 [or] volume byte 0xB?
	// Arg: speed and depth nibbles
	EffectVibrato

	// Encoding: effect=0x05
	// Arg: volume slide argument
	EffectNotePortamentoWithVolumeSlide

	// Encoding: effect=0x06
	// Arg: volume slide argument
	EffectVibratoWithVolumeSlide

	// Encoding: effect=0x07
	// Arg: speed and depth nibbles
	EffectTremolo

	// Encoding: effect=0x08 [or] volume byte 0xC? (Arg is already scaled to 0..255)
	EffectSetPanning

	// Encoding: effect=0x09
	// Arg: offset in 256-sample units
	EffectSampleOffset

	// Encoding: effect=0x0A
	// Arg: slide up (hi nibble) or down (lo nibble) speed
	EffectVolumeSlide

	// Encoding: effect=0x0B
	// Arg: order list position
	EffectPositionJump

	// Encoding: effect=0x0C [or] volume byte 0x10-0x50
	// Arg: volume level
	EffectSetVolume

	// Encoding: effect=0x0D
	// Arg: row number, already decoded from decimal digits
	EffectPatternBreak

	// Encoding: effect=0x0E 0x1?
	EffectFinePortamentoUp

	// Encoding: effect=0x0E 0x2?
	EffectFinePortamentoDown

	// Encoding: effect=0x0E 0x3?
	// Arg: 0 = off, 1 = on
	EffectGlissando

	// Encoding: effect=0x0E 0x4?
	// Arg: waveform
	EffectVibratoWaveform

	// Encoding: effect=0x0E 0x5?
	// Arg: finetune nibble
	EffectSetFinetune

	// Encoding: effect=0x0E 0x6?
	// Arg: 0 = set loop start; N = loop N times
	EffectPatternLoop

	// Encoding: effect=0x0E 0x7?
	// Arg: waveform
	EffectTremoloWaveform

	// Encoding: effect=0x0E 0x8?
	// Arg: coarse panning (0..15)
	EffectSetCoarsePanning

	// Encoding: effect=0x0E 0x9?
	// Arg: retrigger interval in ticks
	EffectRetrigger

	// Encoding: effect=0x0E 0xA? [or] volume byte 0x9?
	EffectFineVolumeSlideUp

	// Encoding: effect=0x0E 0xB? [or] volume byte 0x8?
	EffectFineVolumeSlideDown

	// Encoding: effect=0x0E 0xC?
	// Arg: tick number
	EffectNoteCut

	// Encoding: effect=0x0E 0xD?
	// Arg: tick number
	EffectNoteDelay

	// Encoding: effect=0x0E 0xE?
	// Arg: number of rows to repeat
	EffectPatternDelay

	// Encoding: effect=0x0F with arg < 0x20
	EffectSetSpeed

	// Encoding: effect=0x0F with arg >= 0x20
	EffectSetTempo

	// Encoding: effect=0x10 (G)
	EffectSetGlobalVolume

	// Encoding: effect=0x11 (H)
	EffectGlobalVolumeSlide

	// Encoding: effect=0x14 (K) [or] key-off note
	// Arg: tick number (always a first tick for key-off note)
	EffectKeyOff

	// Encoding: effect=0x15 (L)
	// Arg: envelope tick
	EffectSetEnvelopePos

	// Encoding: effect=0x19 (P)
	EffectPanningSlide

	// Encoding: effect=0x1B (R)
	// Arg: volume change (hi nibble) and interval (lo nibble)
	EffectMultiRetrigger

	// Encoding: effect=0x1D (T)
	// Arg: on ticks (hi nibble) and off ticks (lo nibble)
	EffectTremor

	// Encoding: effect=0x21 (X) 0x1?
	EffectExtraFinePortamentoUp

	// Encoding: effect=0x21 (X) 0x2?
	EffectExtraFinePortamentoDown

	// The ops below only come from the volume column.

	// Encoding: volume byte 0x6?
	EffectVolumeSlideDown

	// Encoding: volume byte 0x7?
	EffectVolumeSlideUp

	// Encoding: volume byte 0xA?
	EffectSetVibratoSpeed

	// Encoding: volume byte 0xD?
	EffectPanningSlideLeft

	// Encoding: volume byte 0xE?
	EffectPanningSlideRight
)

// Decode converts the effect columns of a cell into an opcode.
// Unknown effects decode into EffectNone.
func Decode(effectType, param uint8) Effect {
	e := Effect{Arg: param}

	switch effectType {
	case 0x00:
		if param != 0 {
			e.Op = EffectArpeggio
		}
	case 0x01:
		e.Op = EffectPortamentoUp
	case 0x02:
		e.Op = EffectPortamentoDown
	case 0x03:
		e.Op = EffectNotePortamento
	case 0x04:
		e.Op = EffectVibrato
	case 0x05:
		e.Op = EffectNotePortamentoWithVolumeSlide
	case 0x06:
		e.Op = EffectVibratoWithVolumeSlide
	case 0x07:
		e.Op = EffectTremolo
	case 0x08:
		e.Op = EffectSetPanning
	case 0x09:
		e.Op = EffectSampleOffset
	case 0x0A:
		e.Op = EffectVolumeSlide
	case 0x0B:
		e.Op = EffectPositionJump
	case 0x0C:
		e.Op = EffectSetVolume
	case 0x0D:
		e.Op = EffectPatternBreak
		e.Arg = (param>>4)*10 + param&0xf
	case 0x0E:
		return decodeExtended(param)
	case 0x0F:
		if param < 0x20 {
			e.Op = EffectSetSpeed
		} else {
			e.Op = EffectSetTempo
		}
	case 0x10:
		e.Op = EffectSetGlobalVolume
	case 0x11:
		e.Op = EffectGlobalVolumeSlide
	case 0x14:
		e.Op = EffectKeyOff
	case 0x15:
		e.Op = EffectSetEnvelopePos
	case 0x19:
		e.Op = EffectPanningSlide
	case 0x1B:
		e.Op = EffectMultiRetrigger
	case 0x1D:
		e.Op = EffectTremor
	case 0x21:
		e.Arg = param & 0xf
		switch param >> 4 {
		case 1:
			e.Op = EffectExtraFinePortamentoUp
		case 2:
			e.Op = EffectExtraFinePortamentoDown
		}
	}

	return e
}

func decodeExtended(param uint8) Effect {
	e := Effect{Arg: param & 0xf}
	switch param >> 4 {
	case 0x1:
		e.Op = EffectFinePortamentoUp
	case 0x2:
		e.Op = EffectFinePortamentoDown
	case 0x3:
		e.Op = EffectGlissando
	case 0x4:
		e.Op = EffectVibratoWaveform
	case 0x5:
		e.Op = EffectSetFinetune
	case 0x6:
		e.Op = EffectPatternLoop
	case 0x7:
		e.Op = EffectTremoloWaveform
	case 0x8:
		e.Op = EffectSetCoarsePanning
	case 0x9:
		e.Op = EffectRetrigger
	case 0xA:
		e.Op = EffectFineVolumeSlideUp
	case 0xB:
		e.Op = EffectFineVolumeSlideDown
	case 0xC:
		e.Op = EffectNoteCut
	case 0xD:
		e.Op = EffectNoteDelay
	case 0xE:
		e.Op = EffectPatternDelay
	}
	return e
}

// FromVolumeByte decodes the XM volume column.
func FromVolumeByte(v uint8) Effect {
	var e Effect
	arg := v & 0xf

	switch {
	case v < 0x10:
		// Do nothing.

	case v <= 0x50:
		e.Op = EffectSetVolume
		e.Arg = v - 0x10

	case v < 0x60:
		// 0x51-0x5F are unused.

	default:
		e.Arg = arg
		switch v & 0xf0 {
		case 0x60:
			e.Op = EffectVolumeSlideDown
		case 0x70:
			e.Op = EffectVolumeSlideUp
		case 0x80:
			e.Op = EffectFineVolumeSlideDown
		case 0x90:
			e.Op = EffectFineVolumeSlideUp
		case 0xA0:
			e.Op = EffectSetVibratoSpeed
		case 0xB0:
			e.Op = EffectVibrato
		case 0xC0:
			e.Op = EffectSetPanning
			e.Arg = arg * 17
		case 0xD0:
			e.Op = EffectPanningSlideLeft
		case 0xE0:
			e.Op = EffectPanningSlideRight
		case 0xF0:
			e.Op = EffectNotePortamento
			// Volume column porta speed is x*16 in effect units.
			e.Arg = arg << 4
		}
	}

	return e
}

// IsPortamento reports whether the effect makes a note slide
// instead of triggering a new sample.
func (e Effect) IsPortamento() bool {
	return e.Op == EffectNotePortamento || e.Op == EffectNotePortamentoWithVolumeSlide
}

func (e Effect) IsEmpty() bool { return e.Op == EffectNone }

// Hi and Lo return the parameter nibbles.
func (e Effect) Hi() uint8 { return e.Arg >> 4 }
func (e Effect) Lo() uint8 { return e.Arg & 0xf }
