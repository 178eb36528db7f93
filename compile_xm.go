package flod

import (
	"encoding/binary"

	"github.com/quasilyte/flod/internal/fxdb"
	"github.com/quasilyte/flod/internal/paula"
	"github.com/quasilyte/flod/xmfile"
)

type xmCompiler struct {
	format Format
	result *Song
}

func compileXM(m *xmfile.Module, format Format) (*Song, error) {
	c := &xmCompiler{
		format: format,
		result: &Song{
			Format:              format,
			Title:               m.Name,
			Tracker:             m.TrackerName,
			NumChannels:         m.NumChannels,
			RestartOrder:        m.RestartPosition,
			InitialSpeed:        m.DefaultTempo,
			InitialTempo:        m.DefaultBPM,
			InitialGlobalVolume: 64,
			LinearPeriods:       m.LinearFrequencies(),
			AmigaClock:          paula.FastTrackerClock,
		},
	}
	if err := c.compile(m); err != nil {
		return nil, err
	}
	return c.result, nil
}

func (c *xmCompiler) compile(m *xmfile.Module) error {
	song := c.result

	if song.Tracker == "" {
		song.Tracker = c.format.String()
	}
	if song.InitialSpeed == 0 {
		song.InitialSpeed = 6
	}
	if song.InitialTempo < 32 {
		song.InitialTempo = 125
	}

	song.DefaultPanning = make([]int, m.NumChannels)
	for i := range song.DefaultPanning {
		song.DefaultPanning[i] = 128
	}

	song.Orders = make([]int, len(m.PatternOrder))
	for i, p := range m.PatternOrder {
		if int(p) >= m.NumPatterns {
			return malformedf(c.format, "order %d references pattern %d, the module has %d patterns",
				i, p, m.NumPatterns)
		}
		song.Orders[i] = int(p)
	}

	if err := c.compileInstruments(m); err != nil {
		return err
	}

	return c.compilePatterns(m)
}

func (c *xmCompiler) compileInstruments(m *xmfile.Module) error {
	c.result.Instruments = make([]Instrument, len(m.Instruments))
	for i := range m.Instruments {
		rawInst := &m.Instruments[i]
		inst := &c.result.Instruments[i]

		inst.Name = rawInst.Name
		copy(inst.KeyMap[:], rawInst.KeymapAssignments)
		inst.Fadeout = rawInst.VolumeFadeout
		inst.VibratoType = int(rawInst.VibratoType)
		inst.VibratoSweep = int(rawInst.VibratoSweep)
		inst.VibratoDepth = int(rawInst.VibratoDepth)
		inst.VibratoRate = int(rawInst.VibratoRate)

		inst.VolumeEnvelope = c.compileEnvelope(rawInst.EnvelopeVolume, rawInst.VolumeFlags,
			rawInst.VolumeSustainPoint, rawInst.VolumeLoopStartPoint, rawInst.VolumeLoopEndPoint)
		inst.PanningEnvelope = c.compileEnvelope(rawInst.EnvelopePanning, rawInst.PanningFlags,
			rawInst.PanningSustainPoint, rawInst.PanningLoopStartPoint, rawInst.PanningLoopEndPoint)

		inst.Samples = make([]Sample, len(rawInst.Samples))
		for j := range rawInst.Samples {
			if err := c.compileSample(&inst.Samples[j], &rawInst.Samples[j]); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *xmCompiler) compileEnvelope(points []xmfile.EnvelopePoint, flags xmfile.EnvelopeFlags, sustain, loopStart, loopEnd uint8) Envelope {
	env := Envelope{
		Points: make([]EnvelopePoint, len(points)),
	}
	tick := 0
	for i, p := range points {
		if c.format == FormatDigiBoosterPro {
			// DigiBooster Pro stores the distance to the previous point.
			tick += int(p.X)
		} else {
			tick = int(p.X)
		}
		env.Points[i] = EnvelopePoint{Tick: tick, Value: clamp(int(p.Y), 0, 64)}
	}

	n := len(points)
	env.Enabled = flags.IsOn() && n != 0
	if int(sustain) < n {
		env.Sustain = flags.SustainEnabled()
		env.SustainPoint = int(sustain)
	}
	if int(loopStart) <= int(loopEnd) && int(loopEnd) < n {
		env.Loop = flags.LoopEnabled()
		env.LoopStart = int(loopStart)
		env.LoopEnd = int(loopEnd)
	}

	return env
}

func (c *xmCompiler) compileSample(dst *Sample, sample *xmfile.InstrumentSample) error {
	dst.Name = sample.Name
	dst.Volume = clamp(sample.Volume, 0, 64)
	dst.Finetune = sample.Finetune
	dst.Panning = int(sample.Panning)
	dst.RelativeNote = sample.RelativeNote

	loopStart := sample.LoopStart
	loopLength := sample.LoopLength

	// Convert 8-bit samples into signed 16-bit samples.
	// Also note that sample.Data stores deltas while
	// the result holds the absolute values.
	switch {
	case sample.Format == xmfile.SampleFormatADPCM:
		dst.Data = decodeADPCM(sample.Data, sample.Length)

	case sample.Is16bits():
		loopStart /= 2
		loopLength /= 2
		dst.Data = make([]int16, len(sample.Data)/2)
		v := int16(0)
		for i := range dst.Data {
			v += int16(binary.LittleEndian.Uint16(sample.Data[i*2:]))
			dst.Data[i] = v
		}

	default:
		dst.Data = make([]int16, len(sample.Data))
		v := int8(0)
		for i, delta := range sample.Data {
			v += int8(delta)
			dst.Data[i] = int16(v) << 8
		}
	}

	switch sample.LoopType() {
	case xmfile.SampleLoopNone:
		dst.Loop = LoopNone
	case xmfile.SampleLoopPingPong:
		dst.Loop = LoopPingPong
	default:
		dst.Loop = LoopForward
	}
	if dst.Loop == LoopNone || loopLength == 0 {
		dst.Loop = LoopNone
		loopStart = 0
		loopLength = 0
	}
	if loopStart+loopLength > len(dst.Data) {
		return malformedf(c.format, "sample %q loop window %d+%d exceeds its length %d",
			sample.Name, loopStart, loopLength, len(dst.Data))
	}
	dst.LoopStart = loopStart
	dst.LoopLength = loopLength

	return nil
}

// decodeADPCM unpacks ModPlug 4-bit ADPCM samples:
// a 16-byte delta table followed by two indexes per byte, low nibble first.
func decodeADPCM(data []byte, length int) []int16 {
	if len(data) < 16 {
		return nil
	}
	table := data[:16]
	packed := data[16:]
	out := make([]int16, 0, length)
	v := int8(0)
	for _, b := range packed {
		for _, nibble := range [2]byte{b & 0xf, b >> 4} {
			if len(out) == length {
				return out
			}
			v += int8(table[nibble])
			out = append(out, int16(v)<<8)
		}
	}
	return out
}

func (c *xmCompiler) compilePatterns(m *xmfile.Module) error {
	song := c.result
	song.Patterns = make([]Pattern, len(m.Patterns))

	for i := range m.Patterns {
		rawPat := &m.Patterns[i]
		pat := &song.Patterns[i]
		pat.NumRows = len(rawPat.Rows)
		pat.NumChannels = m.NumChannels
		pat.Cells = make([]Cell, 0, len(rawPat.Rows)*m.NumChannels)
		for rowIndex, row := range rawPat.Rows {
			for ch, rawNote := range row.Notes {
				if rawNote.Note > NoteKeyOff {
					return malformedf(c.format, "pattern %d row %d channel %d: invalid note %d",
						i, rowIndex, ch, rawNote.Note)
				}
				if int(rawNote.Instrument) > len(song.Instruments) {
					return malformedf(c.format, "pattern %d row %d channel %d: instrument %d is not defined",
						i, rowIndex, ch, rawNote.Instrument)
				}
				cell := Cell{
					Note:       rawNote.Note,
					Instrument: rawNote.Instrument,
					Volume:     rawNote.Volume,
					Effect:     rawNote.EffectType,
					Param:      rawNote.EffectParameter,
				}
				if fxdb.Decode(cell.Effect, cell.Param).IsEmpty() {
					// Unsupported effects are dropped.
					cell.Effect = 0
					cell.Param = 0
				}
				pat.Cells = append(pat.Cells, cell)
			}
		}
	}

	return nil
}
