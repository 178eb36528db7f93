package flod

import (
	"github.com/quasilyte/flod/internal/paula"
	"github.com/quasilyte/flod/modfile"
)

func compileMOD(m *modfile.Module, format Format) (*Song, error) {
	song := &Song{
		Format:              format,
		Title:               m.Title,
		Tracker:             format.String(),
		NumChannels:         m.NumChannels,
		InitialSpeed:        6,
		InitialTempo:        125,
		InitialGlobalVolume: 64,
		AmigaClock:          paula.PALClock * 4,
		AmigaLimits:         format != FormatMultichannel,
	}

	song.Orders = make([]int, m.SongLength)
	for i := range song.Orders {
		song.Orders[i] = int(m.Orders[i])
	}

	// SoundTracker keeps the song tempo in the restart byte.
	if format != FormatSoundTracker && m.RestartPosition < m.SongLength {
		song.RestartOrder = m.RestartPosition
	}

	song.DefaultPanning = make([]int, m.NumChannels)
	for i := range song.DefaultPanning {
		song.DefaultPanning[i] = paula.ChannelPanning(i)
	}

	song.Instruments = make([]Instrument, len(m.Samples))
	for i := range m.Samples {
		raw := &m.Samples[i]
		s := Sample{
			Name:     raw.Name,
			Data:     make([]int16, len(raw.Data)),
			Volume:   raw.Volume,
			Finetune: raw.Finetune * 16,
			Panning:  -1,
		}
		for j, v := range raw.Data {
			s.Data[j] = int16(v) << 8
		}
		if raw.Looped() {
			s.Loop = LoopForward
			s.LoopStart = raw.LoopStart
			s.LoopLength = raw.LoopLength
		}
		song.Instruments[i] = Instrument{
			Name:    raw.Name,
			Samples: []Sample{s},
		}
	}

	song.Patterns = make([]Pattern, len(m.Patterns))
	for i := range m.Patterns {
		notes := m.Patterns[i].Notes
		pat := &song.Patterns[i]
		pat.NumRows = modfile.NumRows
		pat.NumChannels = m.NumChannels
		pat.Cells = make([]Cell, len(notes))
		for j, n := range notes {
			if int(n.Sample) > len(song.Instruments) {
				return nil, malformedf(format, "pattern %d row %d channel %d: sample %d is not defined",
					i, j/m.NumChannels, j%m.NumChannels, n.Sample)
			}
			cell := Cell{
				Instrument: n.Sample,
				Effect:     n.Effect,
				Param:      n.Param,
			}
			if n.Period != 0 {
				cell.Note = uint8(paula.KeyFromPeriod(int(n.Period)*4) + 1)
			}
			pat.Cells[j] = cell
		}
	}

	return song, nil
}
