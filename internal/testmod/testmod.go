// Package testmod builds small synthetic module files for tests.
package testmod

import (
	"bytes"
	"encoding/binary"
)

type MODSample struct {
	Name     string
	Data     []int8
	Finetune int
	Volume   int

	// LoopStart and LoopLength are in bytes.
	LoopStart  int
	LoopLength int
}

type MODNote struct {
	Period uint16
	Sample uint8
	Effect uint8
	Param  uint8
}

// MOD describes a MOD file.
// An empty Signature produces a 15-sample SoundTracker layout.
type MOD struct {
	Title     string
	Signature string
	Channels  int
	Samples   []MODSample
	Orders    []uint8
	Restart   uint8

	// Patterns hold 64*Channels notes each, row by row.
	Patterns [][]MODNote
}

// NewMOD returns a 4-channel "M.K." module with one empty pattern.
func NewMOD() *MOD {
	m := &MOD{
		Title:     "test",
		Signature: "M.K.",
		Channels:  4,
		Orders:    []uint8{0},
		Restart:   127,
	}
	m.AddPattern()
	return m
}

func (m *MOD) AddPattern() int {
	m.Patterns = append(m.Patterns, make([]MODNote, 64*m.Channels))
	return len(m.Patterns) - 1
}

func (m *MOD) SetNote(pattern, row, channel int, n MODNote) {
	m.Patterns[pattern][row*m.Channels+channel] = n
}

func (m *MOD) numSamples() int {
	if m.Signature == "" {
		return 15
	}
	return 31
}

func (m *MOD) Bytes() []byte {
	var buf bytes.Buffer
	writeFixed(&buf, m.Title, 20)

	for i := 0; i < m.numSamples(); i++ {
		var s MODSample
		if i < len(m.Samples) {
			s = m.Samples[i]
		}
		writeFixed(&buf, s.Name, 22)
		be16(&buf, uint16(len(s.Data)/2))
		buf.WriteByte(byte(s.Finetune & 0xf))
		buf.WriteByte(byte(s.Volume))
		loopStart := s.LoopStart
		if m.Signature != "" {
			loopStart /= 2
		}
		be16(&buf, uint16(loopStart))
		loopLength := s.LoopLength / 2
		if loopLength == 0 {
			loopLength = 1
		}
		be16(&buf, uint16(loopLength))
	}

	buf.WriteByte(byte(len(m.Orders)))
	buf.WriteByte(m.Restart)
	var orders [128]byte
	copy(orders[:], m.Orders)
	buf.Write(orders[:])
	if m.Signature != "" {
		writeFixed(&buf, m.Signature, 4)
	}

	for _, pat := range m.Patterns {
		for _, n := range pat {
			buf.WriteByte((n.Sample & 0xf0) | byte(n.Period>>8)&0x0f)
			buf.WriteByte(byte(n.Period))
			buf.WriteByte((n.Sample << 4) | (n.Effect & 0x0f))
			buf.WriteByte(n.Param)
		}
	}

	for i := 0; i < m.numSamples(); i++ {
		if i >= len(m.Samples) {
			break
		}
		for _, v := range m.Samples[i].Data {
			buf.WriteByte(byte(v))
		}
	}

	return buf.Bytes()
}

type XMCell struct {
	Note       uint8
	Instrument uint8
	Volume     uint8
	Effect     uint8
	Param      uint8
}

type XMPattern struct {
	Rows  int
	Cells []XMCell
}

type XMEnvelopePoint struct {
	X, Y uint16
}

type XMSample struct {
	Name string

	// Data holds 8-bit values unless Bits16 is set.
	Data     []int16
	Bits16   bool
	LoopType uint8

	// LoopStart and LoopLength are in sample frames.
	LoopStart  int
	LoopLength int

	Volume       uint8
	Finetune     int8
	Panning      uint8
	RelativeNote int8
}

type XMInstrument struct {
	Name    string
	Samples []XMSample
	KeyMap  [96]uint8

	VolumeEnvelope []XMEnvelopePoint
	VolumeFlags    uint8
	VolumeSustain  uint8
	VolumeLoop     [2]uint8

	PanningEnvelope []XMEnvelopePoint
	PanningFlags    uint8

	VibratoType, VibratoSweep, VibratoDepth, VibratoRate uint8

	Fadeout uint16
}

type XM struct {
	Name     string
	Tracker  string
	Version  uint16
	Channels int
	Orders   []uint8
	Restart  int
	Flags    uint16
	Speed    int
	BPM      int

	Patterns    []XMPattern
	Instruments []XMInstrument
}

// NewXM returns a 4-channel linear-frequency module with one empty 64-row pattern.
func NewXM() *XM {
	x := &XM{
		Name:     "test",
		Tracker:  "FastTracker v2.00",
		Version:  0x0104,
		Channels: 4,
		Orders:   []uint8{0},
		Flags:    1,
		Speed:    6,
		BPM:      125,
	}
	x.AddPattern(64)
	return x
}

func (x *XM) AddPattern(rows int) int {
	x.Patterns = append(x.Patterns, XMPattern{Rows: rows, Cells: make([]XMCell, rows*x.Channels)})
	return len(x.Patterns) - 1
}

func (x *XM) SetCell(pattern, row, channel int, c XMCell) {
	x.Patterns[pattern].Cells[row*x.Channels+channel] = c
}

func (x *XM) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("Extended Module: ")
	writeFixed(&buf, x.Name, 20)
	buf.WriteByte(0x1a)
	writeFixed(&buf, x.Tracker, 20)
	le16(&buf, x.Version)
	le32(&buf, 20+256)
	le16(&buf, uint16(len(x.Orders)))
	le16(&buf, uint16(x.Restart))
	le16(&buf, uint16(x.Channels))
	le16(&buf, uint16(len(x.Patterns)))
	le16(&buf, uint16(len(x.Instruments)))
	le16(&buf, x.Flags)
	le16(&buf, uint16(x.Speed))
	le16(&buf, uint16(x.BPM))
	var orders [256]byte
	copy(orders[:], x.Orders)
	buf.Write(orders[:])

	for _, pat := range x.Patterns {
		var packed bytes.Buffer
		empty := true
		for _, c := range pat.Cells {
			if c != (XMCell{}) {
				empty = false
			}
		}
		if !empty {
			for _, c := range pat.Cells {
				packed.WriteByte(0x80 | 0x1f)
				packed.Write([]byte{c.Note, c.Instrument, c.Volume, c.Effect, c.Param})
			}
		}
		le32(&buf, 9)
		buf.WriteByte(0)
		le16(&buf, uint16(pat.Rows))
		le16(&buf, uint16(packed.Len()))
		buf.Write(packed.Bytes())
	}

	for _, inst := range x.Instruments {
		if len(inst.Samples) == 0 {
			le32(&buf, 29)
			writeFixed(&buf, inst.Name, 22)
			buf.WriteByte(0)
			le16(&buf, 0)
			continue
		}
		le32(&buf, 263)
		writeFixed(&buf, inst.Name, 22)
		buf.WriteByte(0)
		le16(&buf, uint16(len(inst.Samples)))
		le32(&buf, 40)
		buf.Write(inst.KeyMap[:])
		writeEnvelope(&buf, inst.VolumeEnvelope)
		writeEnvelope(&buf, inst.PanningEnvelope)
		buf.WriteByte(byte(len(inst.VolumeEnvelope)))
		buf.WriteByte(byte(len(inst.PanningEnvelope)))
		buf.Write([]byte{inst.VolumeSustain, inst.VolumeLoop[0], inst.VolumeLoop[1], 0, 0, 0})
		buf.WriteByte(inst.VolumeFlags)
		buf.WriteByte(inst.PanningFlags)
		buf.Write([]byte{inst.VibratoType, inst.VibratoSweep, inst.VibratoDepth, inst.VibratoRate})
		le16(&buf, inst.Fadeout)
		buf.Write(make([]byte, 22))

		for _, s := range inst.Samples {
			width := 1
			flags := s.LoopType & 3
			if s.Bits16 {
				width = 2
				flags |= 1 << 4
			}
			le32(&buf, uint32(len(s.Data)*width))
			le32(&buf, uint32(s.LoopStart*width))
			le32(&buf, uint32(s.LoopLength*width))
			buf.WriteByte(s.Volume)
			buf.WriteByte(byte(s.Finetune))
			buf.WriteByte(flags)
			buf.WriteByte(s.Panning)
			buf.WriteByte(byte(s.RelativeNote))
			buf.WriteByte(0)
			writeFixed(&buf, s.Name, 22)
		}
		for _, s := range inst.Samples {
			// Delta coding.
			prev := int16(0)
			for _, v := range s.Data {
				d := v - prev
				prev = v
				if s.Bits16 {
					le16(&buf, uint16(d))
				} else {
					buf.WriteByte(byte(d))
				}
			}
		}
	}

	return buf.Bytes()
}

func writeEnvelope(buf *bytes.Buffer, points []XMEnvelopePoint) {
	for i := 0; i < 12; i++ {
		var p XMEnvelopePoint
		if i < len(points) {
			p = points[i]
		}
		le16(buf, p.X)
		le16(buf, p.Y)
	}
}

func writeFixed(buf *bytes.Buffer, s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	buf.Write(b)
}

func be16(buf *bytes.Buffer, v uint16) {
	buf.Write(binary.BigEndian.AppendUint16(nil, v))
}

func le16(buf *bytes.Buffer, v uint16) {
	buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func le32(buf *bytes.Buffer, v uint32) {
	buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

// ConstantSample returns n frames of the same 8-bit value.
func ConstantSample(n int, v int8) []int8 {
	data := make([]int8, n)
	for i := range data {
		data[i] = v
	}
	return data
}
