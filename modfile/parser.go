package modfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/quasilyte/flod/internal/bytestream"
)

type parser struct {
	s *bytestream.Stream

	module Module

	numSamples int
	stage      string
}

// Parse decodes a MOD file.
//
// The layout is selected by the signature at offset 1080:
// a known id means 31 samples, anything else is read as a
// 15-sample SoundTracker module.
//
// A non-nil error is always a *ParseError object.
func Parse(data []byte) (*Module, error) {
	p := &parser{
		s:          bytestream.New(data, binary.BigEndian),
		numSamples: 15,
	}
	if id, ok := p.s.PeekString(SignatureOffset, 4); ok {
		if n := ChannelsFromSignature(id); n != 0 {
			p.numSamples = 31
			p.module.Signature = id
			p.module.NumChannels = n
		}
	}
	if p.numSamples == 15 {
		p.module.NumChannels = 4
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return &p.module, nil
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return p.errorAt(p.s.Pos(), format, args...)
}

func (p *parser) errorAt(offset int, format string, args ...any) *ParseError {
	text := fmt.Sprintf(format, args...)
	if p.stage != "" {
		text = p.stage + ": " + text
	}
	return &ParseError{Message: text, Offset: offset}
}

func (p *parser) check(err error, what string) {
	if err == nil {
		return
	}
	var boundsErr *bytestream.OutOfBoundsError
	if errors.As(err, &boundsErr) {
		panic(p.errorAt(boundsErr.Offset, "unexpected EOF while reading %s", what))
	}
	panic(p.errorf("reading %s: %v", what, err))
}

func (p *parser) readByte(what string) uint8 {
	v, err := p.s.ReadUint8()
	p.check(err, what)
	return v
}

func (p *parser) readWord(what string) uint16 {
	v, err := p.s.ReadUint16()
	p.check(err, what)
	return v
}

func (p *parser) readString(n int, what string) string {
	v, err := p.s.ReadCString(n)
	p.check(err, what)
	return v
}

func (p *parser) read(n int, what string) []byte {
	v, err := p.s.ReadBytes(n)
	p.check(err, what)
	return v
}

func (p *parser) parse() (err error) {
	defer func() {
		rv := recover()
		if rv != nil {
			if panicErr, ok := rv.(*ParseError); ok {
				err = panicErr
			} else {
				panic(rv)
			}
		}
	}()

	p.stage = "header"
	p.module.Title = p.readString(20, "title")

	p.module.Samples = make([]Sample, p.numSamples)
	for i := range p.module.Samples {
		p.stage = fmt.Sprintf("sample[%d]", i)
		p.parseSampleHeader(&p.module.Samples[i])
	}

	p.stage = "order table"
	p.parseOrders()

	if p.numSamples == 31 {
		p.check(p.s.Skip(4), "signature")
	}

	for i := range p.module.Patterns {
		p.stage = fmt.Sprintf("pattern[%d]", i)
		p.module.Patterns[i] = p.parsePattern()
	}

	for i := range p.module.Samples {
		p.stage = fmt.Sprintf("sampledata[%d]", i)
		sample := &p.module.Samples[i]
		if sample.Length == 0 {
			continue
		}
		raw := p.read(sample.Length, "sample data")
		sample.Data = make([]int8, len(raw))
		for j, b := range raw {
			sample.Data[j] = int8(b)
		}
	}

	return nil
}

func (p *parser) parseSampleHeader(sample *Sample) {
	sample.Name = p.readString(22, "sample name")
	sample.Length = int(p.readWord("sample length")) * 2

	// The finetune is a signed nibble.
	ft := int(p.readByte("sample finetune") & 0xf)
	if ft > 7 {
		ft -= 16
	}
	sample.Finetune = ft

	sample.Volume = int(p.readByte("sample volume"))
	if sample.Volume > 64 {
		sample.Volume = 64
	}

	loopStart := int(p.readWord("sample loop start"))
	if p.numSamples == 31 {
		// SoundTracker stored the loop start in bytes,
		// everything after it uses words.
		loopStart *= 2
	}
	sample.LoopStart = loopStart
	sample.LoopLength = int(p.readWord("sample loop length")) * 2

	if sample.Looped() && sample.LoopStart+sample.LoopLength > sample.Length {
		panic(p.errorf("loop window %d+%d exceeds sample length %d",
			sample.LoopStart, sample.LoopLength, sample.Length))
	}
}

func (p *parser) parseOrders() {
	offset := p.s.Pos()
	p.module.SongLength = int(p.readByte("song length"))
	if p.module.SongLength == 0 || p.module.SongLength > MaxOrders {
		panic(p.errorAt(offset, "invalid song length: %d", p.module.SongLength))
	}
	p.module.RestartPosition = int(p.readByte("restart position"))

	orders := p.read(MaxOrders, "orders")
	copy(p.module.Orders[:], orders)

	// The pattern count is not stored; ProTracker saves every pattern
	// mentioned in the whole table, including the entries past the song end.
	numPatterns := 0
	for _, o := range p.module.Orders {
		if o >= MaxOrders {
			panic(p.errorAt(offset, "invalid pattern index in the order table: %d", o))
		}
		numPatterns = max(numPatterns, int(o)+1)
	}

	patternSize := NumRows * p.module.NumChannels * 4
	dataStart := p.s.Pos()
	if p.numSamples == 31 {
		dataStart += 4
	}
	if dataStart+numPatterns*patternSize > p.s.Len() {
		panic(p.errorAt(offset, "%d patterns need %d bytes, only %d available",
			numPatterns, numPatterns*patternSize, p.s.Len()-dataStart))
	}
	p.module.Patterns = make([]Pattern, numPatterns)
}

func (p *parser) parsePattern() Pattern {
	raw := p.read(NumRows*p.module.NumChannels*4, "pattern data")
	pat := Pattern{Notes: make([]Note, NumRows*p.module.NumChannels)}
	for i := range pat.Notes {
		b := raw[i*4 : i*4+4]
		pat.Notes[i] = Note{
			Period: uint16(b[0]&0x0f)<<8 | uint16(b[1]),
			Sample: (b[0] & 0xf0) | (b[2] >> 4),
			Effect: b[2] & 0x0f,
			Param:  b[3],
		}
	}
	return pat
}
