package xmfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/quasilyte/flod/internal/bytestream"
)

const (
	// The header size field is located right after the first 60 bytes.
	headerSizeOffset = 60

	maxChannels    = 32
	maxPatterns    = 256
	maxInstruments = 128
	maxEnvPoints   = 12

	sampleHeaderMinSize = 40
)

// Parser decodes XM files.
//
// A parser can be reused; the memory of the previously returned
// module is recycled, so a module must not be used after
// the next ParseFromBytes call.
type Parser struct {
	s *bytestream.Stream

	// Module holds the results of XM parsing.
	module Module

	notePool       objectPool[PatternNote]
	patternRowPool objectPool[PatternRow]

	config ParserConfig

	needsReset bool

	// These fields below are needed for better error reporting.
	stage         string
	stageIndex    int
	subStage      string
	subStageIndex int
}

func NewParser(config ParserConfig) *Parser {
	p := &Parser{config: config}
	initObjectPool(&p.notePool, 2048*8)
	initObjectPool(&p.patternRowPool, 64*20)
	return p
}

// ParseFromBytes decodes an XM file.
//
// A non-nil error is always a *ParseError object.
func (p *Parser) ParseFromBytes(data []byte) (*Module, error) {
	p.reset()
	p.needsReset = true
	p.s = bytestream.New(data, binary.LittleEndian)
	if err := p.parse(); err != nil {
		return nil, err
	}
	m := p.module
	return &m, nil
}

func (p *Parser) reset() {
	if !p.needsReset {
		// This will only happen during the first run of the parser.
		return
	}

	p.notePool.Reset()
	p.patternRowPool.Reset()
	p.module = Module{
		Patterns:    p.module.Patterns[:0],
		Instruments: p.module.Instruments[:0],
	}
}

func (p *Parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
	p.subStage = ""
	p.subStageIndex = -1
}

func (p *Parser) startSubStage(name string) {
	p.subStage = name
	p.subStageIndex = -1
}

func (p *Parser) formatStage() string {
	var b strings.Builder
	b.Grow(len(p.stage) + len(p.subStage) + 16)
	b.WriteString(p.stage)
	if p.stageIndex >= 0 {
		fmt.Fprintf(&b, "[%d]", p.stageIndex)
	}
	if p.subStage != "" {
		b.WriteByte('.')
		b.WriteString(p.subStage)
		if p.subStageIndex >= 0 {
			fmt.Fprintf(&b, "[%d]", p.subStageIndex)
		}
	}
	return b.String()
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return p.errorAt(p.s.Pos(), format, args...)
}

func (p *Parser) errorAt(offset int, format string, args ...any) *ParseError {
	text := fmt.Sprintf(format, args...)
	tag := p.formatStage()
	if tag != "" {
		text = tag + ": " + text
	}
	return &ParseError{
		Message: text,
		Offset:  offset,
	}
}

// check turns a stream error into a parser panic.
// Only the out of bounds condition is expected here.
func (p *Parser) check(err error, what string) {
	if err == nil {
		return
	}
	var boundsErr *bytestream.OutOfBoundsError
	if errors.As(err, &boundsErr) {
		panic(p.errorAt(boundsErr.Offset, "unexpected EOF while reading %s", what))
	}
	panic(p.errorf("reading %s: %v", what, err))
}

func (p *Parser) seek(pos int, what string) {
	p.check(p.s.Seek(pos), what)
}

func (p *Parser) skip(l int, what string) {
	p.check(p.s.Skip(l), what)
}

func (p *Parser) read(l int, what string) []byte {
	b, err := p.s.ReadBytes(l)
	p.check(err, what)
	return b
}

func (p *Parser) readOptionalString(l int, what string) string {
	if !p.config.NeedStrings {
		p.skip(l, what)
		return ""
	}
	return p.readString(l, what)
}

func (p *Parser) readString(l int, what string) string {
	s, err := p.s.ReadCString(l)
	p.check(err, what)
	return s
}

func (p *Parser) readDword(what string) uint32 {
	v, err := p.s.ReadUint32()
	p.check(err, what)
	return v
}

func (p *Parser) readWord(what string) uint16 {
	v, err := p.s.ReadUint16()
	p.check(err, what)
	return v
}

func (p *Parser) readByte(what string) uint8 {
	v, err := p.s.ReadUint8()
	p.check(err, what)
	return v
}

// readSize reads a dword that declares the size of a following block
// and makes sure that block fits into the remaining data.
func (p *Parser) readSize(what string) int {
	offset := p.s.Pos()
	v := p.readDword(what)
	if int64(v) > int64(p.s.Len()) {
		panic(p.errorAt(offset, "%s is too big: %d", what, v))
	}
	return int(v)
}

func (p *Parser) parse() (err error) {
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

	p.parseModule()

	return err // See the deferred call above
}

func (p *Parser) parseModule() {
	p.startStage("header")
	p.parseHeader()

	p.startStage("pattern")
	for i := 0; i < p.module.NumPatterns; i++ {
		p.stageIndex = i
		pat := p.parsePattern()
		p.module.Patterns = append(p.module.Patterns, pat)
	}

	p.startStage("instrument")
	for i := 0; i < p.module.NumInstruments; i++ {
		p.stageIndex = i
		inst := p.parseInstrument()
		p.module.Instruments = append(p.module.Instruments, inst)
	}
}

func (p *Parser) parseHeader() {
	idText := p.readString(17, "id text")
	if !strings.EqualFold(idText, "extended module: ") {
		panic(p.errorAt(0, "unexpected ID text: %q", idText))
	}

	p.module.Name = strings.TrimSpace(p.readString(20, "module name"))

	if b := p.readByte("magic byte"); b != 0x1a {
		panic(p.errorf("expected 0x1a, found 0x%0x", b))
	}

	p.module.TrackerName = strings.TrimSpace(p.readString(20, "tracker name"))

	version := p.readWord("version")
	p.module.Version[0] = uint8(version >> 8)
	p.module.Version[1] = uint8(version & 0xff)
	if version < 0x0104 {
		panic(p.errorf("unsupported format version %d.%02d", p.module.Version[0], p.module.Version[1]))
	}

	headerSize := p.readSize("header size")
	end := headerSizeOffset + headerSize

	p.module.SongLength = int(p.readWord("song length"))
	if p.module.SongLength <= 0 || p.module.SongLength > 256 {
		panic(p.errorf("invalid song length value: %d", p.module.SongLength))
	}

	p.module.RestartPosition = int(p.readWord("restart position"))
	if p.module.RestartPosition >= p.module.SongLength {
		p.module.RestartPosition = 0
	}

	p.module.NumChannels = int(p.readWord("number of channels"))
	if p.module.NumChannels <= 0 || p.module.NumChannels > maxChannels {
		panic(p.errorf("invalid number of channels: %d", p.module.NumChannels))
	}
	p.module.NumPatterns = int(p.readWord("number of patterns"))
	if p.module.NumPatterns > maxPatterns {
		panic(p.errorf("invalid number of patterns: %d", p.module.NumPatterns))
	}
	p.module.NumInstruments = int(p.readWord("number of instruments"))
	if p.module.NumInstruments > maxInstruments {
		panic(p.errorf("invalid number of instruments: %d", p.module.NumInstruments))
	}

	p.module.Flags = p.readWord("flags")
	p.module.DefaultTempo = int(p.readWord("default tempo"))
	p.module.DefaultBPM = int(p.readWord("default bpm"))

	p.module.PatternOrder = p.read(p.module.SongLength, "pattern order table")

	p.seek(end, "header padding")
}

func (p *Parser) parsePattern() Pattern {
	var pat Pattern
	start := p.s.Pos()
	patternHeaderLength := p.readSize("pattern header length")
	if patternHeaderLength < 9 {
		panic(p.errorf("invalid pattern header length: %d", patternHeaderLength))
	}
	p.skip(1, "packing type")
	numRows := int(p.readWord("number of rows"))
	if numRows <= 0 || numRows > 256 {
		panic(p.errorf("invalid number of rows: %d", numRows))
	}

	packedPatternDataSize := int(p.readWord("packed pattern data size"))

	// Skip is usually 0, but the stated header size is respected.
	p.seek(start+patternHeaderLength, "pattern header")

	if p.s.Remaining() < packedPatternDataSize {
		panic(p.errorf("incomplete packed pattern data: need %d bytes, have %d", packedPatternDataSize, p.s.Remaining()))
	}
	end := p.s.Pos() + packedPatternDataSize

	pat.Rows = p.patternRowPool.MakeSlice(numRows)
	for i := range pat.Rows {
		notes := p.notePool.MakeSlice(p.module.NumChannels)
		for j := range notes {
			notes[j] = PatternNote{}
		}
		pat.Rows[i].Notes = notes
	}

	if packedPatternDataSize == 0 {
		// Every row is empty.
		return pat
	}

	for i := range pat.Rows {
		row := pat.Rows[i].Notes
		for j := range row {
			row[j] = p.parseNote()
		}
	}

	if p.s.Pos() < end {
		panic(p.errorf("found %d redundant bytes in the pattern data", end-p.s.Pos()))
	}
	if p.s.Pos() > end {
		panic(p.errorf("consumed %d extra bytes of the pattern data", p.s.Pos()-end))
	}

	return pat
}

func (p *Parser) parseNote() PatternNote {
	var note PatternNote
	b := p.readByte("first note byte")
	readNote := true
	readInstrument := true
	readVolume := true
	readEffectType := true
	readEffectParameter := true
	if b&0b10000000 != 0 {
		// When MSB is set, an alternative (compact) scheme is used for this note.
		// Some bytes may be missing (they default to 0).
		readNote = b&(1<<0) != 0
		readInstrument = b&(1<<1) != 0
		readVolume = b&(1<<2) != 0
		readEffectType = b&(1<<3) != 0
		readEffectParameter = b&(1<<4) != 0
	} else {
		// The first byte was a note.
		readNote = false
		note.Note = b
	}
	if readNote {
		note.Note = p.readByte("pattern note")
	}
	if readInstrument {
		note.Instrument = p.readByte("pattern instrument")
	}
	if readVolume {
		note.Volume = p.readByte("pattern volume")
	}
	if readEffectType {
		note.EffectType = p.readByte("effect type")
	}
	if readEffectParameter {
		note.EffectParameter = p.readByte("effect type parameter")
	}
	return note
}

func (p *Parser) parseInstrument() Instrument {
	var inst Instrument
	start := p.s.Pos()
	instrumentHeaderSize := p.readSize("instrument header size")
	end := start + instrumentHeaderSize

	inst.Name = p.readOptionalString(22, "instrument name")

	p.skip(1, "instrument type")

	numSamples := int(p.readWord("number of samples"))
	if numSamples == 0 {
		if p.s.Pos() > end {
			panic(p.errorf("consumed %d extra bytes", p.s.Pos()-end))
		}
		p.seek(end, "instrument header")
		return inst
	}

	sampleHeaderSize := p.readSize("instrument sample header size")
	if sampleHeaderSize < sampleHeaderMinSize {
		// FastTracker II ignores this field, some writers leave it zeroed.
		sampleHeaderSize = sampleHeaderMinSize
	}
	inst.KeymapAssignments = p.read(96, "instrument samples keymap assignments")

	var points [2 * maxEnvPoints]EnvelopePoint
	for i := range points {
		x := p.readWord("envelope point x")
		y := p.readWord("envelope point y")
		points[i] = EnvelopePoint{X: x, Y: y}
	}

	numVolumePoints := int(p.readByte("number of volume points"))
	numPanningPoints := int(p.readByte("number of panning points"))
	inst.EnvelopeVolume = envelopePoints(points[:maxEnvPoints], numVolumePoints)
	inst.EnvelopePanning = envelopePoints(points[maxEnvPoints:], numPanningPoints)

	inst.VolumeSustainPoint = p.readByte("volume sustain point")
	inst.VolumeLoopStartPoint = p.readByte("volume loop start point")
	inst.VolumeLoopEndPoint = p.readByte("volume loop end point")
	inst.PanningSustainPoint = p.readByte("panning sustain point")
	inst.PanningLoopStartPoint = p.readByte("panning loop start point")
	inst.PanningLoopEndPoint = p.readByte("panning loop end point")

	inst.VolumeFlags = EnvelopeFlags(p.readByte("volume type"))
	inst.PanningFlags = EnvelopeFlags(p.readByte("panning type"))

	inst.VibratoType = p.readByte("vibrato type")
	inst.VibratoSweep = p.readByte("vibrato sweep")
	inst.VibratoDepth = p.readByte("vibrato depth")
	inst.VibratoRate = p.readByte("vibrato rate")

	inst.VolumeFadeout = int(p.readWord("volume fadeout"))

	// Some trackers write a header size that ends right after the fadeout;
	// the reserved tail is optional.
	if p.s.Pos() > end {
		panic(p.errorf("consumed %d extra bytes", p.s.Pos()-end))
	}
	p.seek(end, "instrument header")

	inst.Samples = make([]InstrumentSample, numSamples)
	p.startSubStage("sample")
	for i := range inst.Samples {
		p.subStageIndex = i
		sampleStart := p.s.Pos()
		p.parseInstrumentSampleHeader(&inst.Samples[i])
		p.seek(sampleStart+sampleHeaderSize, "sample header")
	}

	p.startSubStage("sampledata")
	for i := range inst.Samples {
		p.subStageIndex = i
		sample := &inst.Samples[i]
		n := sample.Length
		if sample.Format == SampleFormatADPCM {
			n = 16 + (sample.Length+1)/2
		}
		if sample.Length == 0 {
			continue
		}
		sample.Data = p.read(n, "sample data")
	}

	return inst
}

func envelopePoints(points []EnvelopePoint, n int) []EnvelopePoint {
	if n > maxEnvPoints {
		n = maxEnvPoints
	}
	if n == 0 {
		return nil
	}
	allocated := make([]EnvelopePoint, n)
	copy(allocated, points)
	return allocated
}

func (p *Parser) parseInstrumentSampleHeader(sample *InstrumentSample) {
	sample.Length = p.readSize("sample length")
	sample.LoopStart = int(p.readDword("sample loop start"))
	sample.LoopLength = int(p.readDword("sample loop length"))
	sample.Volume = int(p.readByte("sample volume"))
	sample.Finetune = int(int8(p.readByte("sample finetune")))
	sample.TypeFlags = p.readByte("sample type")
	sample.Panning = p.readByte("sample panning")
	sample.RelativeNote = int(int8(p.readByte("sample relative note number")))

	format := p.readByte("sample encoding")
	switch format {
	case 0:
		sample.Format = SampleFormatDeltaPacked
	case 0xAD:
		if sample.Is16bits() {
			panic(p.errorf("16-bit ADPCM samples are not supported"))
		}
		sample.Format = SampleFormatADPCM
	default:
		panic(p.errorf("unknown sample encoding scheme (%#02x)", format))
	}

	sample.Name = p.readOptionalString(22, "sample name")

	if sample.LoopType() != SampleLoopNone && sample.LoopLength != 0 {
		if sample.LoopStart+sample.LoopLength > sample.Length {
			panic(p.errorf("loop window %d+%d exceeds sample length %d",
				sample.LoopStart, sample.LoopLength, sample.Length))
		}
	}
}
