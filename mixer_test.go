package flod

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/quasilyte/flod/internal/testmod"
)

func TestMixerRamp(t *testing.T) {
	m := testmod.NewMOD()
	m.Samples = []testmod.MODSample{
		{Name: "flat", Data: testmod.ConstantSample(1024, 64), Volume: 64, LoopLength: 1024},
	}
	m.SetNote(0, 0, 0, testmod.MODNote{Period: 428, Sample: 1})
	song, err := Load(m.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	p := newTestPlayer(t, song, false)
	buf, n := p.render(framesPerTick125)
	if n != framesPerTick125 {
		t.Fatalf("rendered %d frames", n)
	}
	for i := 0; i < n; i++ {
		want := int16(16384)
		if i < rampFrames {
			want = int16(256 * i)
		}
		left := buf[i*2]
		right := buf[i*2+1]
		if left != want || right != 0 {
			t.Fatalf("frame %d: got (%d, %d), want (%d, 0)", i, left, right, want)
		}
	}

	// A row is 6 ticks at the default speed.
	p.render(5 * framesPerTick125)
	if got := p.mixer.FramesRendered(); got != 5292 {
		t.Fatalf("rendered %d frames after a row", got)
	}
	if c := p.seq.Cursor(); c.Row != 1 || c.Tick != 0 {
		t.Fatalf("cursor after a row: %+v", c)
	}
}

func TestMixerVolume(t *testing.T) {
	song := testSong(FormatProTracker, 1, 4, 1)
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})

	p := newTestPlayer(t, song, false)
	p.mixer.SetVolume(0.5)
	if v := p.mixer.Volume(); v != 0.5 {
		t.Fatalf("volume is %f", v)
	}
	buf, _ := p.render(200)
	if got := buf[100*2]; got != 8192 {
		t.Fatalf("half volume frame: %d", got)
	}

	p.mixer.SetVolume(5)
	if v := p.mixer.Volume(); v != 1 {
		t.Fatalf("volume is not clamped: %f", v)
	}
}

func TestMixerMono(t *testing.T) {
	song := testSong(FormatProTracker, 2, 4, 1)
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})
	setCell(song, 0, 0, 1, Cell{Note: testNote, Instrument: 1, Effect: 0xC, Param: 0x20})

	seq := NewSequencer()
	mixer := NewMixer(seq, MixerConfig{Mono: true})
	mixer.SetVolume(1)
	if err := seq.Play(song); err != nil {
		t.Fatal(err)
	}
	if mixer.NumChannels() != 1 || mixer.SampleRate() != 44100 {
		t.Fatalf("bad mixer format: %d channels at %d", mixer.NumChannels(), mixer.SampleRate())
	}
	buf := mixer.Render(200)
	if len(buf) != 200 {
		t.Fatalf("mono buffer has %d samples", len(buf))
	}
	if got := buf[100]; got != 16384+8192 {
		t.Fatalf("mono frame is %d", got)
	}
}

func TestMixerSaturation(t *testing.T) {
	song := testSong(FormatMultichannel, 4, 4, 1)
	for ch := 0; ch < 4; ch++ {
		setCell(song, 0, 0, ch, Cell{Note: testNote, Instrument: 1})
		song.DefaultPanning[ch] = 0
	}
	p := newTestPlayer(t, song, false)
	buf, _ := p.render(200)
	if got := buf[100*2]; got != 32767 {
		t.Fatalf("4 loud channels should saturate, got %d", got)
	}
}

func TestMixerPaused(t *testing.T) {
	song := testSong(FormatProTracker, 1, 4, 1)
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})
	p := newTestPlayer(t, song, false)
	p.render(100)

	p.seq.Pause()
	buf, n := p.render(100)
	if n != 0 {
		t.Fatalf("paused mixer rendered %d frames", n)
	}
	for _, v := range buf {
		if v != 0 {
			t.Fatal("paused mixer output is not silent")
		}
	}

	p.seq.Resume()
	if _, n := p.render(100); n != 100 {
		t.Fatalf("resumed mixer rendered %d frames", n)
	}
	if got := p.mixer.FramesRendered(); got != 200 {
		t.Fatalf("frames rendered: %d", got)
	}
}

func TestChannelFaultIsolation(t *testing.T) {
	song := testSong(FormatProTracker, 2, 4, 1)
	song.DefaultPanning = []int{0, 255}
	broken := song.Instruments[0]
	broken.Samples = []Sample{broken.Samples[0]}
	broken.Samples[0].LoopStart = 1000
	broken.Samples[0].LoopLength = 100
	song.Instruments = append(song.Instruments, broken)
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 2})
	setCell(song, 0, 0, 1, Cell{Note: testNote, Instrument: 1})

	p := newTestPlayer(t, song, false)
	buf, n := p.render(framesPerTick125)
	if n != framesPerTick125 {
		t.Fatalf("rendered %d frames", n)
	}
	for i := 0; i < n; i++ {
		if buf[i*2] != 0 {
			t.Fatalf("frame %d: the broken channel is audible", i)
		}
	}
	if buf[100*2+1] != 16384 {
		t.Fatalf("the healthy channel is silent: %d", buf[100*2+1])
	}

	states := p.seq.ChannelStates()
	if states[0].Active || !states[1].Active {
		t.Fatalf("bad channel states: %+v", states)
	}
}

func TestSampleEnd(t *testing.T) {
	song := testSong(FormatProTracker, 1, 4, 1)
	smp := &song.Instruments[0].Samples[0]
	smp.Loop = LoopNone
	smp.Data = smp.Data[:100]
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})

	p := newTestPlayer(t, song, false)
	// The sample plays at ~8287 Hz, so 100 frames last ~532 output frames.
	buf, _ := p.render(framesPerTick125)
	if buf[400*2] == 0 {
		t.Fatal("the sample ended too early")
	}
	if buf[600*2] != 0 {
		t.Fatal("the sample didn't stop")
	}
	if p.seq.ChannelStates()[0].Active {
		t.Fatal("the channel is still active")
	}
}

func TestSampleLoops(t *testing.T) {
	data := make([]int16, 8)
	for i := range data {
		data[i] = int16(i)
	}

	tests := []struct {
		name string
		loop LoopType
		want []int
	}{
		{"Forward", LoopForward, []int{0, 1, 2, 3, 4, 5, 2, 3, 4, 5, 2, 3}},
		{"PingPong", LoopPingPong, []int{0, 1, 2, 3, 4, 5, 5, 4, 3, 2, 2, 3}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ch := &channel{
				active: true,
				sample: &Sample{Data: data, Loop: test.loop, LoopStart: 2, LoopLength: 4},
			}
			for i, want := range test.want {
				if got := int(ch.pos >> 32); got != want {
					t.Fatalf("step %d: position %d, want %d", i, got, want)
				}
				if !advance(ch, 1<<32) {
					t.Fatalf("step %d: looped sample ended", i)
				}
			}
		})
	}
}

func TestInterpolation(t *testing.T) {
	smp := &Sample{Data: []int16{0, 1000, 2000, -2000}, Loop: LoopForward, LoopStart: 0, LoopLength: 4}
	tests := []struct {
		idx      int
		frac     int64
		backward bool
		want     int32
	}{
		{0, 0, false, 0},
		{0, 1 << 31, false, 500},
		{1, 1 << 30, false, 1250},
		{3, 1 << 31, false, -1000},
		{2, 1 << 31, true, 1500},
	}
	for _, test := range tests {
		got := interpolate(smp, test.idx, test.frac, test.backward)
		if got != test.want {
			t.Errorf("interpolate(%d, %x, %v): got %d, want %d", test.idx, test.frac, test.backward, got, test.want)
		}
	}
}

func renderHash(t *testing.T, song *Song, frames int, interpolation bool) [sha256.Size]byte {
	t.Helper()
	seq := NewSequencer()
	mixer := NewMixer(seq, MixerConfig{LinearInterpolation: interpolation})
	if err := seq.Play(song); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, mixer.Render(frames)); err != nil {
		t.Fatal(err)
	}
	return sha256.Sum256(buf.Bytes())
}

func TestRenderDeterminism(t *testing.T) {
	song := testSong(FormatFastTracker2, 2, 8, 1)
	saw := &song.Instruments[0].Samples[0]
	for i := range saw.Data {
		saw.Data[i] = int16(i*32 - 16384)
	}
	// Random vibrato and tremolo waveforms.
	setCell(song, 0, 0, 0, Cell{Note: 49, Instrument: 1, Effect: 0xE, Param: 0x43})
	setCell(song, 0, 0, 1, Cell{Note: 61, Instrument: 1, Effect: 0xE, Param: 0x73})
	for row := 1; row < 8; row++ {
		setCell(song, 0, row, 0, Cell{Effect: 0x4, Param: 0x88})
		setCell(song, 0, row, 1, Cell{Effect: 0x7, Param: 0x8F})
	}

	const frames = 44100
	for _, lerp := range []bool{false, true} {
		a := renderHash(t, song, frames, lerp)
		b := renderHash(t, song, frames, lerp)
		if a != b {
			t.Fatalf("lerp=%v: two renders differ", lerp)
		}
	}
	if renderHash(t, song, frames, false) == renderHash(t, song, frames, true) {
		t.Fatal("interpolation made no difference")
	}
}
