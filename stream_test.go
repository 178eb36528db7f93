package flod

import (
	"errors"
	"io"
	"testing"
)

// shortSong lasts 4 ticks: 3528 frames at 44100 Hz.
func shortSong() *Song {
	song := testSong(FormatProTracker, 1, 2, 1)
	song.InitialSpeed = 2
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})
	return song
}

func TestStreamPlayOnce(t *testing.T) {
	stream := NewStream()
	var events []Event
	stream.SetEventHandler(func(e Event) {
		events = append(events, e)
	})
	if err := stream.Play(shortSong(), LoadModuleConfig{}); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4096)
	total := 0
	for i := 0; ; i++ {
		n, err := stream.Read(buf)
		total += n
		if errors.Is(err, io.EOF) {
			if n != 1824 {
				t.Fatalf("the last read returned %d bytes", n)
			}
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if n != len(buf) {
			t.Fatalf("read %d: short read of %d bytes", i, n)
		}
	}
	if total != 3528*4 {
		t.Fatalf("read %d bytes in total", total)
	}
	if n, err := stream.Read(buf); n != 0 || err != io.EOF {
		t.Fatalf("read after the end: %d, %v", n, err)
	}

	if pos, err := stream.Seek(0, io.SeekCurrent); err != nil || pos != int64(total) {
		t.Fatalf("position is %d (%v)", pos, err)
	}
	if events[len(events)-1].Kind != EventSongEnd {
		t.Fatalf("the last event is %s", events[len(events)-1].Kind)
	}

	// Rewind makes the song playable again.
	if pos, err := stream.Seek(0, io.SeekStart); err != nil || pos != 0 {
		t.Fatalf("rewind: %d, %v", pos, err)
	}
	if events[len(events)-1].Kind != EventSync {
		t.Fatalf("rewind didn't emit a sync event")
	}
	if n := readToEnd(t, stream); n != 3528*4 {
		t.Fatalf("read %d bytes after a rewind", n)
	}
}

func readToEnd(t *testing.T, r io.Reader) int {
	t.Helper()
	buf := make([]byte, 4096)
	total := 0
	for {
		n, err := r.Read(buf)
		total += n
		if err == io.EOF {
			return total
		}
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestStreamSeekErrors(t *testing.T) {
	stream := NewStream()
	if _, err := stream.Seek(10, io.SeekStart); err == nil {
		t.Fatal("seeking to a non-zero offset succeeded")
	}
	if _, err := stream.Seek(0, io.SeekEnd); err == nil {
		t.Fatal("seeking from the end succeeded")
	}
	if n, err := stream.Read(make([]byte, 16)); n != 0 || err != io.EOF {
		t.Fatalf("empty stream read: %d, %v", n, err)
	}
}

func TestStreamLooping(t *testing.T) {
	stream := NewStream()
	stream.SetLooping(true)
	loops := 0
	stream.SetEventHandler(func(e Event) {
		if e.Kind == EventLoop {
			loops++
		}
	})
	if err := stream.Play(shortSong(), LoadModuleConfig{}); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4096)
	for i := 0; i < 20; i++ {
		n, err := stream.Read(buf)
		if err != nil || n != len(buf) {
			t.Fatalf("read %d: %d, %v", i, n, err)
		}
	}
	// 20*1024 frames is more than 5 passes of 3528 frames.
	if loops < 5 {
		t.Fatalf("only %d loops", loops)
	}
}

func TestStreamPause(t *testing.T) {
	stream := NewStream()
	if err := stream.Play(shortSong(), LoadModuleConfig{}); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1024)
	if _, err := stream.Read(buf); err != nil {
		t.Fatal(err)
	}

	stream.Pause()
	for i := range buf {
		buf[i] = 0xAA
	}
	n, err := stream.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("paused read: %d, %v", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d of a paused stream is %d", i, b)
		}
	}
	if pos, _ := stream.Seek(0, io.SeekCurrent); pos != 2048 {
		t.Fatalf("position is %d", pos)
	}

	stream.Resume()
	stream.Stop()
	if n, err := stream.Read(buf); n != 0 || err != io.EOF {
		t.Fatalf("stopped read: %d, %v", n, err)
	}
}

func TestStreamFormat(t *testing.T) {
	song := shortSong()
	stream := NewStream()
	stream.SetVolume(1)
	if err := stream.Play(song, LoadModuleConfig{Mono: true, SampleRate: 22050}); err != nil {
		t.Fatal(err)
	}
	if info := stream.GetInfo(); info.BytesPerTick != 441*2 || info.MemoryUsage == 0 {
		t.Fatalf("bad mono info: %+v", info)
	}

	buf := make([]byte, 501)
	n, err := stream.Read(buf)
	if err != nil || n != 500 {
		t.Fatalf("odd buffer read: %d, %v", n, err)
	}
	// Frame 200 is past the volume ramp.
	if v := int16(uint16(buf[400]) | uint16(buf[401])<<8); v != 16384 {
		t.Fatalf("mono frame value is %d", v)
	}

	if err := stream.Play(song, LoadModuleConfig{BPM: 150, Tempo: 3}); err != nil {
		t.Fatal(err)
	}
	if info := stream.GetInfo(); info.BytesPerTick != 735*4 {
		t.Fatalf("bad info: %+v", info)
	}
	if s := stream.Sequencer(); s.Speed() != 3 || s.Tempo() != 150 {
		t.Fatalf("config overrides are ignored: speed=%d tempo=%d", s.Speed(), s.Tempo())
	}
	if song.InitialTempo != 125 || song.InitialSpeed != 2 {
		t.Fatal("Play modified the song")
	}
}

func TestStreamLoadModule(t *testing.T) {
	stream := NewStream()
	if err := stream.LoadModule([]byte("not a module"), LoadModuleConfig{}); !errors.Is(err, ErrUnrecognizedFormat) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := stream.LoadModule(newTestMOD().Bytes(), LoadModuleConfig{}); err != nil {
		t.Fatal(err)
	}
	if info := stream.GetInfo(); info.BytesPerTick != 882*4 {
		t.Fatalf("bad info: %+v", info)
	}
	n, err := stream.Read(make([]byte, 4096))
	if err != nil || n != 4096 {
		t.Fatalf("read: %d, %v", n, err)
	}
}
