package flod

import (
	"io"
	"testing"
)

func TestSynthesizer(t *testing.T) {
	synth := NewSynthesizer(SynthesizerConfig{NumChannels: 2})
	if err := synth.PlayNote(0.1, Cell{Note: testNote, Instrument: 1}); err == nil {
		t.Fatal("played a note without instruments")
	}
	if err := synth.LoadInstruments(nil); err == nil {
		t.Fatal("loaded a nil song")
	}

	song := testSong(FormatFastTracker2, 4, 64, 1)
	if err := synth.LoadInstruments(song); err != nil {
		t.Fatal(err)
	}

	// 0.1s is 5 ticks at 125 BPM plus the note tick.
	err := synth.PlayNote(0.1,
		Cell{Note: testNote, Instrument: 1},
		Cell{Note: testNote + 7, Instrument: 1},
		Cell{Note: testNote + 12, Instrument: 1})
	if err != nil {
		t.Fatal(err)
	}
	states := synth.stream.Sequencer().ChannelStates()
	if len(states) != 2 {
		t.Fatalf("synthesizer uses %d channels", len(states))
	}
	if n := readToEnd(t, synth); n != 6*882*4 {
		t.Fatalf("the note lasted %d bytes", n)
	}

	synth.Rewind()
	if pos, err := synth.Seek(0, io.SeekCurrent); err != nil || pos != 0 {
		t.Fatalf("position after a rewind: %d, %v", pos, err)
	}
	if n := readToEnd(t, synth); n != 6*882*4 {
		t.Fatalf("the replayed note lasted %d bytes", n)
	}

	if err := synth.PlayNote(0, Cell{Note: testNote, Instrument: 1}); err != nil {
		t.Fatal(err)
	}
	if speed := synth.stream.Sequencer().Speed(); speed != 240 {
		t.Fatalf("endless note speed is %d", speed)
	}
	if len(song.Patterns) != 1 || song.NumChannels != 4 {
		t.Fatal("the source song was modified")
	}
}
