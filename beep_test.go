package flod

import (
	"testing"

	"github.com/gopxl/beep/v2"
)

func TestBeepStreamer(t *testing.T) {
	seq := NewSequencer()
	seq.SetPlayOnce(true)
	mixer := NewMixer(seq, MixerConfig{})
	mixer.SetVolume(1)
	if err := seq.Play(shortSong()); err != nil {
		t.Fatal(err)
	}

	var s beep.Streamer = NewBeepStreamer(mixer)
	samples := make([][2]float64, 1000)
	n, ok := s.Stream(samples)
	if n != len(samples) || !ok {
		t.Fatalf("stream: %d, %v", n, ok)
	}
	if samples[500] != [2]float64{0.5, 0} {
		t.Fatalf("bad frame: %v", samples[500])
	}

	seq.Pause()
	n, ok = s.Stream(samples)
	if n != len(samples) || !ok {
		t.Fatalf("paused stream: %d, %v", n, ok)
	}
	for i, v := range samples {
		if v != [2]float64{} {
			t.Fatalf("paused frame %d is %v", i, v)
		}
	}
	seq.Resume()

	total := 1000
	for {
		n, ok := s.Stream(samples)
		total += n
		if !ok {
			break
		}
	}
	if total != 3528 {
		t.Fatalf("streamed %d frames", total)
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestBeepStreamerMono(t *testing.T) {
	seq := NewSequencer()
	mixer := NewMixer(seq, MixerConfig{Mono: true, SampleRate: 48000})
	mixer.SetVolume(1)
	if err := seq.Play(shortSong()); err != nil {
		t.Fatal(err)
	}

	streamer := NewBeepStreamer(mixer)
	format := streamer.Format()
	if format.SampleRate != 48000 || format.NumChannels != 2 || format.Precision != 2 {
		t.Fatalf("bad format: %+v", format)
	}
	samples := make([][2]float64, 200)
	if n, ok := streamer.Stream(samples); n != 200 || !ok {
		t.Fatalf("stream: %d, %v", n, ok)
	}
	if samples[100] != [2]float64{0.5, 0.5} {
		t.Fatalf("mono frame is not duplicated: %v", samples[100])
	}
}
