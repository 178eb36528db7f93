package flod

import (
	"testing"
)

func TestEnvelopeValueAt(t *testing.T) {
	env := Envelope{
		Points: []EnvelopePoint{{0, 0}, {10, 64}, {20, 32}, {20, 16}},
	}
	tests := []struct {
		tick int
		want int
	}{
		{-1, 0},
		{0, 0},
		{5, 32},
		{10, 64},
		{15, 48},
		{20, 32},
		{100, 16},
	}
	for _, test := range tests {
		if got := env.ValueAt(test.tick); got != test.want {
			t.Errorf("ValueAt(%d): got %d, want %d", test.tick, got, test.want)
		}
	}

	var empty Envelope
	if v := empty.ValueAt(7); v != 64 {
		t.Errorf("empty envelope value is %d", v)
	}
}

func TestEnvelopeAdvance(t *testing.T) {
	points := []EnvelopePoint{{0, 0}, {10, 64}, {20, 32}, {30, 0}}
	tests := []struct {
		name  string
		env   Envelope
		tick  int
		keyOn bool
		want  int
	}{
		{"Step", Envelope{Points: points}, 3, true, 4},
		{"End", Envelope{Points: points}, 30, true, 30},

		{"Sustain", Envelope{Points: points, Sustain: true, SustainPoint: 1}, 10, true, 10},
		{"SustainReleased", Envelope{Points: points, Sustain: true, SustainPoint: 1}, 10, false, 11},
		{"BeforeSustain", Envelope{Points: points, Sustain: true, SustainPoint: 1}, 9, true, 10},

		{"Loop", Envelope{Points: points, Loop: true, LoopStart: 1, LoopEnd: 2}, 19, true, 10},
		{"LoopReleased", Envelope{Points: points, Loop: true, LoopStart: 1, LoopEnd: 2}, 19, false, 10},
		{"InsideLoop", Envelope{Points: points, Loop: true, LoopStart: 1, LoopEnd: 2}, 12, true, 13},
		{"BadLoop", Envelope{Points: points, Loop: true, LoopStart: 2, LoopEnd: 9}, 29, true, 30},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.env.advance(test.tick, test.keyOn); got != test.want {
				t.Fatalf("advance(%d, %v): got %d, want %d", test.tick, test.keyOn, got, test.want)
			}
		})
	}
}

func TestVolumeEnvelopeGain(t *testing.T) {
	song := testSong(FormatFastTracker2, 1, 4, 1)
	song.Instruments[0].VolumeEnvelope = Envelope{
		Enabled: true,
		Points:  []EnvelopePoint{{0, 32}, {4, 0}},
	}
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})
	p := newTestPlayer(t, song, false)
	ch := &p.seq.channels[0]

	p.runTicks(1)
	want := [2]int32{2048 * 127 / 255, 2048 * 128 / 255}
	if ch.targetGain != want {
		t.Fatalf("half envelope gain: got %v, want %v", ch.targetGain, want)
	}

	p.runTicks(4)
	if ch.targetGain != [2]int32{} {
		t.Fatalf("the envelope end is not silent: %v", ch.targetGain)
	}
	// A finished envelope doesn't end the note.
	if !ch.IsActive() {
		t.Fatal("the channel was stopped by the envelope")
	}
}

func TestPanningEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  [2]int32
	}{
		{"Center", 32, [2]int32{4096 * 127 / 255, 4096 * 128 / 255}},
		{"Right", 64, [2]int32{0, 4096}},
		{"Left", 0, [2]int32{4096 * 255 / 255, 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			song := testSong(FormatFastTracker2, 1, 4, 1)
			song.Instruments[0].PanningEnvelope = Envelope{
				Enabled: true,
				Points:  []EnvelopePoint{{0, test.value}},
			}
			setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})
			p := newTestPlayer(t, song, false)
			p.runTicks(1)

			ch := &p.seq.channels[0]
			if ch.targetGain != test.want {
				t.Fatalf("got %v, want %v", ch.targetGain, test.want)
			}
			if ch.panning != 128 {
				t.Fatalf("the envelope changed the channel panning to %d", ch.panning)
			}
		})
	}
}

func TestAutoVibrato(t *testing.T) {
	song := testSong(FormatFastTracker2, 1, 4, 1)
	inst := &song.Instruments[0]
	inst.VibratoDepth = 8
	inst.VibratoRate = 64
	setCell(song, 0, 0, 0, Cell{Note: testNote, Instrument: 1})
	p := newTestPlayer(t, song, false)
	ch := &p.seq.channels[0]

	base := linearFrequency(linearPeriod(48, 0))
	p.runTicks(1)
	if ch.freq != base {
		t.Fatalf("zero phase changed the frequency: %f", ch.freq)
	}
	p.runTicks(1)
	if ch.freq == base {
		t.Fatal("auto vibrato has no effect")
	}
	if ch.period != linearPeriod(48, 0) {
		t.Fatalf("auto vibrato changed the base period to %d", ch.period)
	}
}
