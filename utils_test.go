package flod

import (
	"math"
	"testing"
)

func TestFramesPerTick(t *testing.T) {
	tests := []struct {
		sampleRate int
		tempo      int
		ticks      int
		want       int
	}{
		{44100, 125, 1, 882},
		{44100, 150, 1, 735},
		{48000, 125, 1, 960},
		// 26 ticks at 130 BPM last exactly 0.5s.
		{44100, 130, 26, 22050},
		{22050, 33, 33, 55125},
	}
	for _, test := range tests {
		rem := 0
		total := 0
		for i := 0; i < test.ticks; i++ {
			total += framesPerTick(test.sampleRate, test.tempo, &rem)
		}
		if total != test.want {
			t.Errorf("%d Hz, %d BPM, %d ticks: got %d frames, want %d",
				test.sampleRate, test.tempo, test.ticks, total, test.want)
		}
		if rem != 0 {
			t.Errorf("%d Hz, %d BPM: remainder %d is not carried", test.sampleRate, test.tempo, rem)
		}
	}
}

func TestLinearPeriods(t *testing.T) {
	if p := linearPeriod(48, 0); p != 4608 {
		t.Fatalf("C-4 period is %d", p)
	}
	if f := linearFrequency(linearPeriod(48, 0)); f != 8363 {
		t.Fatalf("C-4 frequency is %f", f)
	}
	if f := linearFrequency(linearPeriod(60, 0)); math.Abs(f-8363*2) > 1e-9 {
		t.Fatalf("C-5 frequency is %f", f)
	}
	if d := linearPeriod(48, 0) - linearPeriod(48, 127); d != 63 {
		t.Fatalf("finetune moved the period by %d", d)
	}
}

func TestSaturate16(t *testing.T) {
	tests := map[int64]int16{
		0:      0,
		-1:     -1,
		40000:  math.MaxInt16,
		-40000: math.MinInt16,
		32767:  32767,
		-32768: -32768,
	}
	for v, want := range tests {
		if got := saturate16(v); got != want {
			t.Errorf("saturate16(%d): got %d, want %d", v, got, want)
		}
	}
	if clamp(70, 0, 64) != 64 || clamp(-3, 0, 64) != 0 || clamp(1.5, 0, 1) != 1 {
		t.Error("clamp is broken")
	}
}
