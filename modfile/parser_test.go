package modfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/quasilyte/flod/internal/testmod"
)

func TestParse(t *testing.T) {
	m := testmod.NewMOD()
	m.Title = "tiny song"
	m.Samples = []testmod.MODSample{
		{Name: "square", Data: testmod.ConstantSample(64, 32), Volume: 48, Finetune: -2, LoopStart: 16, LoopLength: 32},
	}
	m.SetNote(0, 0, 0, testmod.MODNote{Period: 428, Sample: 1, Effect: 0xC, Param: 0x20})
	m.SetNote(0, 63, 3, testmod.MODNote{Period: 113, Sample: 17, Effect: 0xF, Param: 0x7D})

	mod, err := Parse(m.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if mod.Title != "tiny song" || mod.Signature != "M.K." || mod.NumChannels != 4 {
		t.Fatalf("bad header: %q %q %d", mod.Title, mod.Signature, mod.NumChannels)
	}
	if len(mod.Samples) != 31 || mod.NumPatterns() != 1 || mod.SongLength != 1 {
		t.Fatalf("bad layout: %d samples, %d patterns, song length %d", len(mod.Samples), mod.NumPatterns(), mod.SongLength)
	}

	s := mod.Samples[0]
	if s.Name != "square" || s.Length != 64 || s.Volume != 48 || s.Finetune != -2 {
		t.Fatalf("bad sample header: %+v", s)
	}
	if !s.Looped() || s.LoopStart != 16 || s.LoopLength != 32 {
		t.Fatalf("bad sample loop: %d+%d", s.LoopStart, s.LoopLength)
	}
	if len(s.Data) != 64 || s.Data[10] != 32 {
		t.Fatalf("bad sample data")
	}
	if mod.Samples[1].Looped() {
		t.Fatalf("empty sample is looped")
	}

	n := mod.Patterns[0].Notes[0]
	if n != (Note{Period: 428, Sample: 1, Effect: 0xC, Param: 0x20}) {
		t.Fatalf("bad first note: %+v", n)
	}
	n = mod.Patterns[0].Notes[63*4+3]
	if n != (Note{Period: 113, Sample: 17, Effect: 0xF, Param: 0x7D}) {
		t.Fatalf("bad last note: %+v", n)
	}
}

func TestParseSoundTracker(t *testing.T) {
	m := testmod.NewMOD()
	m.Signature = ""
	m.Samples = []testmod.MODSample{
		{Data: testmod.ConstantSample(100, 1), Volume: 64, LoopStart: 10, LoopLength: 40},
	}

	mod, err := Parse(m.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(mod.Samples) != 15 || mod.Signature != "" || mod.NumChannels != 4 {
		t.Fatalf("expected a 15-sample module, got %d samples (%q)", len(mod.Samples), mod.Signature)
	}
	if mod.Samples[0].LoopStart != 10 {
		t.Fatalf("loop start should be kept in bytes, got %d", mod.Samples[0].LoopStart)
	}
}

func TestParseMultichannel(t *testing.T) {
	m := testmod.NewMOD()
	m.Signature = "8CHN"
	m.Channels = 8
	m.Patterns = nil
	m.AddPattern()
	m.SetNote(0, 1, 7, testmod.MODNote{Period: 214, Sample: 2})

	mod, err := Parse(m.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if mod.NumChannels != 8 {
		t.Fatalf("expected 8 channels, got %d", mod.NumChannels)
	}
	if n := mod.Patterns[0].Notes[1*8+7]; n.Period != 214 || n.Sample != 2 {
		t.Fatalf("bad note: %+v", n)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		build  func() []byte
		substr string
	}{
		{
			name: "PatternCountPastEnd",
			build: func() []byte {
				m := testmod.NewMOD()
				// Order 5 makes the pattern count 6, only one is stored.
				m.Orders = []uint8{0, 5}
				return m.Bytes()
			},
			substr: "patterns need",
		},
		{
			name: "LoopPastEnd",
			build: func() []byte {
				m := testmod.NewMOD()
				m.Samples = []testmod.MODSample{
					{Data: testmod.ConstantSample(32, 0), LoopStart: 16, LoopLength: 32},
				}
				return m.Bytes()
			},
			substr: "loop window",
		},
		{
			name: "TruncatedSample",
			build: func() []byte {
				m := testmod.NewMOD()
				m.Samples = []testmod.MODSample{{Data: testmod.ConstantSample(32, 0)}}
				data := m.Bytes()
				return data[:len(data)-8]
			},
			substr: "sample data",
		},
		{
			name: "ZeroSongLength",
			build: func() []byte {
				m := testmod.NewMOD()
				data := m.Bytes()
				data[950] = 0
				return data
			},
			substr: "song length",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.build())
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected a *ParseError, got %v", err)
			}
			if !strings.Contains(parseErr.Message, test.substr) {
				t.Fatalf("error %q does not mention %q", parseErr.Message, test.substr)
			}
		})
	}
}

func TestChannelsFromSignature(t *testing.T) {
	tests := map[string]int{
		"M.K.": 4,
		"M!K!": 4,
		"FLT4": 4,
		"6CHN": 6,
		"16CH": 16,
		"32CH": 32,
		"33CH": 0,
		"1CHN": 0,
		"FEST": 0,
		"M.K":  0,
	}
	for id, want := range tests {
		if have := ChannelsFromSignature(id); have != want {
			t.Fatalf("%q: have %d, want %d", id, have, want)
		}
	}
}
