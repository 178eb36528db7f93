package flod

import (
	"bytes"
	"testing"

	"github.com/quasilyte/flod/internal/testmod"
)

func xmWithTracker(id string) []byte {
	x := testmod.NewXM()
	x.Tracker = id
	return x.Bytes()
}

func modWithSignature(sig string, channels int) []byte {
	m := testmod.NewMOD()
	m.Signature = sig
	m.Channels = channels
	m.Patterns = nil
	m.AddPattern()
	return m.Bytes()
}

func TestSniff(t *testing.T) {
	soundTracker := testmod.NewMOD()
	soundTracker.Signature = ""
	soundTracker.Samples = []testmod.MODSample{
		{Name: "bass", Data: testmod.ConstantSample(128, 10), Volume: 64},
	}

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"FT2", xmWithTracker("FastTracker v2.00   "), FormatFastTracker2},
		{"FT2Spaced", xmWithTracker("FastTracker v 2.00  "), FormatFastTracker2},
		{"Skale", xmWithTracker("Sk@le Tracker"), FormatSkaleTracker},
		{"MadTracker", xmWithTracker("MadTracker 2.0"), FormatMadTracker2},
		{"Milky", xmWithTracker("MilkyTracker        "), FormatMilkyTracker},
		{"DigiBooster", xmWithTracker("DigiBooster Pro 2.18"), FormatDigiBoosterPro},
		{"OpenMPT", xmWithTracker("OpenMPT 1.28"), FormatOpenMPT},
		{"OtherXM", xmWithTracker("Some Tracker"), FormatFastTracker2},

		{"MK", modWithSignature("M.K.", 4), FormatProTracker},
		{"MKBang", modWithSignature("M!K!", 4), FormatProTracker},
		{"FLT4", modWithSignature("FLT4", 4), FormatStarTrekker},
		{"8CHN", modWithSignature("8CHN", 8), FormatMultichannel},
		{"16CH", modWithSignature("16CH", 16), FormatMultichannel},
		{"SoundTracker", soundTracker.Bytes(), FormatSoundTracker},

		{"Empty", nil, FormatUnknown},
		{"Short", []byte("M.K."), FormatUnknown},
		{"ShortXM", []byte("Extended Module: "), FormatUnknown},
		{"Garbage", bytes.Repeat([]byte{0xff}, 4096), FormatUnknown},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Sniff(test.data); got != test.want {
				t.Fatalf("got %s, want %s", got, test.want)
			}
		})
	}
}

func TestSniffOrder(t *testing.T) {
	// An XM file that happens to have a MOD magic at the MOD signature offset.
	data := xmWithTracker("FastTracker v2.00   ")
	data = append(data, make([]byte, 4096)...)
	copy(data[1080:], "M.K.")
	if got := Sniff(data); got != FormatFastTracker2 {
		t.Fatalf("got %s", got)
	}

	// A tiny SoundTracker-like header without sample data.
	m := testmod.NewMOD()
	m.Signature = ""
	if got := Sniff(m.Bytes()); got != FormatUnknown {
		t.Fatalf("got %s for a truncated SoundTracker module", got)
	}
}

func TestFormatFamilies(t *testing.T) {
	for f := FormatUnknown; f <= FormatSoundTracker; f++ {
		if f.IsXM() && f.IsMOD() {
			t.Errorf("%s belongs to both families", f)
		}
		if f != FormatUnknown && !f.IsXM() && !f.IsMOD() {
			t.Errorf("%s belongs to no family", f)
		}
		if f.String() == "" {
			t.Errorf("format %d has no name", int(f))
		}
	}
	if FormatUnknown.IsXM() || FormatUnknown.IsMOD() {
		t.Error("unknown format has a family")
	}
}
