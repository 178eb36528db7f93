package flod

import (
	"strings"

	"github.com/quasilyte/flod/modfile"
)

// Format identifies the tracker dialect that produced a module.
type Format int

const (
	FormatUnknown Format = iota

	// FastTracker II family.
	// They share the .xm layout and differ in small details.
	FormatFastTracker2
	FormatSkaleTracker
	FormatMadTracker2
	FormatMilkyTracker
	FormatDigiBoosterPro
	FormatOpenMPT

	// Amiga MOD family.
	FormatProTracker
	FormatStarTrekker
	FormatMultichannel
	FormatSoundTracker
)

var formatNames = [...]string{
	FormatUnknown:        "Unknown Format",
	FormatFastTracker2:   "FastTracker II",
	FormatSkaleTracker:   "Sk@leTracker",
	FormatMadTracker2:    "MadTracker 2.0",
	FormatMilkyTracker:   "MilkyTracker",
	FormatDigiBoosterPro: "DigiBooster Pro 2.18",
	FormatOpenMPT:        "OpenMPT",
	FormatProTracker:     "ProTracker",
	FormatStarTrekker:    "StarTrekker",
	FormatMultichannel:   "Multichannel MOD",
	FormatSoundTracker:   "Ultimate SoundTracker",
}

// String returns the tracker display name.
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}
	return formatNames[f]
}

// IsXM reports whether the format uses the FastTracker II file layout.
func (f Format) IsXM() bool {
	return f >= FormatFastTracker2 && f <= FormatOpenMPT
}

// IsMOD reports whether the format uses the Amiga MOD file layout.
func (f Format) IsMOD() bool {
	return f >= FormatProTracker && f <= FormatSoundTracker
}

type signature struct {
	name   string
	format Format
	match  func(data []byte) bool
}

const (
	xmMinLength        = 336
	xmTrackerIDOffset  = 38
	modMinLength       = 2105
	soundTrackerLength = 1625
)

// signatures is scanned in order, the first match wins.
// Specific magic strings come before the looser checks:
// the SoundTracker heuristic would accept almost any 31-sample
// module, so it has to stay last.
var signatures = []signature{
	{"FastTracker v2.00", FormatFastTracker2, xmTracker(func(id string) bool {
		return id == "FastTracker v2.00   " || id == "FastTracker v 2.00  "
	})},
	{"Sk@le Tracker", FormatSkaleTracker, xmTracker(func(id string) bool {
		return strings.HasPrefix(id, "Sk@le Tracker")
	})},
	{"MadTracker 2.0", FormatMadTracker2, xmTracker(func(id string) bool {
		return strings.HasPrefix(id, "MadTracker 2.0")
	})},
	{"MilkyTracker", FormatMilkyTracker, xmTracker(func(id string) bool {
		return id == "MilkyTracker        "
	})},
	{"DigiBooster Pro 2.18", FormatDigiBoosterPro, xmTracker(func(id string) bool {
		return id == "DigiBooster Pro 2.18"
	})},
	{"OpenMPT", FormatOpenMPT, xmTracker(func(id string) bool {
		return strings.Contains(id, "OpenMPT")
	})},
	{"Extended Module", FormatFastTracker2, func(data []byte) bool {
		return len(data) > xmMinLength && string(data[:17]) == "Extended Module: "
	}},
	{"M.K.", FormatProTracker, modSignature(func(id string) bool {
		return id == "M.K." || id == "M!K!"
	})},
	{"FLT4", FormatStarTrekker, modSignature(func(id string) bool {
		return id == "FLT4"
	})},
	{"xCHN", FormatMultichannel, modSignature(func(id string) bool {
		return modfile.ChannelsFromSignature(id) != 0
	})},
	{"SoundTracker", FormatSoundTracker, isSoundTracker},
}

// Sniff returns the format of a module file.
// It never fails: unknown data is reported as FormatUnknown.
func Sniff(data []byte) Format {
	for _, sig := range signatures {
		if sig.match(data) {
			return sig.format
		}
	}
	return FormatUnknown
}

func xmTracker(pred func(id string) bool) func([]byte) bool {
	return func(data []byte) bool {
		if len(data) <= xmMinLength {
			return false
		}
		return pred(string(data[xmTrackerIDOffset : xmTrackerIDOffset+20]))
	}
}

func modSignature(pred func(id string) bool) func([]byte) bool {
	return func(data []byte) bool {
		if len(data) <= modMinLength {
			return false
		}
		return pred(string(data[modfile.SignatureOffset : modfile.SignatureOffset+4]))
	}
}

// isSoundTracker validates the 15-sample layout, which has no magic id.
func isSoundTracker(data []byte) bool {
	if len(data) <= soundTrackerLength {
		return false
	}
	if !isPrintable(data[:20]) {
		return false
	}

	const (
		headerSize = 30
		numSamples = 15
		ordersAt   = 20 + numSamples*headerSize
	)
	for i := 0; i < numSamples; i++ {
		h := data[20+i*headerSize : 20+(i+1)*headerSize]
		if !isPrintable(h[:22]) {
			return false
		}
		if h[25] > 64 {
			return false
		}
	}

	songLength := int(data[ordersAt])
	if songLength == 0 || songLength > modfile.MaxOrders {
		return false
	}
	for _, o := range data[ordersAt+2 : ordersAt+2+modfile.MaxOrders] {
		if o >= 64 {
			return false
		}
	}
	return true
}

// isPrintable accepts a NUL-padded text field.
func isPrintable(field []byte) bool {
	for _, b := range field {
		if b == 0 {
			continue
		}
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
