package flod

import (
	"math"
)

type numeric interface {
	uint8 | int | int32 | int64 | float64
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func saturate16(v int64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// linearPeriod returns the FastTracker II linear table period of a 0-based key.
// One semitone is 64 units, finetune moves it by 1/128 of a semitone.
func linearPeriod(key, finetune int) int {
	return 7680 - key*64 - finetune/2
}

func linearFrequency(period int) float64 {
	return 8363.0 * math.Pow(2, float64(4608-period)/768)
}

// framesPerTick returns the tick length for the tempo.
// A tick lasts 2.5/tempo seconds; rem carries the fraction between calls.
func framesPerTick(sampleRate, tempo int, rem *int) int {
	num := sampleRate*5 + *rem
	den := tempo * 2
	*rem = num % den
	return num / den
}

func ticksPerSecond(tempo int) float64 {
	return float64(tempo) * 2 / 5
}
