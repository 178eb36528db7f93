package flod

import (
	"unsafe"
)

// songSize approximates the song memory footprint in bytes.
func songSize(song *Song) uint {
	if song == nil {
		return 0
	}
	memoryUsage := int(unsafe.Sizeof(*song))
	memoryUsage += len(song.Orders) * int(unsafe.Sizeof(int(0)))
	for _, p := range song.Patterns {
		memoryUsage += int(unsafe.Sizeof(p))
		memoryUsage += len(p.Cells) * int(unsafe.Sizeof(Cell{}))
	}
	for _, inst := range song.Instruments {
		memoryUsage += int(unsafe.Sizeof(inst))
		memoryUsage += len(inst.VolumeEnvelope.Points) * int(unsafe.Sizeof(EnvelopePoint{}))
		memoryUsage += len(inst.PanningEnvelope.Points) * int(unsafe.Sizeof(EnvelopePoint{}))
		for _, smp := range inst.Samples {
			memoryUsage += int(unsafe.Sizeof(smp))
			memoryUsage += len(smp.Data) * 2
		}
	}
	return uint(memoryUsage)
}
