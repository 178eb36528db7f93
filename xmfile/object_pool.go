package xmfile

// objectPool hands out sub-slices of big preallocated chunks.
// Patterns contain thousands of small rows; carving them out of
// a few chunks keeps the parser allocations low when it's reused.
type objectPool[T any] struct {
	chunks    [][]T
	used      []int
	chunkSize int
	maxChunks int
}

func initObjectPool[T any](p *objectPool[T], chunkSize int) {
	p.chunkSize = chunkSize
	p.maxChunks = 6
}

// Reset makes all chunks available again.
// Slices that were returned before must not be used after that.
func (p *objectPool[T]) Reset() {
	for i := range p.used {
		p.used[i] = 0
	}
}

func (p *objectPool[T]) MakeSlice(n int) []T {
	if n > p.chunkSize {
		return make([]T, n)
	}

	for i, chunk := range p.chunks {
		if len(chunk)-p.used[i] >= n {
			return p.take(i, n)
		}
	}

	if len(p.chunks) < p.maxChunks {
		p.chunks = append(p.chunks, make([]T, p.chunkSize))
		p.used = append(p.used, 0)
		return p.take(len(p.chunks)-1, n)
	}

	// The pool is exhausted.
	return make([]T, n)
}

func (p *objectPool[T]) take(i, n int) []T {
	from := p.used[i]
	p.used[i] += n
	return p.chunks[i][from : from+n : from+n]
}
