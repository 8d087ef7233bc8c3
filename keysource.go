package kcount

// KeySource is an iterator-like source of 64-bit keys, standing in for
// whatever upstream extraction produces them (e.g. k-mers pulled from
// FASTQ records). Reading the underlying file format is out of scope
// here; only the key stream itself is.
type KeySource interface {
	// Next returns the next key, or ok == false once the source is
	// exhausted.
	Next() (key uint64, ok bool)
}

// SequentialKeySource emits Start, Start+1, ..., Start+Count-1.
type SequentialKeySource struct {
	Start uint64
	Count uint64

	next uint64
	done bool
}

// NewSequentialKeySource builds a SequentialKeySource over
// [start, start+count).
func NewSequentialKeySource(start, count uint64) *SequentialKeySource {
	return &SequentialKeySource{Start: start, Count: count, next: start}
}

func (s *SequentialKeySource) Next() (uint64, bool) {
	if s.done || s.next >= s.Start+s.Count {
		return 0, false
	}
	k := s.next
	s.next++
	return k, true
}

// RepeatKeySource emits one fixed key Count times — useful for driving
// a single hot key through many producers to exercise count conservation
// under contention.
type RepeatKeySource struct {
	Key   uint64
	Count uint64

	emitted uint64
}

// NewRepeatKeySource builds a RepeatKeySource emitting key, count times.
func NewRepeatKeySource(key uint64, count uint64) *RepeatKeySource {
	return &RepeatKeySource{Key: key, Count: count}
}

func (s *RepeatKeySource) Next() (uint64, bool) {
	if s.emitted >= s.Count {
		return 0, false
	}
	s.emitted++
	return s.Key, true
}
