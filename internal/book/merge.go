package book

// MergeStats counts how the keys of a merge were resolved.
type MergeStats struct {
	Same  int // keys present in both books
	OnlyA int
	OnlyB int
}

// Merge combines two resident books into a new store. For a key present in
// both, the set whose best record was searched deeper wins; at equal depth
// the larger set wins, and B wins a full tie. The result shares sets with
// its inputs, so a and b should not be modified afterwards.
func Merge(a, b *Store) (*Store, MergeStats) {
	out := NewStore(WithLogger(a.log), WithIgnorePly(a.IgnorePly()))
	var stats MergeStats

	a.ForEach(func(key string, setA *RecordSet) {
		setB, ok := b.FindKey(key)
		if !ok {
			out.Append(key, setA)
			stats.OnlyA++
			return
		}
		out.Append(key, pickSet(setA, setB))
		stats.Same++
	})
	b.ForEach(func(key string, setB *RecordSet) {
		if _, ok := out.FindKey(key); ok {
			return
		}
		out.Append(key, setB)
		stats.OnlyB++
	})

	a.log.Info().
		Int("same", stats.Same).
		Int("only_a", stats.OnlyA).
		Int("only_b", stats.OnlyB).
		Msg("books merged")
	return out, stats
}

func pickSet(a, b *RecordSet) *RecordSet {
	bestA, okA := a.Best()
	bestB, okB := b.Best()
	switch {
	case !okA:
		return b
	case !okB:
		return a
	case bestA.Depth > bestB.Depth:
		return a
	case bestA.Depth < bestB.Depth:
		return b
	case a.Len() > b.Len():
		return a
	default:
		return b
	}
}
