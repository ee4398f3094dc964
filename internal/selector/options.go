package selector

// Options tune how book moves are chosen. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	// OwnBook is the master switch for ProbeRoot.
	OwnBook bool
	// NarrowBook drops candidates played in less than 10% of the games.
	NarrowBook bool
	// BookMoves is the last ply at which the book is consulted.
	BookMoves int
	// IgnoreRate is the percent chance (0-100) of skipping the book.
	IgnoreRate int
	// EvalDiff is how far below the best value a candidate may score.
	EvalDiff int
	// EvalBlackLimit is the lowest acceptable value for the first player
	// (white to move) and EvalWhiteLimit for the second player.
	EvalBlackLimit int
	EvalWhiteLimit int
	// DepthLimit rejects the whole position when its best record was
	// searched shallower. 0 disables the check.
	DepthLimit int
	// ConsiderMoveCount picks in proportion to occurrence counts instead of
	// uniformly.
	ConsiderMoveCount bool
	// PVMoves is how many plies the diagnostic principal variation shows.
	PVMoves int
}

// DefaultOptions returns the standard book settings.
func DefaultOptions() Options {
	return Options{
		OwnBook:        true,
		BookMoves:      16,
		EvalDiff:       30,
		EvalBlackLimit: 0,
		EvalWhiteLimit: -140,
		DepthLimit:     16,
		PVMoves:        8,
	}
}

// narrowThreshold is the occurrence share below which NarrowBook drops a
// candidate.
const narrowThreshold = 0.1
