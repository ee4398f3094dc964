package makebook

import (
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
)

func readResident(path string, log zerolog.Logger) (*book.Store, error) {
	st := book.NewStore(book.WithLogger(log))
	if err := st.Read(path, false); err != nil {
		return nil, err
	}
	return st, nil
}

// MergeFiles merges the books at pathA and pathB into out. See book.Merge
// for how conflicting positions are resolved.
func MergeFiles(pathA, pathB, out string, log zerolog.Logger) (book.MergeStats, error) {
	a, err := readResident(pathA, log)
	if err != nil {
		return book.MergeStats{}, err
	}
	b, err := readResident(pathB, log)
	if err != nil {
		return book.MergeStats{}, err
	}
	merged, stats := book.Merge(a, b)
	if _, err := merged.Write(out); err != nil {
		return stats, err
	}
	return stats, nil
}

// SortFile rewrites the book at in to out in canonical sorted form,
// dropping entries duplicated at higher move numbers.
func SortFile(in, out string, log zerolog.Logger) (book.WriteStats, error) {
	st, err := readResident(in, log)
	if err != nil {
		return book.WriteStats{}, err
	}
	return st.Write(out)
}
