// Package eco names book positions by their ECO (Encyclopedia of Chess
// Openings) classification.
package eco

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/freeeve/openbook/internal/position"
)

// Opening represents an ECO opening classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// Database holds openings indexed by position. Positions are matched
// without move counters, so transpositions find the same name.
type Database struct {
	byPosition map[string]Opening
}

// NewDatabase creates an empty ECO database.
func NewDatabase() *Database {
	return &Database{
		byPosition: make(map[string]Opening),
	}
}

// moveNumberRegex matches move numbers like "1." or "12..."
var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

// LoadDir loads all .tsv files from a directory.
func (db *Database) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .tsv files found in %s", dir)
	}

	for _, file := range files {
		if err := db.LoadFile(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile loads a single TSV file.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = db.Load(f)
	return err
}

// Load reads "eco<TAB>name<TAB>moves" lines and returns how many were
// added. Lines whose moves do not replay are skipped.
func (db *Database) Load(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	added := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip header
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		pos, err := replay(parts[2])
		if err != nil {
			continue
		}
		db.byPosition[pos.RepetitionKey()] = Opening{ECO: parts[0], Name: parts[1]}
		added++
	}
	return added, scanner.Err()
}

// replay plays movetext like "1. e4 e5 2. Nf3 Nc6" from the initial
// position.
func replay(movetext string) (*position.Position, error) {
	cleaned := moveNumberRegex.ReplaceAllString(movetext, "")
	pos := position.Start()
	for _, san := range strings.Fields(cleaned) {
		// Skip annotations
		if san[0] == '$' || san[0] == '{' {
			continue
		}
		next, err := pos.PlaySAN(san)
		if err != nil {
			return nil, err
		}
		pos = next
	}
	return pos, nil
}

// Lookup returns the opening named for pos.
func (db *Database) Lookup(pos *position.Position) (Opening, bool) {
	if db == nil {
		return Opening{}, false
	}
	o, ok := db.byPosition[pos.RepetitionKey()]
	return o, ok
}

// Count returns the number of distinct positions named.
func (db *Database) Count() int {
	return len(db.byPosition)
}
