package book

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/packedbook"
	"github.com/freeeve/openbook/internal/position"
)

// Mode is the access mode of a Store.
type Mode int

const (
	ModeResident Mode = iota
	ModeLazy
	ModeDisabled
	ModeForeign
)

func (m Mode) String() string {
	switch m {
	case ModeResident:
		return "resident"
	case ModeLazy:
		return "lazy"
	case ModeDisabled:
		return "disabled"
	case ModeForeign:
		return "foreign"
	}
	return "unknown"
}

// Reserved book names and file format markers.
const (
	NoBookName      = "no_book"
	ForeignBookName = "book.bin"
	HeaderPrefix    = "sfen "
	VersionLine     = "#OPENBOOK-DB2016 1.00"
)

// scanBufferSize bounds the longest line the resident reader accepts.
const scanBufferSize = 1 << 20

// ForeignBook is a packed binary book that can be queried by position.
type ForeignBook interface {
	Entries(pos *position.Position) []packedbook.Entry
}

// ForeignOpener opens a foreign book file.
type ForeignOpener func(path string) (ForeignBook, error)

func openPacked(path string) (ForeignBook, error) {
	return packedbook.Open(path)
}

// Foreign books are shared by every store in the process.
var foreignCache = struct {
	sync.Mutex
	books map[string]ForeignBook
}{books: make(map[string]ForeignBook)}

func cachedForeign(path string, open ForeignOpener) (ForeignBook, error) {
	foreignCache.Lock()
	defer foreignCache.Unlock()
	if fb, ok := foreignCache.books[path]; ok {
		return fb, nil
	}
	fb, err := open(path)
	if err != nil {
		return nil, err
	}
	foreignCache.books[path] = fb
	return fb, nil
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithIgnorePly makes keys match regardless of their move number.
func WithIgnorePly(ignore bool) Option {
	return func(s *Store) { s.ignorePly = ignore }
}

// WithForeignOpener replaces the reader used for "book.bin" files.
func WithForeignOpener(open ForeignOpener) Option {
	return func(s *Store) { s.openForeign = open }
}

// Store maps position keys to candidate sets. It is safe for concurrent
// use; lookups in lazy mode are serialized.
type Store struct {
	mu   sync.RWMutex
	body map[string]*RecordSet
	mode Mode

	// state of the last Read
	loaded      bool
	path        string
	lazy        bool
	loadedPly   bool
	file        *os.File
	size        int64
	foreign     ForeignBook
	ignorePly   bool
	openForeign ForeignOpener

	log   zerolog.Logger
	stats Stats
}

// NewStore returns an empty resident store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		body:        make(map[string]*RecordSet),
		mode:        ModeResident,
		openForeign: openPacked,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the current access mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Path returns the file passed to the last successful Read.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// IgnorePly reports whether keys are matched without their move number.
func (s *Store) IgnorePly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ignorePly
}

// SetIgnorePly changes key normalization. It takes effect at the next Read.
func (s *Store) SetIgnorePly(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignorePly = ignore
}

// Stats returns the store counters.
func (s *Store) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Store) normalize(key string) string {
	if s.ignorePly {
		return position.TrimPly(key)
	}
	return strings.TrimSpace(key)
}

// Read loads the book at path. Reading the same path with the same lazy
// flag and ply handling again is a no-op.
//
// The file name selects the mode: "no_book" disables the book, "book.bin"
// opens a foreign book, anything else is a text book read either fully
// (resident) or on demand (lazy).
func (s *Store) Read(path string, lazy bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.path == path && s.lazy == lazy && s.loadedPly == s.ignorePly {
		return nil
	}
	s.resetLocked()

	switch filepath.Base(path) {
	case NoBookName:
		s.mode = ModeDisabled
	case ForeignBookName:
		fb, err := cachedForeign(path, s.openForeign)
		if err != nil {
			return &FileError{Op: "open", Path: path, Kind: ErrFileOpen, Err: err}
		}
		s.foreign = fb
		s.mode = ModeForeign
	default:
		var err error
		if lazy {
			err = s.openLazyLocked(path)
		} else {
			err = s.loadLocked(path)
		}
		if err != nil {
			s.resetLocked()
			return err
		}
	}

	s.loaded = true
	s.path = path
	s.lazy = lazy
	s.loadedPly = s.ignorePly
	s.log.Info().
		Str("path", path).
		Str("mode", s.mode.String()).
		Int("positions", len(s.body)).
		Msg("book loaded")
	return nil
}

func (s *Store) resetLocked() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	s.body = make(map[string]*RecordSet)
	s.mode = ModeResident
	s.loaded = false
	s.path = ""
	s.lazy = false
	s.size = 0
	s.foreign = nil
}

func (s *Store) openLazyLocked(path string) error {
	if isCompressed(path) {
		return &FileError{Op: "open", Path: path, Kind: ErrLazyCompressed}
	}
	f, err := os.Open(path)
	if err != nil {
		return &FileError{Op: "open", Path: path, Kind: ErrFileOpen, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return &FileError{Op: "stat", Path: path, Kind: ErrFileOpen, Err: err}
	}
	s.file = f
	s.size = info.Size()
	s.mode = ModeLazy
	return nil
}

func (s *Store) loadLocked(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &FileError{Op: "open", Path: path, Kind: ErrFileOpen, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return &FileError{Op: "open", Path: path, Kind: ErrFileOpen, Err: err}
		}
		defer dec.Close()
		r = dec
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), scanBufferSize)

	var key string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || isComment(line) {
			continue
		}
		if strings.HasPrefix(line, HeaderPrefix) {
			key = s.normalize(line[len(HeaderPrefix):])
			continue
		}
		if key == "" {
			continue
		}
		s.insertLocked(key, ParseRecord(line), false)
	}
	if err := sc.Err(); err != nil {
		return &FileError{Op: "read", Path: path, Kind: ErrFileRead, Err: err}
	}
	return nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Insert adds r to the set stored under key, creating the set if needed.
func (s *Store) Insert(key string, r Record, overwrite bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(s.normalize(key), r, overwrite)
}

func (s *Store) insertLocked(key string, r Record, overwrite bool) {
	set, ok := s.body[key]
	if !ok {
		set = NewRecordSet()
		s.body[key] = set
	}
	set.Insert(r, overwrite)
}

// Append stores set under key, replacing any existing set. The set is
// shared, not copied.
func (s *Store) Append(key string, set *RecordSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body[s.normalize(key)] = set
}

// FindKey returns the resident set stored under key.
func (s *Store) FindKey(key string) (*RecordSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.body[s.normalize(key)]
	return set, ok
}

// Find returns the sorted candidates for pos, or nil when the book has
// none. Resident sets are returned by reference; lazy and foreign lookups
// build a fresh set.
func (s *Store) Find(pos *position.Position) *RecordSet {
	s.stats.IncrementLookups()

	s.mu.RLock()
	key := s.normalize(pos.Key())
	var set *RecordSet
	switch s.mode {
	case ModeResident:
		set = s.body[key]
		s.mu.RUnlock()
	case ModeForeign:
		fb := s.foreign
		s.mu.RUnlock()
		set = foreignSet(fb.Entries(pos))
	case ModeLazy:
		s.mu.RUnlock()
		set = s.findLazy(key)
	default:
		s.mu.RUnlock()
	}

	if set == nil || set.Len() == 0 {
		return nil
	}
	set.Sort()
	s.stats.IncrementHits()
	return set
}

// foreignSet converts packed entries. A book with no occurrence counts at
// all weighs every entry equally.
func foreignSet(entries []packedbook.Entry) *RecordSet {
	if len(entries) == 0 {
		return nil
	}
	var total uint64
	for _, e := range entries {
		total += e.Count
	}
	set := NewRecordSet()
	for _, e := range entries {
		count := e.Count
		if total == 0 {
			count = 1
		}
		set.Insert(NewRecord(e.Move, position.MoveNone, e.Score, foreignDepth, count), true)
	}
	return set
}

// foreignDepth marks records from packed books, which carry no depth.
const foreignDepth = 256

// ForEach calls fn for every resident key and set. The key set is
// snapshotted first, so fn may call back into the store.
func (s *Store) ForEach(fn func(key string, set *RecordSet)) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.body))
	sets := make([]*RecordSet, 0, len(s.body))
	for k, set := range s.body {
		keys = append(keys, k)
		sets = append(sets, set)
	}
	s.mu.RUnlock()

	for i := range keys {
		fn(keys[i], sets[i])
	}
}

// Len returns the number of resident keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.body)
}

// Close releases the lazy file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.loaded = false
	return err
}
