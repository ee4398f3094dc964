// Package book provides the opening book: a store of ranked candidate
// replies keyed by position.
//
// Access modes:
//   - Resident: the whole book file is parsed into memory
//   - Lazy: the sorted book file stays on disk and each lookup binary-searches it
//   - Disabled: the book name "no_book" turns every lookup into a miss
//   - Foreign: the book name "book.bin" reads a packed binary book
//
// File format (text, one record per line):
//
//	#OPENBOOK-DB2016 1.00
//	sfen <FEN>
//	<move> <ponder> <value> <depth> <count> <wins> <losses>
//
// Headers are sorted byte-wise so the lazy mode can bisect the file.
// Trailing reply fields are optional. Lines starting with "#" or "//" are
// comments.
package book
