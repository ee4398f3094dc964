// Package makebook builds and maintains opening book files: importing game
// records, deepening entries with an engine, merging, sorting and converting
// packed books.
package makebook
