package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/freeeve/openbook/internal/makebook"
)

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

type mergeCommand struct{}

func (*mergeCommand) Name() string     { return "merge" }
func (*mergeCommand) Synopsis() string { return "Merge two books, preferring deeper searches" }
func (*mergeCommand) Usage() string {
	return `merge A.db B.db OUT.db
`
}
func (*mergeCommand) SetFlags(*flag.FlagSet) {}

func (c *mergeCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flags.NArg() != 3 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	_, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}
	stats, err := makebook.MergeFiles(flags.Arg(0), flags.Arg(1), flags.Arg(2), log)
	if err != nil {
		log.Error().Err(err).Msg("merge")
		return subcommands.ExitFailure
	}
	fmt.Printf("same=%d only_a=%d only_b=%d\n", stats.Same, stats.OnlyA, stats.OnlyB)
	return subcommands.ExitSuccess
}

type sortCommand struct{}

func (*sortCommand) Name() string     { return "sort" }
func (*sortCommand) Synopsis() string { return "Rewrite a book sorted, canonical and deduplicated" }
func (*sortCommand) Usage() string {
	return `sort IN.db OUT.db
`
}
func (*sortCommand) SetFlags(*flag.FlagSet) {}

func (c *sortCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flags.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	_, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}
	stats, err := makebook.SortFile(flags.Arg(0), flags.Arg(1), log)
	if err != nil {
		log.Error().Err(err).Msg("sort")
		return subcommands.ExitFailure
	}
	fmt.Printf("positions=%d records=%d duplicates=%d unparsable=%d\n",
		stats.Positions, stats.Records, stats.Duplicates, stats.Unparsable)
	return subcommands.ExitSuccess
}

type convertCommand struct{}

func (*convertCommand) Name() string     { return "convert" }
func (*convertCommand) Synopsis() string { return "Convert a packed binary book to a text book" }
func (*convertCommand) Usage() string {
	return `convert IN.bin OUT.db
`
}
func (*convertCommand) SetFlags(*flag.FlagSet) {}

func (c *convertCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flags.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	_, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}
	stats, err := makebook.ConvertPackedFile(ctx, flags.Arg(0), flags.Arg(1), log)
	if err != nil {
		log.Error().Err(err).Msg("convert")
		return subcommands.ExitFailure
	}
	fmt.Printf("visited=%d positions=%d entries=%d collisions=%d\n",
		stats.Visited, stats.Positions, stats.Entries, stats.Collisions)
	return subcommands.ExitSuccess
}

type exportPackedCommand struct{}

func (*exportPackedCommand) Name() string     { return "export-packed" }
func (*exportPackedCommand) Synopsis() string { return "Write a text book as a packed binary book" }
func (*exportPackedCommand) Usage() string {
	return `export-packed IN.db OUT.bin
`
}
func (*exportPackedCommand) SetFlags(*flag.FlagSet) {}

func (c *exportPackedCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flags.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	_, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}
	stats, err := makebook.ExportPacked(flags.Arg(0), flags.Arg(1), log)
	if err != nil {
		log.Error().Err(err).Msg("export")
		return subcommands.ExitFailure
	}
	fmt.Printf("positions=%d entries=%d unparsable=%d\n", stats.Positions, stats.Entries, stats.Unparsable)
	return subcommands.ExitSuccess
}
