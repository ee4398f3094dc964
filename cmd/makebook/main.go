// Command makebook builds, converts and inspects opening books.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/config"
	"github.com/freeeve/openbook/internal/logx"
)

var (
	configPath = flag.String("config", "", "YAML config file (default $OPENBOOK_CONFIG)")
	logLevel   = flag.String("log-level", "", "log level, overrides the config")
)

// settings loads the config and the logger shared by every subcommand.
func settings() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, logx.NewLogger(*logLevel), err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg, logx.NewLogger(cfg.LogLevel), nil
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&fromPGNCommand{}, "build")
	subcommands.Register(&thinkCommand{}, "build")
	subcommands.Register(&mergeCommand{}, "files")
	subcommands.Register(&sortCommand{}, "files")
	subcommands.Register(&convertCommand{}, "files")
	subcommands.Register(&exportPackedCommand{}, "files")
	subcommands.Register(&probeCommand{}, "inspect")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(int(subcommands.Execute(ctx)))
}
