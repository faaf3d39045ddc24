package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"orderbook/internal/config"
	"orderbook/internal/engine"
	"orderbook/internal/script"
)

func main() {
	scriptPath := flag.String("script", "", "Command file to run (default: stdin)")
	demo := flag.Bool("demo", false, "Run the built-in demo instead of a script")
	depth := flag.Int("depth", 0, "Levels per side for snapshot and print (default: from config)")
	envPath := flag.String("env", "", "Path to a .env file (default: ./.env)")
	flag.Parse()

	cfg, err := config.Load(*envPath)
	if err != nil {
		setupLogging(config.Default().Log)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.Log)

	if *depth > 0 {
		cfg.Book.Depth = *depth
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var in io.Reader = os.Stdin
	switch {
	case *demo:
		in = strings.NewReader(script.Demo)
	case *scriptPath != "":
		f, err := os.Open(*scriptPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *scriptPath).Msg("failed to open script")
		}
		defer f.Close()
		in = f
	}

	eng := engine.New(ctx, cfg.Engine.QueueSize)
	runner := script.NewRunner(eng, cfg.Book.TickSize, cfg.Book.Depth, os.Stdout)

	failed, runErr := runner.Run(ctx, in)
	if err := eng.Stop(); err != nil {
		log.Error().Err(err).Msg("engine stopped with error")
	}

	switch {
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		log.Fatal().Err(runErr).Msg("script aborted")
	case runErr != nil:
		log.Warn().Msg("interrupted")
	case failed > 0:
		log.Warn().Int("failed", failed).Msg("some commands failed")
		os.Exit(1)
	}
}

func setupLogging(cfg config.Log) {
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.Format == config.FormatJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
