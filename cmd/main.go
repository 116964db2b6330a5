package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alias1177/DCAMailer/internal/config"
	"github.com/Alias1177/DCAMailer/internal/runner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	// LOG_LEVEL may come from .env
	_ = config.LoadDotEnv()
}

func main() {
	lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runner.Execute(ctx)
	code := runner.ExitCode(err)
	if err != nil {
		log.Error().Err(err).Str("kind", runner.ErrorKind(err)).Int("exit_code", code).Msg("Run failed")
	}

	stop()
	os.Exit(code)
}
