package main

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/exp/slog"

	"github.com/rafinno25/applepay-poc/relay"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout))

	app := relay.NewApp(logger, relay.ConfigFromEnv())
	if err := app.Start(); err != nil {
		logger.Error("starting app", "err", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	app.Shutdown()
}
