package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/ardnew/riptide/cli"
	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		var exit *interp.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}

		log.Error(
			"run failed",
			slog.Any("error", err),
		) // slog automatically uses LogValue()
		os.Exit(1)
	}
}
