package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/riptide/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithTimeLayout("none"),
	)

	logger.Info("script finished", slog.Int("status", 0))
	// Output: {"level":"INFO","msg":"script finished","status":0}
}

func Example_trace() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelTrace),
		log.WithPretty(false),
		log.WithTimeLayout("none"),
	)

	logger.With(slog.Int("fiber", 2)).Trace("stage done")
	// Output: level=TRACE msg="stage done" fiber=2
}

func Example_context() {
	type requestKey struct{}

	ctx := context.WithValue(context.Background(), requestKey{}, "r-1")

	logger := log.Make(os.Stdout, log.WithLevel(log.LevelWarn))
	logger.InfoContext(ctx, "filtered")
	// Output:
}
