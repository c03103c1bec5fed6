package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vevevedk/vvv-invest-sub000/internal/config"
	"github.com/vevevedk/vvv-invest-sub000/internal/cursor"
	"github.com/vevevedk/vvv-invest-sub000/internal/database"
	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// unblock clears the block left behind by an authorization failure,
// after the credential has been rotated. Collection resumes on the
// stream's next scheduled cycle.
func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	streamName := flag.String("stream", "", "stream to unblock: trades, headlines or flow")
	flag.Parse()

	kind := model.StreamKind(*streamName)
	switch kind {
	case model.StreamTrades, model.StreamHeadlines, model.StreamFlow:
	default:
		fmt.Fprintf(os.Stderr, "unknown -stream %q\n", *streamName)
		os.Exit(2)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	cursors := cursor.NewStore(pool, slog.Default())

	blocked, reason, err := cursors.Blocked(ctx, kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check block: %v\n", err)
		os.Exit(1)
	}
	if !blocked {
		fmt.Printf("stream %s is not blocked\n", kind)
		return
	}

	if err := cursors.ClearBlock(ctx, kind); err != nil {
		fmt.Fprintf(os.Stderr, "clear block: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("stream %s unblocked (was: %s)\n", kind, reason)
}
