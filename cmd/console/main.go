// Command console is a terminal front end for the reservation backend.
//
//	console create    prompt for a new train and submit it
//	console change    prompt for a status change and submit it
//	console refresh   print the current train list
//	console watch     print the train list on every update until interrupted
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabtrain/console/internal/config"
	"github.com/fabtrain/console/internal/feed"
	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/logger"
	"github.com/fabtrain/console/internal/service"
	"github.com/fabtrain/console/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// errRejected means the form failed validation; the notifier already
// printed why.
var errRejected = errors.New("form rejected")

const (
	connectTimeout = 10 * time.Second
	replyTimeout   = 30 * time.Second
)

func main() {
	cmd := "watch"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg := config.Load()
	log := logger.SetupWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, cmd, cfg, log)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, errRejected):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "console:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg *config.Config, log zerolog.Logger) error {
	scr := newScreen(os.Stdout, terminalWidth)
	feedService := service.NewFeedService(feed.NewMemoryStore(), scr, scr, log)

	connected := make(chan struct{}, 1)
	client := transport.NewClient(cfg.BackendURL, transport.Options{
		QueueSize:  cfg.EmitQueueSize,
		MaxBackoff: cfg.ReconnectMaxWait,
		OnFrame:    feedService.HandleFrame,
		OnStatus: func(ok bool) {
			scr.status(ok)
			if ok {
				select {
				case connected <- struct{}{}:
				default:
				}
			}
		},
	}, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go client.Run(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, connectTimeout)
	defer waitCancel()
	select {
	case <-connected:
	case <-waitCtx.Done():
		return fmt.Errorf("connect %s: %w", cfg.BackendURL, waitCtx.Err())
	}

	ledger := service.NewLedgerService(client, scr, log)

	switch cmd {
	case "create", "change":
		return submit(ctx, form.Kind(cmd), client, scr)
	case "refresh":
		scr.drainFeeds()
		if _, err := ledger.Refresh(); err != nil {
			return err
		}
		return awaitReply(ctx, scr)
	case "watch":
		if _, err := ledger.Refresh(); err != nil {
			return err
		}
		for {
			if _, err := scr.awaitFeed(ctx); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown command %q (want create, change, refresh or watch)", cmd)
	}
}

func submit(ctx context.Context, kind form.Kind, client *transport.Client, scr *screen) error {
	sub, err := form.NewSubmitter(kind, client, scr, scr)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	snap, err := readFields(os.Stdin, os.Stdout, kind, interactive)
	if err != nil {
		return err
	}

	scr.drainFeeds()

	if _, err := sub.Submit(snap); err != nil {
		if _, ok := form.AsValidation(err); ok {
			return errRejected
		}
		return err
	}
	return awaitReply(ctx, scr)
}

func awaitReply(ctx context.Context, scr *screen) error {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	_, err := scr.awaitFeed(ctx)
	return err
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
