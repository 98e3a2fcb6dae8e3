// Command litekv-server runs the litekv TCP key-value server: it loads
// configuration, restores state from a snapshot and/or append log, then
// serves client connections until an interrupt or SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/litekv/litekv/internal/cli"
	"github.com/litekv/litekv/internal/config"
	"github.com/litekv/litekv/internal/dispatch"
	"github.com/litekv/litekv/internal/eviction"
	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/server"
	"github.com/litekv/litekv/internal/snapshot"
	"github.com/litekv/litekv/internal/walog"
)

func main() {
	flags := flag.NewFlagSet("litekv-server", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a litekv config file (defaults built in if omitted)")
	ip := flags.String("ip", "", "override the configured listen IP")
	port := flags.Int("port", 0, "override the configured listen port")
	dumpfile := flags.String("dumpfile", "", "override the configured log/snapshot path")
	dumpCacheSize := flags.Int("dump-cachesize", 0, "override the configured log write buffer size")

	cmd := &cli.Command{
		Flags: flags,
		Usage: "litekv-server [flags]",
		Short: "run the litekv TCP key-value server",
		Exec: func(ctx context.Context, o *cli.IO, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if *ip != "" {
				cfg.IP = *ip
			}
			if *port != 0 {
				cfg.Port = *port
			}
			if *dumpfile != "" {
				cfg.Dumpfile = *dumpfile
			}
			if *dumpCacheSize != 0 {
				cfg.DumpCacheSize = *dumpCacheSize
			}

			return run(ctx, o, cfg)
		},
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigCh
		cancel()
	}()

	io := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(cmd.Run(ctx, io, os.Args[1:]))
}

func run(ctx context.Context, o *cli.IO, cfg config.Config) error {
	realFS := fs.NewReal()
	nowMs := func() int64 { return time.Now().UnixMilli() }

	reg := pubsub.New()
	dcfg := dispatch.Config{
		MaxMemBytes:  cfg.MaxMemBytes,
		TriggerRatio: cfg.TriggerRatio,
		EvictBatch:   cfg.EvictBatch,
	}
	policy := eviction.Random
	if cfg.LRU {
		policy = eviction.LruApprox
	}

	locker := fs.NewLocker(realFS)
	lock, err := locker.TryLock(cfg.Dumpfile + ".lock")
	if err != nil {
		return fmt.Errorf("acquiring log lock (another litekv-server running?): %w", err)
	}
	defer lock.Close()

	logFile, err := realFS.OpenFile(cfg.Dumpfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %q: %w", cfg.Dumpfile, err)
	}
	aof := walog.New(logFile, cfg.DumpCacheSize)

	disp := dispatch.NewWired(nowMs, policy, time.Now().UnixNano(), reg, aof, dcfg)

	if exists, _ := realFS.Exists(cfg.Dumpfile + ".snapshot"); exists {
		loaded, err := snapshot.Load(realFS, cfg.Dumpfile+".snapshot", disp.Keyspace(), disp.TTL(), nowMs())
		if err != nil {
			o.Warn(fmt.Sprintf("snapshot load: %v", err))
		}
		slog.Info("litekv-server: loaded snapshot", "keys", loaded)
	}

	applied, err := walog.Replay(realFS, cfg.Dumpfile, func(args [][]byte) {
		disp.Dispatch(0, args, true)
	})
	if err != nil {
		o.Warn(fmt.Sprintf("log replay: %v", err))
	}
	slog.Info("litekv-server: replayed log", "records", applied)

	disp.Start()
	defer disp.Stop()
	aof.Start()
	defer func() {
		if err := aof.Stop(); err != nil {
			slog.Error("litekv-server: flushing log on shutdown", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.IP, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := server.New(ln, disp, reg, server.DefaultConfig())
	slog.Info("litekv-server: listening", "addr", addr)

	err = srv.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
