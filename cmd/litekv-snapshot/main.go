// Command litekv-snapshot replays an append log into a compact binary
// snapshot, without touching the log itself (unlike litekv-compact, which
// rewrites the log in place).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/litekv/litekv/internal/cli"
	"github.com/litekv/litekv/internal/dispatch"
	"github.com/litekv/litekv/internal/eviction"
	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/snapshot"
	"github.com/litekv/litekv/internal/walog"
)

func main() {
	flags := flag.NewFlagSet("litekv-snapshot", flag.ContinueOnError)

	cmd := &cli.Command{
		Flags: flags,
		Usage: "litekv-snapshot <log-path> <out-path>",
		Short: "replay an append log into a compact binary snapshot",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <log-path> <out-path>, got %d args", len(args))
			}
			srcPath, destPath := args[0], args[1]

			realFS := fs.NewReal()
			writer := fs.NewAtomicWriter(realFS)
			nowMs := func() int64 { return time.Now().UnixMilli() }

			disp := dispatch.NewWired(nowMs, eviction.Random, 1, pubsub.New(), dispatch.NoopAppender, dispatch.DefaultConfig())

			applied, err := walog.Replay(realFS, srcPath, func(args [][]byte) {
				disp.Dispatch(0, args, true)
			})
			if err != nil {
				return fmt.Errorf("replaying %q: %w", srcPath, err)
			}

			if err := snapshot.Save(writer, destPath, disp.Keyspace(), disp.TTL()); err != nil {
				return fmt.Errorf("writing snapshot %q: %w", destPath, err)
			}

			o.Printf("replayed %d records, wrote %d keys to %s\n", applied, disp.Keyspace().Len(), destPath)
			return nil
		},
	}

	io := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(cmd.Run(context.Background(), io, os.Args[1:]))
}
