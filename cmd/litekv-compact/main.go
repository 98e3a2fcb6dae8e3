// Command litekv-compact rewrites an append log into a minimal,
// semantically-equivalent log: spec.md §4.9/§6's offline compactor.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/litekv/litekv/internal/cli"
	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/walog"
)

func main() {
	flags := flag.NewFlagSet("litekv-compact", flag.ContinueOnError)

	cmd := &cli.Command{
		Flags: flags,
		Usage: "litekv-compact <log-path> <out-path>",
		Short: "rewrite an append log into its minimal reconstruction form",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <log-path> <out-path>, got %d args", len(args))
			}
			srcPath, destPath := args[0], args[1]

			realFS := fs.NewReal()
			writer := fs.NewAtomicWriter(realFS)
			nowMs := func() int64 { return time.Now().UnixMilli() }

			recordsIn, recordsOut, err := walog.Compact(realFS, writer, srcPath, destPath, nowMs)
			if err != nil {
				return fmt.Errorf("compacting %q: %w", srcPath, err)
			}

			o.Printf("compacted %d records into %d\n", recordsIn, recordsOut)
			return nil
		},
	}

	io := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(cmd.Run(context.Background(), io, os.Args[1:]))
}
