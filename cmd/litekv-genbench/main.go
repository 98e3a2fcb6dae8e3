// Command litekv-genbench generates a synthetic snapshot of n keys for load
// testing, mirroring the original project's pseudo-data generator but
// writing directly into litekv's snapshot format instead of a live server.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/litekv/litekv/internal/cli"
	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/keyspace"
	"github.com/litekv/litekv/internal/snapshot"
	"github.com/litekv/litekv/internal/ttl"
	"github.com/litekv/litekv/internal/value"
)

const numWorkers = 8

func main() {
	flags := flag.NewFlagSet("litekv-genbench", flag.ContinueOnError)
	count := flags.IntP("count", "n", 10000, "number of synthetic keys to generate")

	cmd := &cli.Command{
		Flags: flags,
		Usage: "litekv-genbench <dest-path> -n <count>",
		Short: "write a snapshot of synthetic keys for load testing",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected <dest-path>, got %d args", len(args))
			}
			destPath := args[0]

			start := time.Now()
			ks := generate(*count)

			sched := ttl.NewScheduler(func([]byte) {}, func() int64 { return 0 })
			writer := fs.NewAtomicWriter(fs.NewReal())
			if err := snapshot.Save(writer, destPath, ks, sched); err != nil {
				return fmt.Errorf("writing snapshot %q: %w", destPath, err)
			}

			o.Printf("generated %d keys in %s -> %s\n", *count, time.Since(start), destPath)
			return nil
		},
	}

	io := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(cmd.Run(context.Background(), io, os.Args[1:]))
}

// generate fills a fresh keyspace with count keys, cycling through every
// value type for a realistic type distribution, using a fixed worker pool
// for generation parallelism.
func generate(count int) *keyspace.Keyspace {
	ks := keyspace.New()

	indexes := make(chan int, numWorkers*2)
	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				writeSyntheticKey(ks, i)
			}
		}()
	}

	for i := 1; i <= count; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return ks
}

func writeSyntheticKey(ks *keyspace.Keyspace, i int) {
	key := []byte(fmt.Sprintf("bench:%08d", i))

	ks.Mutate(key, 0, func(*value.Value) (*value.Value, bool) {
		switch i % 5 {
		case 0:
			return value.NewInt(int64(i)), false
		case 1:
			return value.NewStr([]byte(fmt.Sprintf("value-%d", i))), false
		case 2:
			v := value.NewList()
			v.List.PushRight([]byte("a"))
			v.List.PushRight([]byte("b"))
			v.List.PushRight([]byte(fmt.Sprintf("%d", i)))
			return v, false
		case 3:
			v := value.NewHash()
			v.Hash.Put([]byte("field"), []byte(fmt.Sprintf("%d", i)))
			v.Hash.Put([]byte("kind"), []byte("bench"))
			return v, false
		default:
			v := value.NewSet()
			v.Set.Add([]byte(fmt.Sprintf("member-%d", i)))
			v.Set.Add([]byte("bench"))
			return v, false
		}
	})
}
