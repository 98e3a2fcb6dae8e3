package walog

import (
	"bufio"
	"errors"
	"io"
	"log/slog"

	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/resp"
)

// ApplyFunc is called once per replayed command, in file order. Replay
// itself never talks to the dispatcher directly so it can be reused by both
// the server's startup path and the offline compactor.
type ApplyFunc func(args [][]byte)

// Replay scans path from byte 0, parsing framed command records with
// [resp.ReadRequest] and calling apply for each. A clean io.EOF between
// records ends replay silently; anything else (a record truncated
// mid-write, e.g. from a crash) ends replay with a logged warning rather
// than a hard failure, per spec.md §4.9.
func Replay(fsys fs.FS, path string, apply ApplyFunc) (applied int, err error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		req, readErr := resp.ReadRequest(r)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return applied, nil
			}
			slog.Warn("walog: discarding unparseable tail during replay",
				"path", path, "records_applied", applied, "error", readErr)
			return applied, nil
		}

		apply(req.Args)
		applied++
	}
}
