// Command litekv-cli is an interactive line-oriented client for ad hoc
// manual testing against a running litekv-server, in the spirit of sloty's
// REPL over slotcache files but speaking litekv's wire protocol over TCP.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"

	"github.com/litekv/litekv/internal/resp"
)

func main() {
	host := flag.String("host", "127.0.0.1", "litekv server host")
	port := flag.Int("port", 9527, "litekv server port")
	flag.Parse()

	if err := run(*host, *port); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	repl := &REPL{conn: conn, r: bufio.NewReader(conn)}
	return repl.Run(addr)
}

// REPL is the interactive command loop: one line in, one verb sent to the
// server, one reply frame printed.
type REPL struct {
	conn  net.Conn
	r     *bufio.Reader
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".litekv_cli_history")
}

func (repl *REPL) Run(addr string) error {
	repl.liner = liner.NewLiner()
	defer repl.liner.Close()

	repl.liner.SetCtrlCAborts(true)
	repl.liner.SetCompleter(repl.completer)

	if f, err := os.Open(historyFile()); err == nil {
		repl.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("litekv-cli connected to %s\n", addr)
	fmt.Println("Type 'help' for available commands, 'exit' to quit.")
	fmt.Println()

	for {
		line, err := repl.liner.Prompt("litekv> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		repl.liner.AppendHistory(line)

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			repl.saveHistory()
			return nil
		case "help", "?":
			repl.printHelp()
		default:
			repl.sendAndPrint(fields)
		}
	}

	repl.saveHistory()
	return nil
}

func (repl *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			repl.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (repl *REPL) completer(line string) []string {
	commands := []string{
		"get", "set", "del", "exists", "type", "ttl", "expire", "expireat",
		"incr", "decr", "incrby", "decrby", "strlen", "append",
		"lpush", "rpush", "lpop", "rpop", "llen", "lrange", "lindex", "lsetindex",
		"hset", "hget", "hdel", "hexists", "hgetall", "hkeys", "hvals", "hlen",
		"sadd", "srem", "sismember", "smismember", "smembers", "scard",
		"publish", "subscribe", "unsubscribe",
		"overview", "total", "ping", "evict",
		"help", "exit", "quit", "q",
	}

	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (repl *REPL) printHelp() {
	fmt.Println("Any line is sent verbatim as a command to the server, e.g.:")
	fmt.Println("  set k v")
	fmt.Println("  get k")
	fmt.Println("  lpush mylist a b c")
	fmt.Println("  publish news hello")
	fmt.Println()
	fmt.Println("exit / quit / q   Disconnect and exit")
}

func (repl *REPL) sendAndPrint(fields []string) {
	args := make([][]byte, len(fields))
	for i, f := range fields {
		args[i] = []byte(f)
	}

	if _, err := repl.conn.Write(resp.EncodeRequest(args)); err != nil {
		fmt.Printf("write error: %v\n", err)
		return
	}

	if err := printReply(repl.r); err != nil {
		fmt.Printf("read error: %v\n", err)
	}
}

// printReply reads and prints exactly one reply frame, recursing for
// nested arrays (e.g. lrange/hgetall/smembers).
func printReply(r *bufio.Reader) error {
	line, err := readLine(r)
	if err != nil {
		return err
	}
	if len(line) == 0 {
		return fmt.Errorf("empty reply line")
	}

	switch line[0] {
	case '+':
		fmt.Println(line[1:])
	case '-':
		fmt.Println("(error)", line[1:])
	case ':':
		fmt.Println(line[1:])
	case '$':
		if line == "$-1" {
			fmt.Println("(nil)")
			return nil
		}
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return fmt.Errorf("bad bulk length %q: %w", line, err)
		}
		body := make([]byte, n+2)
		if _, err := io.ReadFull(r, body); err != nil {
			return err
		}
		fmt.Printf("%q\n", string(body[:n]))
	case '*':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return fmt.Errorf("bad array length %q: %w", line, err)
		}
		if n <= 0 {
			fmt.Println("(empty array)")
			return nil
		}
		for i := 0; i < n; i++ {
			fmt.Printf("%3d) ", i+1)
			if err := printReply(r); err != nil {
				return err
			}
		}
	default:
		fmt.Println(line)
	}
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
