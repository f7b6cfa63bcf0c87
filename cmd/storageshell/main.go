// storageshell is an interactive REPL for poking at a storage engine
// instance directly - creating a table, inserting and reading raw tuples,
// scanning, and inspecting buffer pool occupancy - without a SQL layer in
// front of it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/novadb/storage/internal/bufferpool"
	"github.com/novadb/storage/internal/config"
	"github.com/novadb/storage/internal/heap"
	"github.com/novadb/storage/internal/storage"
)

// engine bundles the disk manager, buffer pool and one table heap - enough
// to exercise every operation in the storage core from a single session.
type engine struct {
	disk *storage.DiskManager
	bpm  *bufferpool.Manager
	tbl  *heap.TableHeap
}

func newEngine(cfg config.Config) (*engine, error) {
	disk, err := storage.OpenDiskManager(cfg.Storage.DataFile)
	if err != nil {
		return nil, err
	}

	var replacer storage.Replacer
	if cfg.Replacer() == config.ReplacerLRUK {
		replacer = storage.NewLRUK(cfg.Storage.LRUKValK)
	} else {
		replacer = storage.NewLRU()
	}

	bpm := bufferpool.New(cfg.Storage.PoolSize, disk, replacer)

	tbl, err := heap.New(bpm)
	if err != nil {
		return nil, err
	}

	return &engine{disk: disk, bpm: bpm, tbl: tbl}, nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dataFile := flag.String("data", "", "override the data file path from config")
	historyPath := flag.String("history", defaultHistoryPath(), "path to the shell history file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "storageshell:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataFile != "" {
		cfg.Storage.DataFile = *dataFile
	}

	eng, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storageshell: could not open engine:", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "storage> ",
		HistoryFile:     *historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "storageshell:", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("storageshell: %s (pool size %d, replacer %s)\n", cfg.Storage.DataFile, cfg.Storage.PoolSize, cfg.Replacer())
	fmt.Println("type 'help' for commands, 'exit' to quit")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "storageshell:", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}
		runCommand(eng, line)
	}
}

func runCommand(eng *engine, line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help":
		printHelp()
	case "insert":
		runInsert(eng, args)
	case "get":
		runGet(eng, args)
	case "delete":
		runDelete(eng, args)
	case "scan":
		runScan(eng)
	case "stats":
		runStats(eng)
	default:
		fmt.Printf("unknown command %q, type 'help' for a list\n", cmd)
	}
}

func printHelp() {
	fmt.Println(`commands:
  insert <text>       insert a tuple holding the literal bytes of <text>
  get <page>:<slot>   read a tuple by its RecordID
  delete <page>:<slot> logically delete a tuple by its RecordID
  scan                 list every live tuple in the table, in order
  stats                print buffer pool occupancy
  exit                 quit`)
}

func runInsert(eng *engine, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: insert <text>")
		return
	}
	payload := []byte(strings.Join(args, " "))
	id, err := eng.tbl.InsertTuple(payload)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("inserted at", id)
}

func parseRecordID(s string) (storage.RecordID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return storage.RecordID{}, fmt.Errorf("expected <page>:<slot>, got %q", s)
	}
	page, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return storage.RecordID{}, err
	}
	slot, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return storage.RecordID{}, err
	}
	return storage.RecordID{PageID: storage.PageID(page), Slot: uint16(slot)}, nil
}

func runGet(eng *engine, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <page>:<slot>")
		return
	}
	id, err := parseRecordID(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	data, err := eng.tbl.GetTuple(id)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%s: %q\n", id, data)
}

func runDelete(eng *engine, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: delete <page>:<slot>")
		return
	}
	id, err := parseRecordID(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	old, err := eng.tbl.DeleteTuple(id)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("deleted %s (was %q)\n", id, old)
}

func runScan(eng *engine) {
	it := heap.NewTupleIterator(eng.tbl)
	count := 0
	for {
		id, data, ok, err := it.Next()
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		if !ok {
			break
		}
		fmt.Printf("%s: %q\n", id, data)
		count++
	}
	fmt.Println(count, "tuple(s)")
}

func runStats(eng *engine) {
	fmt.Printf("capacity=%d free=%d\n", eng.bpm.Capacity(), eng.bpm.FreeFrameCount())
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storageshell_history"
	}
	return filepath.Join(home, ".storageshell_history")
}
