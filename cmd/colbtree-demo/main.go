// Command colbtree-demo exercises the per-attribute B-tree core end to
// end: open a tree for two attributes, insert a batch of rows, and scan
// one attribute back out. Compression runs only if a leaf fills up during
// the inserts; the demo does not trigger it on its own. Grounded on the
// teacher's cmd/manual_test binaries, which similarly stand up a storage
// stack from a small config file and drive it directly rather than
// through the SQL surface.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kthorne/colbtree/internal/bufferpool"
	"github.com/kthorne/colbtree/internal/meta"
	"github.com/kthorne/colbtree/internal/storage"
	"github.com/kthorne/colbtree/internal/zsbtree"
)

func main() {
	configPath := flag.String("config", "colbtree-demo.yaml", "path to a YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := run(log, cfg); err != nil {
		log.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

const (
	rowAttno = 1
	colAttno = 2
)

func run(log *slog.Logger, cfg DemoConfig) error {
	if err := os.MkdirAll(cfg.Storage.Dir, storage.FileMode0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	sm := storage.NewStorageManager()
	pool := bufferpool.NewPool(sm, storage.LocalFileSet{DirPath: cfg.Storage.Dir, BaseName: "demo"}, cfg.Storage.Capacity)
	ms, err := meta.Open(cfg.Storage.Dir, "demo")
	if err != nil {
		return fmt.Errorf("open metapage service: %w", err)
	}

	tree := zsbtree.Open(pool, ms, zsbtree.RLECodec{}, zsbtree.AlwaysVisibleOracle{})

	log.Info("inserting rows", "count", cfg.Demo.Rows)
	for i := 0; i < cfg.Demo.Rows; i++ {
		rowHeader := []byte(fmt.Sprintf("xmin=%d", i))
		tid, err := tree.Insert(rowAttno, []byte(fmt.Sprintf("id-%d", i)), rowHeader)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
		if err := tree.InsertAt(colAttno, tid, []byte(fmt.Sprintf("value-%d", i*i))); err != nil {
			return fmt.Errorf("insert column for row %d: %w", i, err)
		}
	}

	last, err := tree.LastTID(rowAttno)
	if err != nil {
		return fmt.Errorf("last tid: %w", err)
	}
	log.Info("insert complete", "last_tid", last.String())

	log.Info("scanning attribute", "attno", colAttno)
	scan, err := tree.BeginScan(colAttno, zsbtree.LowSentinel, nil)
	if err != nil {
		return fmt.Errorf("begin scan: %w", err)
	}
	defer scan.Close()

	n := 0
	for {
		tid, datum, ok, err := scan.Next()
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if !ok {
			break
		}
		fmt.Printf("%s -> %s\n", tid.String(), datum)
		n++
	}
	log.Info("scan complete", "rows", n)

	return pool.FlushAll()
}
