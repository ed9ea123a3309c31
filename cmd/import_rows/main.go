package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/yungbote/esteira-backend/internal/app"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
)

// import_rows reads one JSON import row per line and resolves them as a
// single batch.
func main() {
	var path string
	var batch string
	flag.StringVar(&path, "file", "-", "JSON lines file (- for stdin)")
	flag.StringVar(&batch, "batch", "", "import_batch_id stamped on new cases (default: random)")
	flag.Parse()

	in := io.Reader(os.Stdin)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	batchID := uuid.New()
	if strings.TrimSpace(batch) != "" {
		id, err := uuid.Parse(strings.TrimSpace(batch))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -batch: %v\n", err)
			os.Exit(1)
		}
		batchID = id
	}

	rows, err := readRows(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read rows: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	summary, err := application.Services.Resolver.ResolveBatch(ctx, batchID, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve batch: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
	if summary.Failed > 0 {
		os.Exit(3)
	}
}

func readRows(r io.Reader) ([]types.ImportRow, error) {
	var rows []types.ImportRow
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var row types.ImportRow
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}
