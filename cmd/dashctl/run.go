package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/aggregate"
	"github.com/spec-kit/ticket-dashboard/internal/api/dto"
	"github.com/spec-kit/ticket-dashboard/internal/config"
	"github.com/spec-kit/ticket-dashboard/internal/events"
	"github.com/spec-kit/ticket-dashboard/internal/filter"
	"github.com/spec-kit/ticket-dashboard/internal/loader"
	"github.com/spec-kit/ticket-dashboard/internal/persistence"
	"github.com/spec-kit/ticket-dashboard/internal/records"
	"github.com/spec-kit/ticket-dashboard/internal/repository"
)

const usage = `usage: dashctl --records <file.csv|file.json> [flags]

  --records <path>     Ticket export to load (required)
  --events <path>      JSONC array of events to replay
  --top <n>            Rows kept per ranked chart (default 15)
  --out <path>         Write the result here instead of stdout
  --import-dsn <dsn>   Also upsert the loaded rows into postgres
  -v, --verbose        Log progress to stderr
`

var errRecordsRequired = errors.New("--records is required")

type result struct {
	Steps     int                     `json:"steps"`
	Phase     string                  `json:"phase"`
	Filter    dto.FilterStateResponse `json:"filter"`
	Dashboard aggregate.Dashboard     `json:"dashboard"`
}

func run(args []string, out, errOut io.Writer, now time.Time, sigCh <-chan os.Signal) int {
	flagSet := flag.NewFlagSet("dashctl", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	recordsPath := flagSet.String("records", "", "ticket export to load")
	eventsPath := flagSet.String("events", "", "JSONC event script")
	topN := flagSet.Int("top", aggregate.DefaultTopN, "rows kept per ranked chart")
	outPath := flagSet.String("out", "", "output file")
	importDSN := flagSet.String("import-dsn", "", "postgres DSN to upsert rows into")
	verbose := flagSet.BoolP("verbose", "v", false, "log progress")
	help := flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		fmt.Fprint(errOut, usage)
		return 2
	}
	if *help {
		fmt.Fprint(out, usage)
		return 0
	}
	if *recordsPath == "" {
		fmt.Fprintln(errOut, "error:", errRecordsRequired)
		fmt.Fprint(errOut, usage)
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if l, err := cfg.Build(); err == nil {
			logger = l
		}
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	src := loader.FileSource{Path: *recordsPath}
	rows, err := src.Fetch(ctx)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	store := records.Load(rows, now)
	logger.Info("ticket store loaded", zap.String("source", src.Name()), zap.Int("tickets", store.Len()))

	if *importDSN != "" {
		if err := importRows(ctx, *importDSN, rows, logger); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
	}

	script, err := readScript(*eventsPath)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	bounds, _ := store.Bounds()
	reconciler := filter.NewReconciler(bounds)
	state, err := reconciler.ApplyAll(reconciler.Default(), script...)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	res := result{
		Steps:     len(script),
		Phase:     string(reconciler.Phase(state)),
		Filter:    dto.NewFilterStateResponse(state),
		Dashboard: aggregate.NewEngine(*topN).Aggregate(store, state),
	}
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	body = append(body, '\n')

	if *outPath == "" {
		_, _ = out.Write(body)
		return 0
	}
	if err := atomic.WriteFile(*outPath, bytes.NewReader(body)); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	logger.Info("result written", zap.String("path", *outPath))
	return 0
}

// readScript parses a JSONC array of event requests. An empty path means no events.
func readScript(path string) ([]events.Event, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) ([]events.Event, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	var reqs []dto.EventRequest
	if err := json.Unmarshal(standardized, &reqs); err != nil {
		return nil, fmt.Errorf("invalid event script: %w", err)
	}
	evs := make([]events.Event, 0, len(reqs))
	for i, req := range reqs {
		ev, err := req.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

func importRows(ctx context.Context, dsn string, rows []records.RawRow, logger *zap.Logger) error {
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 2}, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	n, err := repository.NewTicketSource(pg.PoolHandle()).Upsert(ctx, rows)
	if err != nil {
		return fmt.Errorf("import rows: %w", err)
	}
	logger.Info("rows imported", zap.Int("rows", n))
	return nil
}
