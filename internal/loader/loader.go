// Package loader fetches raw ticket rows once at startup and builds the record store.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/config"
	"github.com/spec-kit/ticket-dashboard/internal/persistence"
	"github.com/spec-kit/ticket-dashboard/internal/records"
	"github.com/spec-kit/ticket-dashboard/internal/repository"
)

// Source yields raw ticket rows.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]records.RawRow, error)
}

// PostgresSource adapts a repository.TicketSource.
type PostgresSource struct {
	Tickets repository.TicketSource
}

func (p PostgresSource) Name() string { return "postgres:ticket_export" }

// Fetch implements Source.
func (p PostgresSource) Fetch(ctx context.Context) ([]records.RawRow, error) {
	return p.Tickets.ListRaw(ctx)
}

// NewSource picks the source named by cfg.Source.
func NewSource(cfg config.LoaderConfig, pg *persistence.Postgres) (Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return FileSource{Path: cfg.FilePath}, nil
	case config.SourcePostgres:
		if !pg.Configured() {
			return nil, fmt.Errorf("loader source %q needs a postgres connection", cfg.Source)
		}
		return PostgresSource{Tickets: repository.NewTicketSource(pg.PoolHandle())}, nil
	case config.SourceExport:
		return NewExportSource(cfg.Export, nil), nil
	default:
		return nil, fmt.Errorf("unknown loader source %q", cfg.Source)
	}
}

// Load fetches every row from src and derives the store relative to now.
func Load(ctx context.Context, src Source, now time.Time, logger *zap.Logger) (*records.Store, error) {
	start := time.Now()
	rows, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tickets from %s: %w", src.Name(), err)
	}

	store := records.Load(rows, now)
	undated := 0
	for _, t := range store.Tickets() {
		if t.CreatedAt == nil {
			undated++
		}
	}

	fields := []zap.Field{
		zap.String("source", src.Name()),
		zap.Int("tickets", store.Len()),
		zap.Int("undated", undated),
		zap.Duration("elapsed", time.Since(start)),
	}
	if bounds, ok := store.Bounds(); ok {
		fields = append(fields, zap.Time("earliest", bounds.Start), zap.Time("latest", bounds.End))
	}
	logger.Info("ticket store loaded", fields...)
	if undated > 0 {
		logger.Warn("tickets without a parsable creation time are excluded from the age view",
			zap.Int("count", undated))
	}
	return store, nil
}
