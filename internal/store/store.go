// Package store persists selected series into SQLite database files.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/kb"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	// sqlite driver
	_ "modernc.org/sqlite"
)

const tracerName = "github.com/signalsfoundry/sp3-orbit-converter/internal/store"

// GPSEpoch is the origin of the gps_seconds columns.
var GPSEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// Epochs are stored as text; the driver's default time.Time encoding is not
// understood by SQLite's date functions.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteWriter writes each series into the SQLite database at its output
// path. Writing a series replaces the rows of its table.
type SQLiteWriter struct {
	log logging.Logger
}

var _ kb.SeriesWriter = (*SQLiteWriter)(nil)

// NewSQLiteWriter constructs a writer.
func NewSQLiteWriter(log logging.Logger) *SQLiteWriter {
	if log == nil {
		log = logging.Noop()
	}
	return &SQLiteWriter{log: log}
}

// open creates the database at path and its schema.
func open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	for _, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return db, nil
}

// replace runs insert for every row inside one transaction after clearing
// table.
func (w *SQLiteWriter) replace(ctx context.Context, kind, path, table, insert string, n int, args func(i int) []any) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "store.Write", trace.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("path", path),
		attribute.Int("rows", n),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	db, err := open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err = stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}

	w.log.Debug(ctx, "series stored",
		logging.String("kind", kind),
		logging.String("path", path),
		logging.Int("rows", n),
	)
	return nil
}

func formatEpoch(t time.Time) (string, float64) {
	return t.UTC().Format(timeLayout), t.Sub(GPSEpoch).Seconds()
}

// WriteOrbit implements kb.SeriesWriter.
func (w *SQLiteWriter) WriteOrbit(ctx context.Context, path string, series model.OrbitSeries) error {
	return w.replace(ctx, "orbit", path, "orbit_epochs", insertOrbit, len(series), func(i int) []any {
		e := series[i]
		epoch, secs := formatEpoch(e.Time)
		var vx, vy, vz sql.NullFloat64
		if e.Velocity != nil {
			vx = sql.NullFloat64{Float64: e.Velocity.X, Valid: true}
			vy = sql.NullFloat64{Float64: e.Velocity.Y, Valid: true}
			vz = sql.NullFloat64{Float64: e.Velocity.Z, Valid: true}
		}
		return []any{i, epoch, secs, e.Position.X, e.Position.Y, e.Position.Z, vx, vy, vz}
	})
}

// WriteClock implements kb.SeriesWriter.
func (w *SQLiteWriter) WriteClock(ctx context.Context, path string, series model.ClockSeries) error {
	return w.replace(ctx, "clock", path, "clock_epochs", insertClock, len(series), func(i int) []any {
		epoch, secs := formatEpoch(series[i].Time)
		return []any{i, epoch, secs, series[i].Bias}
	})
}

// WriteCovariance implements kb.SeriesWriter. The upper triangle is stored.
func (w *SQLiteWriter) WriteCovariance(ctx context.Context, path string, series model.CovarianceSeries) error {
	return w.replace(ctx, "covariance", path, "covariance_epochs", insertCovariance, len(series), func(i int) []any {
		epoch, secs := formatEpoch(series[i].Time)
		c := series[i].Covariance
		return []any{i, epoch, secs, c[0][0], c[0][1], c[0][2], c[1][1], c[1][2], c[2][2]}
	})
}
