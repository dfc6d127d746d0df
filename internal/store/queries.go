package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// ReadOrbit loads the orbit series stored at path in write order.
func ReadOrbit(ctx context.Context, path string) (model.OrbitSeries, error) {
	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT epoch, x, y, z, vx, vy, vz FROM orbit_epochs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query orbit_epochs: %w", err)
	}
	defer rows.Close()

	var series model.OrbitSeries
	for rows.Next() {
		var (
			epoch      string
			e          model.OrbitEpoch
			vx, vy, vz sql.NullFloat64
		)
		if err := rows.Scan(&epoch, &e.Position.X, &e.Position.Y, &e.Position.Z, &vx, &vy, &vz); err != nil {
			return nil, fmt.Errorf("scan orbit row: %w", err)
		}
		if e.Time, err = parseEpoch(epoch); err != nil {
			return nil, err
		}
		if vx.Valid && vy.Valid && vz.Valid {
			e.Velocity = &core.Vec3{X: vx.Float64, Y: vy.Float64, Z: vz.Float64}
		}
		series = append(series, e)
	}
	return series, rows.Err()
}

// ReadClock loads the clock series stored at path in write order.
func ReadClock(ctx context.Context, path string) (model.ClockSeries, error) {
	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT epoch, bias FROM clock_epochs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query clock_epochs: %w", err)
	}
	defer rows.Close()

	var series model.ClockSeries
	for rows.Next() {
		var (
			epoch string
			e     model.ClockEpoch
		)
		if err := rows.Scan(&epoch, &e.Bias); err != nil {
			return nil, fmt.Errorf("scan clock row: %w", err)
		}
		if e.Time, err = parseEpoch(epoch); err != nil {
			return nil, err
		}
		series = append(series, e)
	}
	return series, rows.Err()
}

// ReadCovariance loads the covariance series stored at path in write order.
func ReadCovariance(ctx context.Context, path string) (model.CovarianceSeries, error) {
	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT epoch, xx, xy, xz, yy, yz, zz FROM covariance_epochs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query covariance_epochs: %w", err)
	}
	defer rows.Close()

	var series model.CovarianceSeries
	for rows.Next() {
		var (
			epoch                  string
			xx, xy, xz, yy, yz, zz float64
		)
		if err := rows.Scan(&epoch, &xx, &xy, &xz, &yy, &yz, &zz); err != nil {
			return nil, fmt.Errorf("scan covariance row: %w", err)
		}
		t, err := parseEpoch(epoch)
		if err != nil {
			return nil, err
		}
		series = append(series, model.CovarianceEpoch{
			Time: t,
			Covariance: core.Mat3{
				{xx, xy, xz},
				{xy, yy, yz},
				{xz, yz, zz},
			},
		})
	}
	return series, rows.Err()
}

func parseEpoch(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch %q: %w", s, err)
	}
	return t, nil
}
