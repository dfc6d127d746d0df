package store

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orbit_epochs (
		seq INTEGER PRIMARY KEY,
		epoch TEXT NOT NULL,
		gps_seconds REAL NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		vx REAL,
		vy REAL,
		vz REAL
	)`,
	`CREATE TABLE IF NOT EXISTS clock_epochs (
		seq INTEGER PRIMARY KEY,
		epoch TEXT NOT NULL,
		gps_seconds REAL NOT NULL,
		bias REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS covariance_epochs (
		seq INTEGER PRIMARY KEY,
		epoch TEXT NOT NULL,
		gps_seconds REAL NOT NULL,
		xx REAL NOT NULL,
		xy REAL NOT NULL,
		xz REAL NOT NULL,
		yy REAL NOT NULL,
		yz REAL NOT NULL,
		zz REAL NOT NULL
	)`,
}

const (
	insertOrbit = `INSERT INTO orbit_epochs (seq, epoch, gps_seconds, x, y, z, vx, vy, vz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertClock = `INSERT INTO clock_epochs (seq, epoch, gps_seconds, bias)
		VALUES (?, ?, ?, ?)`
	insertCovariance = `INSERT INTO covariance_epochs (seq, epoch, gps_seconds, xx, xy, xz, yy, yz, zz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)
