package store

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	_ "modernc.org/sqlite"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// SQLiteStore persists ingest snapshots and computed district statistics
// using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ingest_meta (
	name       TEXT PRIMARY KEY,
	source_url TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS incidents (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	district_id    TEXT,
	travel_seconds REAL
);

CREATE TABLE IF NOT EXISTS districts (
	id         TEXT PRIMARY KEY,
	name       TEXT,
	geom       BLOB,
	centroid_x REAL NOT NULL,
	centroid_y REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS demographics (
	district_id      TEXT PRIMARY KEY,
	population       INTEGER NOT NULL,
	prop_age_85_plus REAL NOT NULL,
	median_hh_income REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS stations (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	category TEXT,
	lon      REAL NOT NULL,
	lat      REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS district_stats (
	district_id          TEXT PRIMARY KEY,
	response_count       INTEGER NOT NULL,
	avg_response_seconds REAL NOT NULL,
	compliant_count      INTEGER NOT NULL,
	non_compliant_count  INTEGER NOT NULL,
	non_comp_prop        REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_incidents_district_id ON incidents(district_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the stored ingest snapshot inside a single
// transaction. Missing district keys and unparseable travel times are
// stored as NULL so a reload reproduces the raw rows exactly.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin snapshot tx")
	}
	defer tx.Rollback()

	for _, table := range []string{"incidents", "districts", "demographics", "stations", "ingest_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}

	if err := insertIncidents(ctx, tx, snap.Incidents); err != nil {
		return err
	}
	if err := insertDistricts(ctx, tx, snap.Districts); err != nil {
		return err
	}
	for _, d := range snap.Demographics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO demographics (district_id, population, prop_age_85_plus, median_hh_income) VALUES (?, ?, ?, ?)`,
			d.DistrictID, d.Population, d.PropAge85Plus, d.MedianHHIncome,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert demographics %s", d.DistrictID)
		}
	}
	for _, st := range snap.Stations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stations (name, category, lon, lat) VALUES (?, ?, ?, ?)`,
			st.Name, st.Category, st.Location[0], st.Location[1],
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert station %s", st.Name)
		}
	}
	for _, m := range snap.Meta {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ingest_meta (name, source_url, row_count, fetched_at) VALUES (?, ?, ?, ?)`,
			m.Name, m.SourceURL, m.RowCount, m.FetchedAt.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert meta %s", m.Name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

func insertIncidents(ctx context.Context, tx *sql.Tx, incidents []model.Incident) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO incidents (district_id, travel_seconds) VALUES (?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare incidents insert")
	}
	defer stmt.Close()

	for _, in := range incidents {
		district := sql.NullString{String: in.DistrictID, Valid: in.DistrictID != ""}
		travel := sql.NullFloat64{Float64: in.TravelSeconds, Valid: !math.IsNaN(in.TravelSeconds)}
		if _, err := stmt.ExecContext(ctx, district, travel); err != nil {
			return eris.Wrap(err, "sqlite: insert incident")
		}
	}
	return nil
}

func insertDistricts(ctx context.Context, tx *sql.Tx, districts []model.District) error {
	for _, d := range districts {
		var blob []byte
		if d.Geometry != nil {
			data, err := ewkb.Marshal(d.Geometry, ewkb.NDR)
			if err != nil {
				return eris.Wrapf(err, "sqlite: encode district %s geometry", d.ID)
			}
			blob = data
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO districts (id, name, geom, centroid_x, centroid_y) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Name, blob, d.Centroid[0], d.Centroid[1],
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert district %s", d.ID)
		}
	}
	return nil
}

// LoadSnapshot reads back the full stored snapshot.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{}

	incidents, err := s.loadIncidents(ctx)
	if err != nil {
		return nil, err
	}
	snap.Incidents = incidents

	districts, err := s.loadDistricts(ctx)
	if err != nil {
		return nil, err
	}
	snap.Districts = districts

	rows, err := s.db.QueryContext(ctx,
		`SELECT district_id, population, prop_age_85_plus, median_hh_income FROM demographics ORDER BY district_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query demographics")
	}
	defer rows.Close()
	for rows.Next() {
		var d model.DemographicRecord
		if err := rows.Scan(&d.DistrictID, &d.Population, &d.PropAge85Plus, &d.MedianHHIncome); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan demographics")
		}
		snap.Demographics = append(snap.Demographics, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate demographics")
	}

	stations, err := s.loadStations(ctx)
	if err != nil {
		return nil, err
	}
	snap.Stations = stations

	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	snap.Meta = meta

	return snap, nil
}

func (s *SQLiteStore) loadIncidents(ctx context.Context) ([]model.Incident, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT district_id, travel_seconds FROM incidents ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query incidents")
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		var district sql.NullString
		var travel sql.NullFloat64
		if err := rows.Scan(&district, &travel); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan incident")
		}
		in := model.Incident{DistrictID: district.String, TravelSeconds: math.NaN()}
		if travel.Valid {
			in.TravelSeconds = travel.Float64
		}
		incidents = append(incidents, in)
	}
	return incidents, eris.Wrap(rows.Err(), "sqlite: iterate incidents")
}

func (s *SQLiteStore) loadDistricts(ctx context.Context) ([]model.District, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, geom, centroid_x, centroid_y FROM districts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query districts")
	}
	defer rows.Close()

	var districts []model.District
	for rows.Next() {
		var (
			d    model.District
			blob []byte
			cx   float64
			cy   float64
		)
		if err := rows.Scan(&d.ID, &d.Name, &blob, &cx, &cy); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan district")
		}
		d.Centroid = geom.Coord{cx, cy}
		if len(blob) > 0 {
			g, err := ewkb.Unmarshal(blob)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode district %s geometry", d.ID)
			}
			mp, ok := g.(*geom.MultiPolygon)
			if !ok {
				return nil, eris.Errorf("sqlite: district %s geometry is %T, want MultiPolygon", d.ID, g)
			}
			d.Geometry = mp
		}
		districts = append(districts, d)
	}
	return districts, eris.Wrap(rows.Err(), "sqlite: iterate districts")
}

func (s *SQLiteStore) loadStations(ctx context.Context) ([]model.FireStation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, category, lon, lat FROM stations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query stations")
	}
	defer rows.Close()

	var stations []model.FireStation
	for rows.Next() {
		var (
			st  model.FireStation
			lon float64
			lat float64
		)
		if err := rows.Scan(&st.Name, &st.Category, &lon, &lat); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan station")
		}
		st.Location = geom.Coord{lon, lat}
		stations = append(stations, st)
	}
	return stations, eris.Wrap(rows.Err(), "sqlite: iterate stations")
}

func (s *SQLiteStore) loadMeta(ctx context.Context) ([]model.DatasetMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, source_url, row_count, fetched_at FROM ingest_meta ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query meta")
	}
	defer rows.Close()

	var metas []model.DatasetMeta
	for rows.Next() {
		var (
			m  model.DatasetMeta
			at time.Time
		)
		if err := rows.Scan(&m.Name, &m.SourceURL, &m.RowCount, &at); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan meta")
		}
		m.FetchedAt = at.UTC()
		metas = append(metas, m)
	}
	return metas, eris.Wrap(rows.Err(), "sqlite: iterate meta")
}

// SaveDistrictStats replaces the computed per-district aggregates.
func (s *SQLiteStore) SaveDistrictStats(ctx context.Context, aggs []model.DistrictAggregate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin stats tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM district_stats"); err != nil {
		return eris.Wrap(err, "sqlite: clear district_stats")
	}
	for _, a := range aggs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO district_stats (district_id, response_count, avg_response_seconds, compliant_count, non_compliant_count, non_comp_prop)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.DistrictID, a.ResponseCount, a.AvgResponseSeconds, a.CompliantCount, a.NonCompliantCount, a.NonCompProp,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert district_stats %s", a.DistrictID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit stats")
}

// LoadDistrictStats reads back the stored aggregates ordered by district id.
func (s *SQLiteStore) LoadDistrictStats(ctx context.Context) ([]model.DistrictAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT district_id, response_count, avg_response_seconds, compliant_count, non_compliant_count, non_comp_prop
		 FROM district_stats ORDER BY district_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query district_stats")
	}
	defer rows.Close()

	var aggs []model.DistrictAggregate
	for rows.Next() {
		var a model.DistrictAggregate
		if err := rows.Scan(&a.DistrictID, &a.ResponseCount, &a.AvgResponseSeconds, &a.CompliantCount, &a.NonCompliantCount, &a.NonCompProp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan district_stats")
		}
		aggs = append(aggs, a)
	}
	return aggs, eris.Wrap(rows.Err(), "sqlite: iterate district_stats")
}

// Counts reports stored row counts per table for the status command.
func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 5)
	for _, table := range []string{"incidents", "districts", "demographics", "stations", "district_stats"} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "sqlite: count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
