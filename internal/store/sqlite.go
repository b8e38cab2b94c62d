package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/inventory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Records are kept as
// JSON documents next to the columns used for lookups and ordering.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; a single connection keeps them applied.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS vehicles (
	id            TEXT PRIMARY KEY,
	dealership_id TEXT NOT NULL,
	vin           TEXT NOT NULL,
	status        TEXT NOT NULL,
	data          TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vehicles_dealership_status ON vehicles(dealership_id, status);
CREATE INDEX IF NOT EXISTS idx_vehicles_vin ON vehicles(vin);

CREATE TABLE IF NOT EXISTS vehicle_signals (
	vehicle_id TEXT PRIMARY KEY REFERENCES vehicles(id) ON DELETE CASCADE,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS comps (
	id         TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	source     TEXT NOT NULL,
	data       TEXT NOT NULL,
	found_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comps_vehicle_source ON comps(vehicle_id, source);

CREATE TABLE IF NOT EXISTS comp_summaries (
	vehicle_id  TEXT PRIMARY KEY REFERENCES vehicles(id) ON DELETE CASCADE,
	data        TEXT NOT NULL,
	computed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_reports (
	id          TEXT PRIMARY KEY,
	vehicle_id  TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	data        TEXT NOT NULL,
	computed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_vehicle_computed ON analysis_reports(vehicle_id, computed_at);

CREATE TABLE IF NOT EXISTS alarms (
	id            TEXT PRIMARY KEY,
	dealership_id TEXT NOT NULL,
	data          TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alarms_dealership_created ON alarms(dealership_id, created_at);

CREATE TABLE IF NOT EXISTS alarm_settings (
	dealership_id TEXT PRIMARY KEY,
	data          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS waterfall_settings (
	dealership_id TEXT PRIMARY KEY,
	data          TEXT NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS price_events (
	id            TEXT PRIMARY KEY,
	vehicle_id    TEXT NOT NULL,
	dealership_id TEXT NOT NULL,
	data          TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_events_vehicle ON price_events(vehicle_id, created_at);
CREATE INDEX IF NOT EXISTS idx_price_events_dealership ON price_events(dealership_id, created_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Vehicles ---

func (s *SQLiteStore) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	ensureID(&v.ID)
	ensureTime(&v.CreatedAt)
	v.UpdatedAt = v.CreatedAt

	data, err := encode(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, dealership_id, vin, status, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.DealershipID, v.VIN, string(v.Status), string(data), v.CreatedAt.UnixNano(), v.UpdatedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: insert vehicle %s", v.ID)
}

func (s *SQLiteStore) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	return sqliteGet[model.Vehicle](ctx, s.db, "vehicle "+id, `SELECT data FROM vehicles WHERE id = ?`, id)
}

func (s *SQLiteStore) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	v.UpdatedAt = time.Now().UTC()
	data, err := encode(v)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE vehicles SET vin = ?, status = ?, data = ?, updated_at = ? WHERE id = ?`,
		v.VIN, string(v.Status), string(data), v.UpdatedAt.UnixNano(), v.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update vehicle %s", v.ID)
	}
	return checkRowsAffected(res, "vehicle", v.ID)
}

func (s *SQLiteStore) ListVehicles(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error) {
	var where []string
	var args []any
	if filter.DealershipID != "" {
		where = append(where, "dealership_id = ?")
		args = append(args, filter.DealershipID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.VIN != "" {
		where = append(where, "vin = ?")
		args = append(args, filter.VIN)
	}

	query := `SELECT data FROM vehicles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, rowid LIMIT ?`
	args = append(args, limitOr(filter.Limit, defaultVehicleLimit))

	return sqliteList[model.Vehicle](ctx, s.db, "vehicles", query, args...)
}

// --- Signals ---

func (s *SQLiteStore) GetSignals(ctx context.Context, vehicleID string) (*model.Signals, error) {
	return sqliteGet[model.Signals](ctx, s.db, "signals "+vehicleID, `SELECT data FROM vehicle_signals WHERE vehicle_id = ?`, vehicleID)
}

func (s *SQLiteStore) SaveSignals(ctx context.Context, sig *model.Signals) error {
	sig.UpdatedAt = time.Now().UTC()
	data, err := encode(sig)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vehicle_signals (vehicle_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(vehicle_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		sig.VehicleID, string(data), sig.UpdatedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: save signals %s", sig.VehicleID)
}

// --- Comps ---

func (s *SQLiteStore) ReplaceComps(ctx context.Context, vehicleID string, source model.CompSource, comps []model.Comp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace comps")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM comps WHERE vehicle_id = ? AND source = ?`, vehicleID, string(source)); err != nil {
		return eris.Wrapf(err, "sqlite: delete %s comps for %s", source, vehicleID)
	}
	if err := insertComps(ctx, tx, comps); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace comps")
}

func (s *SQLiteStore) AddComps(ctx context.Context, comps []model.Comp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin add comps")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertComps(ctx, tx, comps); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit add comps")
}

func insertComps(ctx context.Context, tx *sql.Tx, comps []model.Comp) error {
	if len(comps) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO comps (id, vehicle_id, source, data, found_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert comp")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range comps {
		c := &comps[i]
		ensureID(&c.ID)
		ensureTime(&c.FoundAt)
		data, err := encode(c)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.VehicleID, string(c.Source), string(data), c.FoundAt.UnixNano()); err != nil {
			return eris.Wrapf(err, "sqlite: insert comp %s", c.ID)
		}
	}
	return nil
}

func (s *SQLiteStore) ListComps(ctx context.Context, vehicleID string, source model.CompSource) ([]model.Comp, error) {
	if source == "" {
		return sqliteList[model.Comp](ctx, s.db, "comps",
			`SELECT data FROM comps WHERE vehicle_id = ? ORDER BY found_at, rowid`, vehicleID)
	}
	return sqliteList[model.Comp](ctx, s.db, "comps",
		`SELECT data FROM comps WHERE vehicle_id = ? AND source = ? ORDER BY found_at, rowid`, vehicleID, string(source))
}

func (s *SQLiteStore) GetCompSummary(ctx context.Context, vehicleID string) (*model.CompSummary, error) {
	return sqliteGet[model.CompSummary](ctx, s.db, "comp summary "+vehicleID,
		`SELECT data FROM comp_summaries WHERE vehicle_id = ?`, vehicleID)
}

func (s *SQLiteStore) SaveCompSummary(ctx context.Context, cs *model.CompSummary) error {
	ensureTime(&cs.ComputedAt)
	data, err := encode(cs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comp_summaries (vehicle_id, data, computed_at) VALUES (?, ?, ?)
		 ON CONFLICT(vehicle_id) DO UPDATE SET data = excluded.data, computed_at = excluded.computed_at`,
		cs.VehicleID, string(data), cs.ComputedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: save comp summary %s", cs.VehicleID)
}

// --- Reports ---

func (s *SQLiteStore) InsertReport(ctx context.Context, r *model.AnalysisReport) error {
	ensureID(&r.ID)
	ensureTime(&r.ComputedAt)
	data, err := encode(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_reports (id, vehicle_id, data, computed_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.VehicleID, string(data), r.ComputedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: insert report for %s", r.VehicleID)
}

func (s *SQLiteStore) LatestReport(ctx context.Context, vehicleID string) (*model.AnalysisReport, error) {
	return sqliteGet[model.AnalysisReport](ctx, s.db, "report for "+vehicleID,
		`SELECT data FROM analysis_reports WHERE vehicle_id = ? ORDER BY computed_at DESC, rowid DESC LIMIT 1`, vehicleID)
}

// --- Alarms ---

func (s *SQLiteStore) InsertAlarm(ctx context.Context, a *model.AlarmReport) error {
	ensureID(&a.ID)
	ensureTime(&a.CreatedAt)
	data, err := encode(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alarms (id, dealership_id, data, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.DealershipID, string(data), a.CreatedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: insert alarm for %s", a.DealershipID)
}

func (s *SQLiteStore) ListAlarms(ctx context.Context, dealershipID string, limit int) ([]model.AlarmReport, error) {
	return sqliteList[model.AlarmReport](ctx, s.db, "alarms",
		`SELECT data FROM alarms WHERE dealership_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		dealershipID, limitOr(limit, defaultAlarmLimit))
}

func (s *SQLiteStore) GetAlarmSettings(ctx context.Context, dealershipID string) (*model.AlarmSettings, error) {
	return sqliteGet[model.AlarmSettings](ctx, s.db, "alarm settings "+dealershipID,
		`SELECT data FROM alarm_settings WHERE dealership_id = ?`, dealershipID)
}

func (s *SQLiteStore) SaveAlarmSettings(ctx context.Context, as *model.AlarmSettings) error {
	data, err := encode(as)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alarm_settings (dealership_id, data) VALUES (?, ?)
		 ON CONFLICT(dealership_id) DO UPDATE SET data = excluded.data`,
		as.DealershipID, string(data),
	)
	return eris.Wrapf(err, "sqlite: save alarm settings %s", as.DealershipID)
}

func (s *SQLiteStore) ListAlarmSettings(ctx context.Context) ([]model.AlarmSettings, error) {
	return sqliteList[model.AlarmSettings](ctx, s.db, "alarm settings",
		`SELECT data FROM alarm_settings ORDER BY dealership_id`)
}

// --- Waterfall ---

func (s *SQLiteStore) GetWaterfallSettings(ctx context.Context, dealershipID string) (*model.WaterfallSettings, error) {
	return sqliteGet[model.WaterfallSettings](ctx, s.db, "waterfall settings "+dealershipID,
		`SELECT data FROM waterfall_settings WHERE dealership_id = ?`, dealershipID)
}

func (s *SQLiteStore) SaveWaterfallSettings(ctx context.Context, ws *model.WaterfallSettings) error {
	ws.UpdatedAt = time.Now().UTC()
	data, err := encode(ws)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO waterfall_settings (dealership_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(dealership_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		ws.DealershipID, string(data), ws.UpdatedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: save waterfall settings %s", ws.DealershipID)
}

// --- Price events ---

func (s *SQLiteStore) InsertPriceEvent(ctx context.Context, e *model.PriceEvent) error {
	ensureID(&e.ID)
	ensureTime(&e.CreatedAt)
	data, err := encode(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO price_events (id, vehicle_id, dealership_id, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.VehicleID, e.DealershipID, string(data), e.CreatedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: insert price event for %s", e.VehicleID)
}

func (s *SQLiteStore) ListPriceEvents(ctx context.Context, filter EventFilter) ([]model.PriceEvent, error) {
	var where []string
	var args []any
	if filter.VehicleID != "" {
		where = append(where, "vehicle_id = ?")
		args = append(args, filter.VehicleID)
	}
	if filter.DealershipID != "" {
		where = append(where, "dealership_id = ?")
		args = append(args, filter.DealershipID)
	}

	query := `SELECT data FROM price_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limitOr(filter.Limit, defaultEventLimit))

	return sqliteList[model.PriceEvent](ctx, s.db, "price events", query, args...)
}

// --- helpers ---

func sqliteGet[T any](ctx context.Context, db *sql.DB, what, query string, args ...any) (*T, error) {
	var data string
	err := db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: %s", what)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s", what)
	}
	return decode[T]([]byte(data))
}

func sqliteList[T any](ctx context.Context, db *sql.DB, what, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", what)
	}
	defer rows.Close() //nolint:errcheck

	out := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", what)
		}
		v, err := decode[T]([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", what)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}
