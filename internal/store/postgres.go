package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-cli/internal/db"
	"github.com/sells-group/inventory-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var compColumns = []string{"id", "vehicle_id", "source", "data", "found_at"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS vehicles (
	id            TEXT PRIMARY KEY,
	dealership_id TEXT NOT NULL,
	vin           TEXT NOT NULL,
	status        TEXT NOT NULL,
	data          JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vehicles_dealership_status ON vehicles(dealership_id, status);
CREATE INDEX IF NOT EXISTS idx_vehicles_vin ON vehicles(vin);

CREATE TABLE IF NOT EXISTS vehicle_signals (
	vehicle_id TEXT PRIMARY KEY REFERENCES vehicles(id) ON DELETE CASCADE,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS comps (
	id         TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	source     TEXT NOT NULL,
	data       JSONB NOT NULL,
	found_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_comps_vehicle_source ON comps(vehicle_id, source);

CREATE TABLE IF NOT EXISTS comp_summaries (
	vehicle_id  TEXT PRIMARY KEY REFERENCES vehicles(id) ON DELETE CASCADE,
	data        JSONB NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_reports (
	id          TEXT PRIMARY KEY,
	vehicle_id  TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	data        JSONB NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_vehicle_computed ON analysis_reports(vehicle_id, computed_at DESC);

CREATE TABLE IF NOT EXISTS alarms (
	id            TEXT PRIMARY KEY,
	dealership_id TEXT NOT NULL,
	data          JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alarms_dealership_created ON alarms(dealership_id, created_at DESC);

CREATE TABLE IF NOT EXISTS alarm_settings (
	dealership_id TEXT PRIMARY KEY,
	data          JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS waterfall_settings (
	dealership_id TEXT PRIMARY KEY,
	data          JSONB NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_events (
	id            TEXT PRIMARY KEY,
	vehicle_id    TEXT NOT NULL,
	dealership_id TEXT NOT NULL,
	data          JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_events_vehicle ON price_events(vehicle_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_price_events_dealership ON price_events(dealership_id, created_at DESC);
`

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Vehicles ---

func (s *PostgresStore) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	ensureID(&v.ID)
	ensureTime(&v.CreatedAt)
	v.UpdatedAt = v.CreatedAt

	data, err := encode(v)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO vehicles (id, dealership_id, vin, status, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.DealershipID, v.VIN, string(v.Status), data, v.CreatedAt, v.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert vehicle %s", v.ID)
}

func (s *PostgresStore) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	return pgGet[model.Vehicle](ctx, s.pool, "vehicle "+id, `SELECT data FROM vehicles WHERE id = $1`, id)
}

func (s *PostgresStore) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	v.UpdatedAt = time.Now().UTC()
	data, err := encode(v)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE vehicles SET vin = $1, status = $2, data = $3, updated_at = $4 WHERE id = $5`,
		v.VIN, string(v.Status), data, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update vehicle %s", v.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: vehicle %s", v.ID)
	}
	return nil
}

func (s *PostgresStore) ListVehicles(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error) {
	query := `SELECT data FROM vehicles WHERE true`
	args := []any{}
	argIdx := 1

	if filter.DealershipID != "" {
		query += fmt.Sprintf(` AND dealership_id = $%d`, argIdx)
		args = append(args, filter.DealershipID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.VIN != "" {
		query += fmt.Sprintf(` AND vin = $%d`, argIdx)
		args = append(args, filter.VIN)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at, id LIMIT $%d`, argIdx)
	args = append(args, limitOr(filter.Limit, defaultVehicleLimit))

	return pgList[model.Vehicle](ctx, s.pool, "vehicles", query, args...)
}

// --- Signals ---

func (s *PostgresStore) GetSignals(ctx context.Context, vehicleID string) (*model.Signals, error) {
	return pgGet[model.Signals](ctx, s.pool, "signals "+vehicleID, `SELECT data FROM vehicle_signals WHERE vehicle_id = $1`, vehicleID)
}

func (s *PostgresStore) SaveSignals(ctx context.Context, sig *model.Signals) error {
	sig.UpdatedAt = time.Now().UTC()
	data, err := encode(sig)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO vehicle_signals (vehicle_id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (vehicle_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sig.VehicleID, data, sig.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save signals %s", sig.VehicleID)
}

// --- Comps ---

func (s *PostgresStore) ReplaceComps(ctx context.Context, vehicleID string, source model.CompSource, comps []model.Comp) error {
	rows, err := compRows(comps)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM comps WHERE vehicle_id = $1 AND source = $2`, vehicleID, string(source)); err != nil {
			return eris.Wrapf(err, "postgres: delete %s comps for %s", source, vehicleID)
		}
		_, err := db.CopyFrom(ctx, tx, "comps", compColumns, rows)
		return err
	})
}

func (s *PostgresStore) AddComps(ctx context.Context, comps []model.Comp) error {
	rows, err := compRows(comps)
	if err != nil {
		return err
	}
	_, err = db.CopyFrom(ctx, s.pool, "comps", compColumns, rows)
	return err
}

func compRows(comps []model.Comp) ([][]any, error) {
	rows := make([][]any, 0, len(comps))
	for i := range comps {
		c := &comps[i]
		ensureID(&c.ID)
		ensureTime(&c.FoundAt)
		data, err := encode(c)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{c.ID, c.VehicleID, string(c.Source), data, c.FoundAt})
	}
	return rows, nil
}

func (s *PostgresStore) ListComps(ctx context.Context, vehicleID string, source model.CompSource) ([]model.Comp, error) {
	if source == "" {
		return pgList[model.Comp](ctx, s.pool, "comps",
			`SELECT data FROM comps WHERE vehicle_id = $1 ORDER BY found_at, id`, vehicleID)
	}
	return pgList[model.Comp](ctx, s.pool, "comps",
		`SELECT data FROM comps WHERE vehicle_id = $1 AND source = $2 ORDER BY found_at, id`, vehicleID, string(source))
}

func (s *PostgresStore) GetCompSummary(ctx context.Context, vehicleID string) (*model.CompSummary, error) {
	return pgGet[model.CompSummary](ctx, s.pool, "comp summary "+vehicleID,
		`SELECT data FROM comp_summaries WHERE vehicle_id = $1`, vehicleID)
}

func (s *PostgresStore) SaveCompSummary(ctx context.Context, cs *model.CompSummary) error {
	ensureTime(&cs.ComputedAt)
	data, err := encode(cs)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO comp_summaries (vehicle_id, data, computed_at) VALUES ($1, $2, $3)
		 ON CONFLICT (vehicle_id) DO UPDATE SET data = EXCLUDED.data, computed_at = EXCLUDED.computed_at`,
		cs.VehicleID, data, cs.ComputedAt,
	)
	return eris.Wrapf(err, "postgres: save comp summary %s", cs.VehicleID)
}

// --- Reports ---

func (s *PostgresStore) InsertReport(ctx context.Context, r *model.AnalysisReport) error {
	ensureID(&r.ID)
	ensureTime(&r.ComputedAt)
	data, err := encode(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO analysis_reports (id, vehicle_id, data, computed_at) VALUES ($1, $2, $3, $4)`,
		r.ID, r.VehicleID, data, r.ComputedAt,
	)
	return eris.Wrapf(err, "postgres: insert report for %s", r.VehicleID)
}

func (s *PostgresStore) LatestReport(ctx context.Context, vehicleID string) (*model.AnalysisReport, error) {
	return pgGet[model.AnalysisReport](ctx, s.pool, "report for "+vehicleID,
		`SELECT data FROM analysis_reports WHERE vehicle_id = $1 ORDER BY computed_at DESC LIMIT 1`, vehicleID)
}

// --- Alarms ---

func (s *PostgresStore) InsertAlarm(ctx context.Context, a *model.AlarmReport) error {
	ensureID(&a.ID)
	ensureTime(&a.CreatedAt)
	data, err := encode(a)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO alarms (id, dealership_id, data, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.DealershipID, data, a.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert alarm for %s", a.DealershipID)
}

func (s *PostgresStore) ListAlarms(ctx context.Context, dealershipID string, limit int) ([]model.AlarmReport, error) {
	return pgList[model.AlarmReport](ctx, s.pool, "alarms",
		`SELECT data FROM alarms WHERE dealership_id = $1 ORDER BY created_at DESC LIMIT $2`,
		dealershipID, limitOr(limit, defaultAlarmLimit))
}

func (s *PostgresStore) GetAlarmSettings(ctx context.Context, dealershipID string) (*model.AlarmSettings, error) {
	return pgGet[model.AlarmSettings](ctx, s.pool, "alarm settings "+dealershipID,
		`SELECT data FROM alarm_settings WHERE dealership_id = $1`, dealershipID)
}

func (s *PostgresStore) SaveAlarmSettings(ctx context.Context, as *model.AlarmSettings) error {
	data, err := encode(as)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO alarm_settings (dealership_id, data) VALUES ($1, $2)
		 ON CONFLICT (dealership_id) DO UPDATE SET data = EXCLUDED.data`,
		as.DealershipID, data,
	)
	return eris.Wrapf(err, "postgres: save alarm settings %s", as.DealershipID)
}

func (s *PostgresStore) ListAlarmSettings(ctx context.Context) ([]model.AlarmSettings, error) {
	return pgList[model.AlarmSettings](ctx, s.pool, "alarm settings",
		`SELECT data FROM alarm_settings ORDER BY dealership_id`)
}

// --- Waterfall ---

func (s *PostgresStore) GetWaterfallSettings(ctx context.Context, dealershipID string) (*model.WaterfallSettings, error) {
	return pgGet[model.WaterfallSettings](ctx, s.pool, "waterfall settings "+dealershipID,
		`SELECT data FROM waterfall_settings WHERE dealership_id = $1`, dealershipID)
}

func (s *PostgresStore) SaveWaterfallSettings(ctx context.Context, ws *model.WaterfallSettings) error {
	ws.UpdatedAt = time.Now().UTC()
	data, err := encode(ws)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO waterfall_settings (dealership_id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (dealership_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		ws.DealershipID, data, ws.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save waterfall settings %s", ws.DealershipID)
}

// --- Price events ---

func (s *PostgresStore) InsertPriceEvent(ctx context.Context, e *model.PriceEvent) error {
	ensureID(&e.ID)
	ensureTime(&e.CreatedAt)
	data, err := encode(e)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO price_events (id, vehicle_id, dealership_id, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.VehicleID, e.DealershipID, data, e.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert price event for %s", e.VehicleID)
}

func (s *PostgresStore) ListPriceEvents(ctx context.Context, filter EventFilter) ([]model.PriceEvent, error) {
	var where []string
	var args []any
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		where = append(where, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if filter.DealershipID != "" {
		args = append(args, filter.DealershipID)
		where = append(where, fmt.Sprintf("dealership_id = $%d", len(args)))
	}

	query := `SELECT data FROM price_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limitOr(filter.Limit, defaultEventLimit))
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	return pgList[model.PriceEvent](ctx, s.pool, "price events", query, args...)
}

// --- helpers ---

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	if err := fn(tx); err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit tx")
}

func pgGet[T any](ctx context.Context, pool db.Pool, what, query string, args ...any) (*T, error) {
	var data []byte
	err := pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: %s", what)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s", what)
	}
	return decode[T](data)
}

func pgList[T any](ctx context.Context, pool db.Pool, what, query string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", what)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", what)
		}
		v, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: iterate %s", what)
}
