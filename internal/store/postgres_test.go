package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetVehicle(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	data, err := json.Marshal(model.Vehicle{ID: "v1", VIN: "VIN1", ListPrice: 24000})
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT data FROM vehicles WHERE id = \$1`).
		WithArgs("v1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	v, err := s.GetVehicle(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "VIN1", v.VIN)
	assert.Equal(t, 24000.0, v.ListPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetVehicle_NotFound(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM vehicles WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetVehicle(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateVehicle_NotFound(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE vehicles SET`).
		WithArgs("VIN1", "active", pgxmock.AnyArg(), pgxmock.AnyArg(), "v1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateVehicle(context.Background(), &model.Vehicle{ID: "v1", VIN: "VIN1", Status: model.VehicleStatusActive})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListVehicles_Filters(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	a, _ := json.Marshal(model.Vehicle{ID: "a"})
	b, _ := json.Marshal(model.Vehicle{ID: "b"})
	mock.ExpectQuery(`SELECT data FROM vehicles WHERE true AND dealership_id = \$1 AND status = \$2 ORDER BY created_at, id LIMIT \$3`).
		WithArgs("d1", "active", 1000).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(a).AddRow(b))

	got, err := s.ListVehicles(context.Background(), VehicleFilter{DealershipID: "d1", Status: model.VehicleStatusActive})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceComps(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comps WHERE vehicle_id = \$1 AND source = \$2`).
		WithArgs("v1", "auto").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectCopyFrom(pgx.Identifier{"comps"}, compColumns).WillReturnResult(2)
	mock.ExpectCommit()

	comps := []model.Comp{
		{VehicleID: "v1", Source: model.CompSourceAuto},
		{VehicleID: "v1", Source: model.CompSourceAuto},
	}
	require.NoError(t, s.ReplaceComps(context.Background(), "v1", model.CompSourceAuto, comps))
	assert.NotEmpty(t, comps[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceComps_RollsBack(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comps`).
		WithArgs("v1", "auto").
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := s.ReplaceComps(context.Background(), "v1", model.CompSourceAuto, []model.Comp{{VehicleID: "v1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete auto comps")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddComps(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"comps"}, compColumns).WillReturnResult(1)

	err := s.AddComps(context.Background(), []model.Comp{{VehicleID: "v1", Source: model.CompSourceManual}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSignals_Upsert(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(vehicle_id\)`).
		WithArgs("v1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveSignals(context.Background(), &model.Signals{VehicleID: "v1", ViewsLast7: 3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestReport(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	data, _ := json.Marshal(model.AnalysisReport{ID: "r2", VehicleID: "v1", P30: 0.42})
	mock.ExpectQuery(`FROM analysis_reports WHERE vehicle_id = \$1 ORDER BY computed_at DESC LIMIT 1`).
		WithArgs("v1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	r, err := s.LatestReport(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "r2", r.ID)
	assert.Equal(t, 0.42, r.P30)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPriceEvents(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM price_events WHERE dealership_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("d1", 50).
		WillReturnRows(pgxmock.NewRows([]string{"data"}))

	got, err := s.ListPriceEvents(context.Background(), EventFilter{DealershipID: "d1"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS vehicles`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close_NoPool(t *testing.T) {
	t.Parallel()
	s := &PostgresStore{}
	assert.NoError(t, s.Close())
}
