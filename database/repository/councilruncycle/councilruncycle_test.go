package councilruncycle_test

import (
	"os"
	"testing"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/councilrun"
	"github.com/pantheonelite/gocouncil/database/repository/councilruncycle"
	"github.com/pantheonelite/gocouncil/database/testhelpers"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	var err error
	testhelpers.TempDir, err = os.MkdirTemp("", "gocouncil-test")
	if err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(testhelpers.TempDir)
	os.Exit(code)
}

func connectSQLite(t *testing.T) *database.Instance {
	t.Helper()
	cfg := &database.Config{
		Driver:            database.DBSQLite3,
		ConnectionDetails: drivers.ConnectionDetails{Database: t.Name() + ".db"},
	}
	conn, err := testhelpers.ConnectToDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testhelpers.CloseDatabase(conn) })
	return conn
}

func TestCreateIncrementAndComplete(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	c := &domain.Council{Name: "c1", TradingMode: domain.TradingModePaper, TradingType: domain.TradingTypeSpot}
	require.NoError(t, council.New(tx).Create(c))
	run := &domain.CouncilRun{CouncilID: c.ID, TradingMode: domain.TradingModePaper}
	require.NoError(t, councilrun.New(tx).Create(run))

	repo := councilruncycle.New(tx)
	cycle := &domain.CouncilRunCycle{CouncilID: c.ID, RunID: run.ID, TriggerReason: "scheduled"}
	require.NoError(t, repo.Create(cycle))
	require.Equal(t, domain.CycleStatusInProgress, cycle.Status)

	require.NoError(t, repo.IncrementCounters(cycle.ID, 3, 2, decimal.MustFromString("0.015", decimal.ScalePercent)))

	cycle.AnalystSignals = map[string]any{"BTCUSDT": "buy"}
	require.NoError(t, repo.Complete(cycle))
	require.Equal(t, domain.CycleStatusCompleted, cycle.Status)
	require.NotNil(t, cycle.CompletedAt)
}

func TestFail(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	c := &domain.Council{Name: "c1", TradingMode: domain.TradingModePaper, TradingType: domain.TradingTypeSpot}
	require.NoError(t, council.New(tx).Create(c))
	run := &domain.CouncilRun{CouncilID: c.ID, TradingMode: domain.TradingModePaper}
	require.NoError(t, councilrun.New(tx).Create(run))

	repo := councilruncycle.New(tx)
	cycle := &domain.CouncilRunCycle{CouncilID: c.ID, RunID: run.ID}
	require.NoError(t, repo.Create(cycle))

	require.NoError(t, repo.Fail(cycle))
	require.Equal(t, domain.CycleStatusFailed, cycle.Status)
}
