package pnlsnapshot_test

import (
	"os"
	"testing"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/pnlsnapshot"
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

func TestCreateAndHistory(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	c := &domain.Council{Name: "c1", TradingMode: domain.TradingModePaper, TradingType: domain.TradingTypeFutures}
	require.NoError(t, council.New(tx).Create(c))

	repo := pnlsnapshot.New(tx)
	s := &domain.PnLSnapshot{
		CouncilID:     c.ID,
		MarkPrice:     decimal.MustFromString("51000", decimal.ScaleAsset),
		NotionalValue: decimal.MustFromString("25500", decimal.ScaleAsset),
		UnrealizedPnL: decimal.MustFromString("500", decimal.ScaleUSD),
		PnLPercentage: decimal.MustFromString("2", decimal.ScalePercent),
	}
	require.NoError(t, repo.Create(s))
	require.NotZero(t, s.ID)

	hist, err := repo.History(c.ID, s.SnapshotTime.Add(-1))
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, "500.00", hist[0].UnrealizedPnL.String())
}

func TestCreatePerformanceSnapshot(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	c := &domain.Council{Name: "c1", TradingMode: domain.TradingModePaper, TradingType: domain.TradingTypeFutures}
	require.NoError(t, council.New(tx).Create(c))

	repo := pnlsnapshot.New(tx)
	snap := &domain.CouncilPerformanceSnapshot{
		CouncilID:     c.ID,
		TotalValue:    decimal.MustFromString("10205", decimal.ScaleUSD),
		PnL:           decimal.MustFromString("205", decimal.ScaleUSD),
		PnLPercentage: decimal.MustFromString("2.05", decimal.ScalePercent),
		WinRate:       decimal.MustFromString("100", decimal.ScalePercent),
		TotalTrades:   4,
		OpenPositions: 1,
	}
	require.NoError(t, repo.CreatePerformanceSnapshot(snap))
	require.NotZero(t, snap.ID)
}
