package wallet_test

import (
	"os"
	"testing"

	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/wallet"
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

func TestCreateAndGetByCouncil(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	c := &domain.Council{Name: "c1", TradingMode: domain.TradingModeReal, TradingType: domain.TradingTypeFutures}
	require.NoError(t, council.New(tx).Create(c))

	repo := wallet.New(tx)
	w := &domain.Wallet{CouncilID: c.ID, Exchange: "binance", APIKey: "k", SecretKey: "s"}
	require.NoError(t, repo.Create(w))
	require.NotZero(t, w.ID)

	got, err := repo.GetByCouncil(c.ID)
	require.NoError(t, err)
	require.Equal(t, "binance", got.Exchange)
}

func TestGetByCouncilNotFound(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = wallet.New(tx).GetByCouncil(999999)
	require.Error(t, err)
}

func TestDeleteClearsCouncilReference(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	councilRepo := council.New(tx)
	c := &domain.Council{Name: "c2", TradingMode: domain.TradingModeReal, TradingType: domain.TradingTypeFutures}
	require.NoError(t, councilRepo.Create(c))

	repo := wallet.New(tx)
	w := &domain.Wallet{CouncilID: c.ID, Exchange: "binance", APIKey: "k", SecretKey: "s"}
	require.NoError(t, repo.Create(w))
	require.NoError(t, councilRepo.SetWallet(c.ID, w.ID))

	require.NoError(t, repo.Delete(c.ID, w.ID))

	got, err := councilRepo.GetByID(c.ID)
	require.NoError(t, err)
	require.Nil(t, got.WalletID)
}
