package trading_test

import (
	"context"
	"os"
	"testing"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/futuresposition"
	"github.com/pantheonelite/gocouncil/database/repository/order"
	"github.com/pantheonelite/gocouncil/database/repository/spotholding"
	"github.com/pantheonelite/gocouncil/database/testhelpers"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
	"github.com/pantheonelite/gocouncil/trading"
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

type harness struct {
	executor *trading.Executor
	council  *domain.Council
	client   *venue.PaperClient
}

func newHarness(t *testing.T, tradingType domain.TradingType) harness {
	t.Helper()
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })

	councilRepo := council.New(tx)
	c := &domain.Council{
		Name:              "c1",
		TradingMode:       domain.TradingModePaper,
		TradingType:       tradingType,
		InitialCapital:    decimal.MustFromString("10000", decimal.ScaleUSD),
		AvailableBalance:  decimal.MustFromString("10000", decimal.ScaleUSD),
		TotalAccountValue: decimal.MustFromString("10000", decimal.ScaleUSD),
	}
	require.NoError(t, councilRepo.Create(c))

	exec := trading.NewExecutor(councilRepo, futuresposition.New(tx), spotholding.New(tx), order.New(tx))
	client := venue.NewPaperClient(1000)
	client.SetMarkPrice("BTCUSDT", decimal.MustFromString("50000", decimal.ScaleAsset))

	return harness{executor: exec, council: c, client: client}
}

func decision(d domain.Decision, confidence string) *domain.ConsensusDecision {
	return &domain.ConsensusDecision{
		Symbol:     "BTCUSDT",
		Decision:   d,
		Confidence: decimal.MustFromString(confidence, decimal.ScalePercent),
	}
}

func TestExecuteHoldShortCircuits(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	out := h.executor.Execute(context.Background(), h.council, decision(domain.DecisionHold, "0.9"), h.client, nil)
	require.True(t, out.Success)
	require.False(t, out.WasExecuted)
	require.Equal(t, "hold_decision", out.Reason)
}

func TestExecuteLowConfidenceShortCircuits(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	out := h.executor.Execute(context.Background(), h.council, decision(domain.DecisionBuy, "0.1"), h.client, nil)
	require.True(t, out.Success)
	require.False(t, out.WasExecuted)
	require.Equal(t, "low_confidence", out.Reason)
}

func TestExecuteUnknownDecisionFails(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	out := h.executor.Execute(context.Background(), h.council, decision(domain.Decision("WAT"), "0.9"), h.client, nil)
	require.False(t, out.Success)
	require.Equal(t, "unknown_decision", out.Reason)
	require.Error(t, out.Err)
}
