package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/councilrun"
	"github.com/pantheonelite/gocouncil/database/testhelpers"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/llm"
	"github.com/pantheonelite/gocouncil/orchestrator"
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

// stubProvider always votes BUY at 80% confidence, mirroring the
// facade package's own test double.
type stubProvider struct{}

func (stubProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Field: "BUY", Confidence: 80, Reasoning: "breakout"}, nil
}

// failingProvider always errors, forcing every agent to its default
// hold signal.
type failingProvider struct{}

func (failingProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{}, errors.New("provider unavailable")
}

func newCouncil(t *testing.T, conn *database.Instance, tradingType domain.TradingType) *domain.Council {
	t.Helper()
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)

	c := &domain.Council{
		Name:        "orchestrated",
		Config:      domain.CouncilConfig{Agents: []domain.AgentRef{{AgentKey: "crypto_technical"}}},
		TradingMode: domain.TradingModePaper,
		TradingType: tradingType,
		IsSystem:    true,

		InitialCapital:    decimal.MustFromString("10000", decimal.ScaleUSD),
		AvailableBalance:  decimal.MustFromString("10000", decimal.ScaleUSD),
		TotalAccountValue: decimal.MustFromString("10000", decimal.ScaleUSD),
	}
	require.NoError(t, council.New(tx).Create(c))
	require.NoError(t, tx.Commit())
	return c
}

func TestOrchestratorRunsCycleAndCompletesRun(t *testing.T) {
	conn := connectSQLite(t)
	c := newCouncil(t, conn, domain.TradingTypeSpot)

	prices := map[string]decimal.Money{"BTCUSDT": decimal.MustFromString("50000", decimal.ScaleAsset)}
	venues := orchestrator.NewPaperVenues(1000, prices)
	facade := llm.NewFacade(stubProvider{}, 4)

	orch := orchestrator.NewOrchestrator(conn, facade, venues.For)
	orch.Symbols = []string{"BTCUSDT"}
	orch.ScheduleInterval = time.Hour
	orch.ErrorBackoff = time.Millisecond

	require.NoError(t, orch.Start(context.Background(), []int64{c.ID}))
	require.Eventually(t, func() bool {
		return orch.State(c.ID) == orchestrator.StateRunning
	}, 2*time.Second, 5*time.Millisecond)

	// The first cycle runs immediately; give it time to land before the
	// (hour-long) inter-cycle sleep begins.
	require.Eventually(t, func() bool {
		tx, err := conn.SQL.Begin()
		require.NoError(t, err)
		defer tx.Rollback()
		_, err = councilrun.New(tx).FindInProgress(c.ID)
		return errors.Is(err, errs.ErrNotFound)
	}, 2*time.Second, 10*time.Millisecond)

	orch.Stop()
	require.Equal(t, orchestrator.StateStopped, orch.State(c.ID))

	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	updated, err := council.New(tx).GetByID(c.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastExecutedAt)
	require.Equal(t, 1, updated.ActiveSpotHoldings)
}

// When every agent invocation fails, the facade still returns a
// (zeroed, Err-set) hold result for each; the orchestrator filters
// those out of signalsBySymbol entirely, so the consensus engine sees
// no signals at all and persists zero decisions. The cycle must still
// complete rather than get stuck, and metrics still recompute once.
func TestOrchestratorCompletesCycleWhenAllAgentsFail(t *testing.T) {
	conn := connectSQLite(t)
	c := newCouncil(t, conn, domain.TradingTypeSpot)

	prices := map[string]decimal.Money{"BTCUSDT": decimal.MustFromString("50000", decimal.ScaleAsset)}
	venues := orchestrator.NewPaperVenues(1000, prices)
	facade := llm.NewFacade(failingProvider{}, 4)

	orch := orchestrator.NewOrchestrator(conn, facade, venues.For)
	orch.Symbols = []string{"BTCUSDT"}
	orch.ScheduleInterval = time.Hour
	orch.ErrorBackoff = time.Millisecond

	require.NoError(t, orch.Start(context.Background(), []int64{c.ID}))
	require.Eventually(t, func() bool {
		return orch.State(c.ID) == orchestrator.StateRunning
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		tx, err := conn.SQL.Begin()
		require.NoError(t, err)
		defer tx.Rollback()
		_, err = councilrun.New(tx).FindInProgress(c.ID)
		return errors.Is(err, errs.ErrNotFound)
	}, 2*time.Second, 10*time.Millisecond)

	orch.Stop()
	require.Equal(t, orchestrator.StateStopped, orch.State(c.ID))

	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	updated, err := council.New(tx).GetByID(c.ID)
	require.NoError(t, err)
	require.Nil(t, updated.LastExecutedAt)
	require.Equal(t, 0, updated.ActiveSpotHoldings)
}

func TestOrchestratorBacksOffOnAgentConnectionCycle(t *testing.T) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)

	c := &domain.Council{
		Name: "cyclic",
		Config: domain.CouncilConfig{
			Agents: []domain.AgentRef{{AgentKey: "crypto_technical"}, {AgentKey: "crypto_sentiment"}},
			Connections: []domain.ConnectionEdge{
				{Source: "crypto_technical", Target: "crypto_sentiment"},
				{Source: "crypto_sentiment", Target: "crypto_technical"},
			},
		},
		TradingMode:       domain.TradingModePaper,
		TradingType:       domain.TradingTypeSpot,
		IsSystem:          true,
		InitialCapital:    decimal.MustFromString("10000", decimal.ScaleUSD),
		AvailableBalance:  decimal.MustFromString("10000", decimal.ScaleUSD),
		TotalAccountValue: decimal.MustFromString("10000", decimal.ScaleUSD),
	}
	require.NoError(t, council.New(tx).Create(c))
	require.NoError(t, tx.Commit())

	venues := orchestrator.NewPaperVenues(1000, map[string]decimal.Money{"BTCUSDT": decimal.MustFromString("50000", decimal.ScaleAsset)})
	facade := llm.NewFacade(stubProvider{}, 4)

	orch := orchestrator.NewOrchestrator(conn, facade, venues.For)
	orch.Symbols = []string{"BTCUSDT"}
	orch.ScheduleInterval = time.Hour
	orch.ErrorBackoff = 10 * time.Millisecond

	require.NoError(t, orch.Start(context.Background(), []int64{c.ID}))

	// A cyclic connections graph fails every cycle; the loop must keep
	// retrying on the short error backoff rather than getting stuck.
	require.Eventually(t, func() bool {
		return orch.State(c.ID) == orchestrator.StateRunning
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	orch.Stop()
	require.Equal(t, orchestrator.StateStopped, orch.State(c.ID))

	tx2, err := conn.SQL.Begin()
	require.NoError(t, err)
	defer tx2.Rollback()
	_, err = councilrun.New(tx2).FindInProgress(c.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
