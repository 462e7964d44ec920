package debate_test

import (
	"os"
	"testing"

	"github.com/pantheonelite/gocouncil/agents"
	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/database/repository/consensusdecision"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/councilrun"
	"github.com/pantheonelite/gocouncil/database/repository/councilruncycle"
	"github.com/pantheonelite/gocouncil/database/repository/debatemessage"
	"github.com/pantheonelite/gocouncil/database/testhelpers"
	"github.com/pantheonelite/gocouncil/debate"
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

func setup(t *testing.T) (int64, int64, int64, *consensusdecision.Repository, *debatemessage.Repository) {
	conn := connectSQLite(t)
	tx, err := conn.SQL.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })

	c := &domain.Council{Name: "c1", TradingMode: domain.TradingModePaper, TradingType: domain.TradingTypeSpot}
	require.NoError(t, council.New(tx).Create(c))
	run := &domain.CouncilRun{CouncilID: c.ID, TradingMode: domain.TradingModePaper}
	require.NoError(t, councilrun.New(tx).Create(run))
	cycle := &domain.CouncilRunCycle{CouncilID: c.ID, RunID: run.ID}
	require.NoError(t, councilruncycle.New(tx).Create(cycle))

	return c.ID, run.ID, cycle.ID, consensusdecision.New(tx), debatemessage.New(tx)
}

func sig(direction agents.Direction, confidence string) agents.Signal {
	return agents.Signal{Direction: direction, Confidence: decimal.MustFromString(confidence, decimal.ScalePercent)}
}

func TestRunReachesBuyConsensusAboveThreshold(t *testing.T) {
	councilID, runID, cycleID, decisions, messages := setup(t)

	e, err := debate.NewEngine("0.6")
	require.NoError(t, err)

	signals := map[string][]debate.AgentSignal{
		"BTCUSDT": {
			{AgentKey: "a1", Signal: sig(agents.DirectionLong, "0.8")},
			{AgentKey: "a2", Signal: sig(agents.DirectionLong, "0.6")},
			{AgentKey: "a3", Signal: sig(agents.DirectionShort, "0.5")},
		},
	}
	out, err := e.Run(councilID, runID, cycleID, signals, decisions, messages)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, domain.DecisionBuy, out[0].Decision)
	require.Equal(t, "pending", out[0].ExecutionReason)

	recent, err := messages.Recent(councilID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, domain.MessageTypeConsensus, recent[0].MessageType)
}

func TestRunHoldsBelowThreshold(t *testing.T) {
	councilID, runID, cycleID, decisions, messages := setup(t)

	e, err := debate.NewEngine("0.6")
	require.NoError(t, err)

	signals := map[string][]debate.AgentSignal{
		"ETHUSDT": {
			{AgentKey: "a1", Signal: sig(agents.DirectionLong, "0.7")},
			{AgentKey: "a2", Signal: sig(agents.DirectionShort, "0.7")},
		},
	}
	out, err := e.Run(councilID, runID, cycleID, signals, decisions, messages)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, domain.DecisionHold, out[0].Decision)
	require.Equal(t, "hold_decision", out[0].ExecutionReason)
}

func TestRunSkipsEmptySymbols(t *testing.T) {
	councilID, runID, cycleID, decisions, messages := setup(t)

	e, err := debate.NewEngine("")
	require.NoError(t, err)

	out, err := e.Run(councilID, runID, cycleID, map[string][]debate.AgentSignal{"BTCUSDT": {}}, decisions, messages)
	require.NoError(t, err)
	require.Len(t, out, 0)
}
