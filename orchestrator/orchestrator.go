// Package orchestrator runs the per-council scheduling loop: one
// independent task per council, each repeating portfolio snapshot ->
// agent debate -> consensus -> trade execution -> metrics recompute
// on a fixed interval, with its own failure backoff.
package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pantheonelite/gocouncil/agents/registry"
	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/currency/pair"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/repository/consensusdecision"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/councilrun"
	"github.com/pantheonelite/gocouncil/database/repository/councilruncycle"
	"github.com/pantheonelite/gocouncil/database/repository/debatemessage"
	"github.com/pantheonelite/gocouncil/database/repository/futuresposition"
	"github.com/pantheonelite/gocouncil/database/repository/order"
	"github.com/pantheonelite/gocouncil/database/repository/pnlsnapshot"
	"github.com/pantheonelite/gocouncil/database/repository/spotholding"
	"github.com/pantheonelite/gocouncil/debate"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
	"github.com/pantheonelite/gocouncil/llm"
	"github.com/pantheonelite/gocouncil/log"
	"github.com/pantheonelite/gocouncil/metrics"
	"github.com/pantheonelite/gocouncil/portfolio"
	"github.com/pantheonelite/gocouncil/trading"
)

// State is one council control loop's lifecycle state.
type State string

const (
	StateIdle     State = "IDLE"
	StateStarting State = "STARTING"
	StateRunning  State = "RUNNING"
	StateStopping State = "STOPPING"
	StateStopped  State = "STOPPED"
)

// Default scheduling knobs.
const (
	DefaultScheduleInterval = 14400 * time.Second
	DefaultErrorBackoff     = 60 * time.Second
)

// Sink is the optional external broadcast hook: failures publishing
// to it are logged and swallowed, never surfaced to the cycle.
type Sink interface {
	Publish(topic string, payload any) error
}

// task tracks one running council's control loop.
type task struct {
	stopCh chan struct{}
}

// Orchestrator owns one control loop per active council. All fields
// besides the embedded lock may be set directly after NewOrchestrator
// returns, before Start is called.
type Orchestrator struct {
	DB       *database.Instance
	Facade   *llm.Facade
	VenueFor func(*domain.Council) venue.Client

	Symbols            []string
	ScheduleInterval   time.Duration
	ErrorBackoff       time.Duration
	ConsensusThreshold string
	MinConfidence      string
	MaxPositionPct     string
	Broadcast          Sink

	mu     sync.Mutex
	tasks  map[int64]*task
	states map[int64]State
	wg     sync.WaitGroup
}

// NewOrchestrator builds an Orchestrator at its documented defaults.
// Callers override Symbols/Broadcast/thresholds before calling Start.
func NewOrchestrator(db *database.Instance, facade *llm.Facade, venueFor func(*domain.Council) venue.Client) *Orchestrator {
	return &Orchestrator{
		DB:                 db,
		Facade:             facade,
		VenueFor:           venueFor,
		ScheduleInterval:   DefaultScheduleInterval,
		ErrorBackoff:       DefaultErrorBackoff,
		ConsensusThreshold: debate.DefaultThreshold,
		MinConfidence:      trading.DefaultMinConfidence,
		MaxPositionPct:     trading.DefaultMaxPositionPct,
		tasks:              make(map[int64]*task),
		states:             make(map[int64]State),
	}
}

// State returns the current lifecycle state of councilID's loop, or
// StateIdle if no loop has ever been started for it.
func (o *Orchestrator) State(councilID int64) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[councilID]; ok {
		return s
	}
	return StateIdle
}

func (o *Orchestrator) setState(councilID int64, s State) {
	o.mu.Lock()
	o.states[councilID] = s
	o.mu.Unlock()
}

// Start loads councils (all system councils when councilIDs is empty,
// or exactly those ids) and spawns one independent control loop per
// council. It returns once every loop has been spawned; the loops
// themselves run until Stop is called.
func (o *Orchestrator) Start(ctx context.Context, councilIDs []int64) error {
	councils, err := o.loadCouncils(ctx, councilIDs)
	if err != nil {
		return fmt.Errorf("orchestrator: load councils: %w", err)
	}
	for _, c := range councils {
		o.startCouncil(ctx, c)
	}
	return nil
}

func (o *Orchestrator) loadCouncils(ctx context.Context, ids []int64) ([]*domain.Council, error) {
	var councils []*domain.Council
	err := o.withTx(ctx, func(tx *sql.Tx) error {
		repo := council.New(tx)
		var err error
		if len(ids) == 0 {
			councils, err = repo.ListSystem()
		} else {
			councils, err = repo.ListByIDs(ids)
		}
		return err
	})
	return councils, err
}

func (o *Orchestrator) startCouncil(ctx context.Context, c *domain.Council) {
	o.setState(c.ID, StateStarting)
	t := &task{stopCh: make(chan struct{})}

	o.mu.Lock()
	o.tasks[c.ID] = t
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.setState(c.ID, StateRunning)
		o.runLoop(ctx, c, t)
		o.setState(c.ID, StateStopped)
	}()
}

// Stop flips every running council's flag and blocks until each loop
// has observed it and exited. A council's in-flight cycle always
// completes first; stop never aborts mid-cycle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	for id, t := range o.tasks {
		o.states[id] = StateStopping
		close(t.stopCh)
	}
	o.tasks = make(map[int64]*task)
	o.mu.Unlock()
	o.wg.Wait()
}

// runLoop is the per-council control loop: run one cycle, back off
// ErrorBackoff (DefaultErrorBackoff when unset) on failure, sleep
// ScheduleInterval on success,
// and observe the stop signal only between cycles.
func (o *Orchestrator) runLoop(ctx context.Context, c *domain.Council, t *task) {
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		if err := o.runCycle(ctx, c); err != nil {
			log.Orchestrator.Error(ctx, "cycle failed", "council_id", c.ID, "error", err)
			if !sleepOrStop(o.errorBackoff(), t.stopCh) {
				return
			}
			continue
		}

		if !sleepOrStop(o.scheduleInterval(), t.stopCh) {
			return
		}
	}
}

func (o *Orchestrator) errorBackoff() time.Duration {
	if o.ErrorBackoff <= 0 {
		return DefaultErrorBackoff
	}
	return o.ErrorBackoff
}

func (o *Orchestrator) scheduleInterval() time.Duration {
	if o.ScheduleInterval <= 0 {
		return DefaultScheduleInterval
	}
	return o.ScheduleInterval
}

// sleepOrStop waits for d or the stop signal, whichever comes first;
// it returns false when the stop signal fired.
func sleepOrStop(d time.Duration, stop <-chan struct{}) bool {
	select {
	case <-time.After(d):
		return true
	case <-stop:
		return false
	}
}

// withTx runs fn inside a fresh transaction committed at its own
// checkpoint; fn's error rolls the transaction back.
func (o *Orchestrator) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := o.DB.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("orchestrator: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("orchestrator: commit: %w", err)
	}
	return nil
}

// runCycle runs exactly one cycle for c: create the CouncilRun and
// CouncilRunCycle records, run the pipeline below, and mark both
// COMPLETED or FAILED.
func (o *Orchestrator) runCycle(ctx context.Context, c *domain.Council) error {
	run := &domain.CouncilRun{CouncilID: c.ID, UserID: c.OwnerID, TradingMode: c.TradingMode, Symbols: o.symbols()}
	if err := o.withTx(ctx, func(tx *sql.Tx) error {
		return councilrun.New(tx).Create(run)
	}); err != nil {
		return fmt.Errorf("orchestrator: create run: %w", err)
	}

	cycle := &domain.CouncilRunCycle{CouncilID: c.ID, RunID: run.ID, TriggerReason: "scheduled"}
	if err := o.withTx(ctx, func(tx *sql.Tx) error {
		return councilruncycle.New(tx).Create(cycle)
	}); err != nil {
		return fmt.Errorf("orchestrator: create cycle: %w", err)
	}

	cycleErr := o.executeCycle(ctx, c, run, cycle)

	if cycleErr != nil {
		if err := o.withTx(ctx, func(tx *sql.Tx) error { return councilruncycle.New(tx).Fail(cycle) }); err != nil {
			log.Orchestrator.Error(ctx, "failed to mark cycle failed", "council_id", c.ID, "error", err)
		}
		if err := o.withTx(ctx, func(tx *sql.Tx) error { return councilrun.New(tx).Fail(run, cycleErr) }); err != nil {
			log.Orchestrator.Error(ctx, "failed to mark run failed", "council_id", c.ID, "error", err)
		}
		return cycleErr
	}

	if err := o.withTx(ctx, func(tx *sql.Tx) error { return councilruncycle.New(tx).Complete(cycle) }); err != nil {
		return fmt.Errorf("orchestrator: complete cycle: %w", err)
	}
	if err := o.withTx(ctx, func(tx *sql.Tx) error { return councilrun.New(tx).Complete(run) }); err != nil {
		return fmt.Errorf("orchestrator: complete run: %w", err)
	}
	return nil
}

func (o *Orchestrator) symbols() []string {
	raw := o.Symbols
	if len(raw) == 0 {
		raw = DefaultSymbols
	}
	normalized := make([]string, len(raw))
	for i, s := range raw {
		normalized[i] = string(pair.NewCurrencyPairFromString(s).Pair().Upper())
	}
	return normalized
}

// DefaultSymbols is the symbol universe used when a council's config
// carries none of its own (the council data model has no per-council
// symbol list field; see DESIGN.md).
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

// executeCycle runs the full pipeline for one cycle: portfolio
// snapshot, agent debate, consensus, trade execution, metrics
// recompute. Each stage commits at its own checkpoint.
func (o *Orchestrator) executeCycle(ctx context.Context, c *domain.Council, run *domain.CouncilRun, cycle *domain.CouncilRunCycle) error {
	symbols := o.symbols()
	client := o.VenueFor(c)

	prices := make(map[string]decimal.Money, len(symbols))
	for _, sym := range symbols {
		price, err := client.GetTicker(ctx, sym)
		if err != nil {
			log.Orchestrator.Warn(ctx, "ticker fetch failed", "council_id", c.ID, "symbol", sym, "error", err)
			continue
		}
		prices[sym] = price
	}

	var snap portfolio.Snapshot
	if err := o.withTx(ctx, func(tx *sql.Tx) error {
		snap = portfolio.Build(c, symbols, futuresposition.New(tx), prices)
		return nil
	}); err != nil {
		return fmt.Errorf("portfolio snapshot: %w", err)
	}

	profiles, err := o.resolveRoster(c)
	if err != nil {
		return fmt.Errorf("agent roster: %w", err)
	}

	var results []llm.Result
	if err := o.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		results, err = o.Facade.Invoke(ctx, profiles, symbols, c, snap, debatemessage.New(tx))
		if err == nil {
			err = councilruncycle.New(tx).IncrementCounters(cycle.ID, len(results), len(symbols), decimal.Zero(decimal.ScaleUSD))
		}
		return err
	}); err != nil {
		return fmt.Errorf("agent invocation: %w", err)
	}

	signalsBySymbol := make(map[string][]debate.AgentSignal, len(symbols))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		sym := r.Invocation.Symbol
		signalsBySymbol[sym] = append(signalsBySymbol[sym], debate.AgentSignal{AgentKey: r.Invocation.Profile.AgentKey, Signal: r.Signal})
	}

	engine, err := debate.NewEngine(o.ConsensusThreshold)
	if err != nil {
		return fmt.Errorf("consensus engine: %w", err)
	}

	var decisions []*domain.ConsensusDecision
	if err := o.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		decisions, err = engine.Run(c.ID, run.ID, cycle.ID, signalsBySymbol, consensusdecision.New(tx), debatemessage.New(tx))
		return err
	}); err != nil {
		return fmt.Errorf("consensus: %w", err)
	}

	executed, skipped := o.executeTrades(ctx, c, decisions, client)

	if err := o.withTx(ctx, func(tx *sql.Tx) error {
		eng := metrics.NewEngine(council.New(tx), futuresposition.New(tx), spotholding.New(tx), order.New(tx), consensusdecision.New(tx), pnlsnapshot.New(tx))
		return eng.Recompute(c, prices)
	}); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	cycle.AnalystSignals = signalsSummary(results)
	cycle.TradingDecisions = decisionsSummary(decisions)
	cycle.ExecutedTrades = tradesSummary(executed, skipped)
	cycle.PortfolioSnapshot = portfolioSummary(snap)
	cycle.PerformanceMetrics = metricsSummary(c)
	return nil
}

// resolveRoster filters c's configured roster to recognized profiles,
// logging unrecognized keys, then orders them by the council's
// connections graph.
func (o *Orchestrator) resolveRoster(c *domain.Council) ([]registry.Profile, error) {
	profiles, unrecognized := registry.Resolve(c.Config.Agents)
	for _, key := range unrecognized {
		log.Orchestrator.Warn(context.Background(), "unrecognized agent_key ignored", "council_id", c.ID, "agent_key", key)
	}
	if len(profiles) == 0 {
		return profiles, nil
	}

	keys := make([]string, len(profiles))
	byKey := make(map[string]registry.Profile, len(profiles))
	for i, p := range profiles {
		keys[i] = p.AgentKey
		byKey[p.AgentKey] = p
	}
	ordered, err := registry.TopoSort(keys, c.Config.Connections)
	if err != nil {
		return nil, err
	}
	for i, k := range ordered {
		profiles[i] = byKey[k]
	}
	return profiles, nil
}

// executeTrades dispatches each decision in its own transaction so
// every trade commits at its own checkpoint, without aborting the
// cycle on a single trade's failure.
func (o *Orchestrator) executeTrades(ctx context.Context, c *domain.Council, decisions []*domain.ConsensusDecision, client venue.Client) ([]trading.ExecutedTrade, []trading.SkippedTrade) {
	var executed []trading.ExecutedTrade
	var skipped []trading.SkippedTrade

	for _, d := range decisions {
		var outcome trading.Outcome
		err := o.withTx(ctx, func(tx *sql.Tx) error {
			ex := trading.NewExecutor(council.New(tx), futuresposition.New(tx), spotholding.New(tx), order.New(tx))
			if t, parseErr := decimal.FromString(o.minConfidence(), decimal.ScalePercent); parseErr == nil {
				ex.MinConfidence = t
			}
			if t, parseErr := decimal.FromString(o.maxPositionPct(), decimal.ScalePercent); parseErr == nil {
				ex.MaxPositionPct = t
			}
			outcome = ex.Execute(ctx, c, d, client, nil)
			return nil
		})
		if err != nil {
			log.Orchestrator.Error(ctx, "trade transaction failed", "council_id", c.ID, "symbol", d.Symbol, "error", err)
			skipped = append(skipped, trading.SkippedTrade{Symbol: d.Symbol, Decision: d.Decision, Reason: "transaction_failure"})
			continue
		}

		if outcome.WasExecuted {
			executed = append(executed, trading.ExecutedTrade{Symbol: d.Symbol, Decision: d.Decision, Outcome: outcome})
		} else {
			if outcome.Err != nil {
				log.Orchestrator.Warn(ctx, "trade not executed", "council_id", c.ID, "symbol", d.Symbol, "reason", outcome.Reason, "error", outcome.Err)
			}
			skipped = append(skipped, trading.SkippedTrade{Symbol: d.Symbol, Decision: d.Decision, Reason: outcome.Reason})
		}

		o.publishConsensus(ctx, c, d)
	}
	return executed, skipped
}

func (o *Orchestrator) minConfidence() string {
	if o.MinConfidence == "" {
		return trading.DefaultMinConfidence
	}
	return o.MinConfidence
}

func (o *Orchestrator) maxPositionPct() string {
	if o.MaxPositionPct == "" {
		return trading.DefaultMaxPositionPct
	}
	return o.MaxPositionPct
}

// publishConsensus emits the broadcast hook event for one decision;
// sink failures are logged and swallowed.
func (o *Orchestrator) publishConsensus(ctx context.Context, c *domain.Council, d *domain.ConsensusDecision) {
	if o.Broadcast == nil {
		return
	}
	payload := map[string]any{
		"council_id": c.ID,
		"symbol":     d.Symbol,
		"decision":   d.Decision,
		"confidence": d.Confidence.ToFloat64ForBroadcast(),
		"reason":     d.ExecutionReason,
	}
	if err := o.Broadcast.Publish("consensus", payload); err != nil {
		log.Orchestrator.Warn(ctx, "broadcast publish failed", "council_id", c.ID, "error", err)
	}
}
