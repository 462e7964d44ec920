// Package domain holds the entity types shared by every repository,
// the debate/consensus engine, the trading executor, and the metrics
// engine — the council's persisted data model.
package domain

import (
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
)

// TradingMode selects paper (simulated) vs real (live venue) execution.
type TradingMode string

const (
	TradingModePaper TradingMode = "paper"
	TradingModeReal  TradingMode = "real"
)

// TradingType selects the trading style a council runs.
type TradingType string

const (
	TradingTypeFutures TradingType = "futures"
	TradingTypeSpot    TradingType = "spot"
)

// PositionSide is the directional side of a futures position.
type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
	PositionSideBoth  PositionSide = "BOTH"
)

// MarginType is the futures margin mode.
type MarginType string

const (
	MarginTypeIsolated MarginType = "ISOLATED"
	MarginTypeCrossed  MarginType = "CROSSED"
)

// PositionStatus is the lifecycle state of a FuturesPosition.
type PositionStatus string

const (
	PositionStatusOpen       PositionStatus = "OPEN"
	PositionStatusClosed     PositionStatus = "CLOSED"
	PositionStatusLiquidated PositionStatus = "LIQUIDATED"
)

// HoldingStatus is the lifecycle state of a SpotHolding.
type HoldingStatus string

const (
	HoldingStatusActive HoldingStatus = "ACTIVE"
	HoldingStatusClosed HoldingStatus = "CLOSED"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType enumerates the supported order types.
type OrderType string

const (
	OrderTypeMarket            OrderType = "MARKET"
	OrderTypeLimit             OrderType = "LIMIT"
	OrderTypeStop              OrderType = "STOP"
	OrderTypeStopMarket        OrderType = "STOP_MARKET"
	OrderTypeTakeProfit        OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitMarket  OrderType = "TAKE_PROFIT_MARKET"
)

// OrderStatus is the venue-reported lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// RunStatus is the lifecycle state of a CouncilRun.
type RunStatus string

const (
	RunStatusIdle       RunStatus = "IDLE"
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
)

// CycleStatus is the lifecycle state of a CouncilRunCycle.
type CycleStatus string

const (
	CycleStatusInProgress CycleStatus = "IN_PROGRESS"
	CycleStatusCompleted  CycleStatus = "COMPLETED"
	CycleStatusFailed     CycleStatus = "FAILED"
)

// Decision is the directional outcome of a ConsensusDecision.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// MessageType classifies an AgentDebateMessage by the role that
// produced it.
type MessageType string

const (
	MessageTypeAnalysis           MessageType = "analysis"
	MessageTypeTechnicalAnalysis  MessageType = "technical_analysis"
	MessageTypeSentimentAnalysis  MessageType = "sentiment_analysis"
	MessageTypePersonaAnalysis    MessageType = "persona_analysis"
	MessageTypeRiskAnalysis       MessageType = "risk_analysis"
	MessageTypeConsensus          MessageType = "consensus"
)

// Sentiment is the tone of an AgentDebateMessage.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// AgentRef names one configured agent within a council's roster.
type AgentRef struct {
	AgentKey string `json:"agent_key"`
	Role     string `json:"role,omitempty"`
}

// ConnectionEdge is one edge of the agent connections graph used by
// non-system councils to order debate participation.
type ConnectionEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CouncilConfig is the council configuration blob: roster + graph.
type CouncilConfig struct {
	Agents      []AgentRef       `json:"agents"`
	Connections []ConnectionEdge `json:"connections"`
}

// HoldTimeSplit is the long/short/flat hold-time percentage triple,
// always summing to 100 (within rounding tolerance).
type HoldTimeSplit struct {
	LongPct  decimal.Money `json:"long_hold_pct"`
	ShortPct decimal.Money `json:"short_hold_pct"`
	FlatPct  decimal.Money `json:"flat_hold_pct"`
}

// Council is the persistent configuration and capital book driving one
// orchestrator loop.
type Council struct {
	ID       int64
	OwnerID  *int64
	Name     string
	Config   CouncilConfig
	Provider string
	Model    string

	TradingMode TradingMode
	TradingType TradingType

	InitialCapital   decimal.Money
	AvailableBalance decimal.Money
	UsedBalance      decimal.Money
	TotalAccountValue decimal.Money

	RealizedPnL      decimal.Money
	UnrealizedProfit decimal.Money
	TotalFees        decimal.Money
	TotalFundingFees decimal.Money
	NetPnL           decimal.Money

	AverageLeverage   decimal.Money
	AverageConfidence decimal.Money
	BiggestWin        decimal.Money
	BiggestLoss       decimal.Money
	WinRate           decimal.Money

	OpenFuturesCount   int
	ClosedFuturesCount int
	ActiveSpotHoldings int

	HoldTime HoldTimeSplit

	// Legacy mirrored fields, kept byte-compatible with the original
	// source's column names.
	CurrentCapital      decimal.Money
	TotalPnL            decimal.Money
	TotalPnLPercentage  decimal.Money
	LegacyWinRate       decimal.Money
	TotalTrades         int

	IsSystem   bool
	IsPublic   bool
	IsTemplate bool

	WalletID     *int64
	ForkedFromID *int64

	LastExecutedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Wallet holds venue credentials for a council's live-mode trading.
// At most one exists per council.
type Wallet struct {
	ID              int64
	CouncilID       int64
	Exchange        string
	APIKey          string
	SecretKey       string
	ContractAddress *string
	CreatedAt       time.Time
}

// ExitPlan is an optional set of stop-loss/take-profit levels recorded
// on a FuturesPosition for the venue client to lift into working
// orders.
type ExitPlan struct {
	StopLoss     *decimal.Money `json:"stop_loss,omitempty"`
	TakeProfits  []TakeProfit   `json:"take_profits,omitempty"`
}

// TakeProfit is one take-profit level linked to its venue order id
// once placed.
type TakeProfit struct {
	Price       decimal.Money `json:"price"`
	Quantity    decimal.Money `json:"quantity"`
	VenueOrderID string       `json:"venue_order_id,omitempty"`
}

// FuturesPosition is a leveraged directional exposure in one symbol.
type FuturesPosition struct {
	ID     int64
	CouncilID int64
	Symbol string

	PositionSide PositionSide
	PositionAmt  decimal.Money // always >= 0; side carries direction

	EntryPrice       decimal.Money
	MarkPrice        decimal.Money
	LiquidationPrice decimal.Money

	Leverage   int
	MarginType MarginType

	IsolatedMargin decimal.Money
	Notional       decimal.Money

	UnrealizedProfit decimal.Money
	RealizedPnL      decimal.Money
	FeesPaid         decimal.Money
	FundingFees      decimal.Money

	Status PositionStatus

	ExitPlan *ExitPlan

	OpenedAt time.Time
	ClosedAt *time.Time

	Platform    string
	TradingMode TradingMode
}

// SpotHolding is an unleveraged balance of a base asset against a
// quote asset.
type SpotHolding struct {
	ID     int64
	CouncilID int64
	Symbol string

	BaseAsset  string
	QuoteAsset string

	Free   decimal.Money
	Locked decimal.Money
	Total  decimal.Money

	AverageCost decimal.Money
	TotalCost   decimal.Money

	Status HoldingStatus

	Platform    string
	TradingMode TradingMode

	OpenedAt time.Time
	ClosedAt *time.Time
}

// Order is the unified record for both futures and spot executions.
type Order struct {
	ID     int64
	CouncilID int64
	Symbol string

	Side         OrderSide
	Type         OrderType
	PositionSide *PositionSide

	OrigQty     decimal.Money
	ExecutedQty decimal.Money

	Price     *decimal.Money
	StopPrice *decimal.Money
	AvgPrice  *decimal.Money

	Status OrderStatus

	FuturesPositionID *int64
	SpotHoldingID     *int64

	Commission      *decimal.Money
	CommissionAsset *string

	Platform    string
	TradingMode TradingMode
	TradingType TradingType

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PnLSnapshot is one time-series point tying a FuturesPosition or
// SpotHolding to its mark-to-market state.
type PnLSnapshot struct {
	ID     int64
	CouncilID int64

	FuturesPositionID *int64
	SpotHoldingID     *int64

	SnapshotTime time.Time

	MarkPrice      decimal.Money
	NotionalValue  decimal.Money
	UnrealizedPnL  decimal.Money
	PnLPercentage  decimal.Money

	LiquidationDistancePct *decimal.Money
	MarginRatio            *decimal.Money
}

// CouncilPerformanceSnapshot is the per-cycle account-level snapshot
// produced by the Metrics Engine.
type CouncilPerformanceSnapshot struct {
	ID            int64
	CouncilID     int64
	Timestamp     time.Time
	TotalValue    decimal.Money
	PnL           decimal.Money
	PnLPercentage decimal.Money
	WinRate       decimal.Money
	TotalTrades   int
	OpenPositions int
}

// CouncilRun is one orchestrator-invoked cycle.
type CouncilRun struct {
	ID          int64
	CouncilID   int64
	UserID      *int64
	TradingMode TradingMode
	Symbols     []string

	Status RunStatus

	StartedAt   time.Time
	CompletedAt *time.Time

	RunNumber int

	RequestBlob map[string]any
	ResultBlob  map[string]any

	ErrorMessage string
}

// CouncilRunCycle is the sub-phase record capturing one cycle's
// intermediate artifacts and counters.
type CouncilRunCycle struct {
	ID        int64
	CouncilID int64
	RunID     int64

	AnalystSignals     map[string]any
	TradingDecisions   map[string]any
	ExecutedTrades     map[string]any
	PortfolioSnapshot  map[string]any
	PerformanceMetrics map[string]any

	Status CycleStatus

	TriggerReason string

	LLMCalls int
	APICalls int

	EstimatedCost decimal.Money

	StartedAt   time.Time
	CompletedAt *time.Time
}

// AgentVoteCounts tallies the raw vote distribution behind one
// ConsensusDecision.
type AgentVoteCounts struct {
	VotesBuy   int `json:"votes_buy"`
	VotesSell  int `json:"votes_sell"`
	VotesHold  int `json:"votes_hold"`
	TotalVotes int `json:"total_votes"`
}

// ConsensusDecision is the per-symbol aggregation of agent signals
// into a directional decision.
type ConsensusDecision struct {
	ID     int64
	CouncilID int64
	RunID     int64
	CycleID   int64
	Symbol    string

	Decision   Decision
	Confidence decimal.Money

	Votes AgentVoteCounts

	AgentVotes map[string]string

	MarketPrice      decimal.Money
	MarketConditions map[string]any

	WasExecuted bool
	OrderID     *int64

	ExecutionReason string

	CreatedAt time.Time
}

// AgentDebateMessage is one append-only entry in a council's debate
// stream.
type AgentDebateMessage struct {
	ID        int64
	CouncilID int64

	AgentName   string
	MessageType MessageType
	Sentiment   Sentiment

	MarketSymbol string
	Confidence   decimal.Money

	Message string

	DebateRound int

	CreatedAt time.Time
}
