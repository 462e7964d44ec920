// Package agents holds the signal contract every configured agent
// produces and the normalization that maps whatever field
// an LLM happened to use onto it.
package agents

import (
	"strconv"
	"strings"

	"github.com/pantheonelite/gocouncil/common/decimal"
)

// Action is the normalized buy/sell/hold action of a Signal.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Direction is the normalized directional bias of a Signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionNone  Direction = "NONE"
)

// Sentiment is the normalized tone of a Signal.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// TakeProfitLevel is one take-profit leg an agent may propose.
type TakeProfitLevel struct {
	Price    decimal.Money
	Quantity decimal.Money
}

// Signal is the output contract per agent invocation.
type Signal struct {
	Action      Action
	Direction   Direction
	Sentiment   Sentiment
	Confidence  decimal.Money // always in [0,1] after normalization
	Reasoning   string
	MessageType string

	Leverage     *int
	StopLoss     *decimal.Money
	EntryPrice   *decimal.Money
	TakeProfits  []TakeProfitLevel
	PositionSize *decimal.Money
}

// normalizeRaw maps whatever label the raw model output used for its
// directional call: action, signal, or recommendation are all
// accepted.
func normalizeRaw(raw string) (Action, Direction) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY", "STRONG_BUY", "LONG":
		return ActionBuy, DirectionLong
	case "SELL", "STRONG_SELL", "SHORT":
		return ActionSell, DirectionShort
	case "HOLD", "NEUTRAL":
		return ActionHold, DirectionNone
	default:
		return ActionHold, DirectionNone
	}
}

// NormalizeSignal builds a Signal from a raw model field (any of
// action/signal/recommendation) and a raw confidence value that may
// arrive as 0–1 or 0–100.
func NormalizeSignal(rawField string, rawConfidence float64, reasoning string) Signal {
	action, direction := normalizeRaw(rawField)
	return Signal{
		Action:     action,
		Direction:  direction,
		Sentiment:  sentimentFromDirection(direction),
		Confidence: rescaleConfidence(rawConfidence),
		Reasoning:  reasoning,
	}
}

func sentimentFromDirection(d Direction) Sentiment {
	switch d {
	case DirectionLong:
		return SentimentBullish
	case DirectionShort:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// rescaleConfidence maps a confidence value that may have been
// reported on a 0–100 scale down to 0–1.
func rescaleConfidence(raw float64) decimal.Money {
	if raw > 1 {
		raw /= 100
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return decimal.MustFromString(strconv.FormatFloat(raw, 'f', -1, 64), decimal.ScalePercent)
}
