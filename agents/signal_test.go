package agents_test

import (
	"testing"

	"github.com/pantheonelite/gocouncil/agents"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSignalMapsRawFields(t *testing.T) {
	for _, tc := range []struct {
		raw       string
		action    agents.Action
		direction agents.Direction
		sentiment agents.Sentiment
	}{
		{"BUY", agents.ActionBuy, agents.DirectionLong, agents.SentimentBullish},
		{"STRONG_BUY", agents.ActionBuy, agents.DirectionLong, agents.SentimentBullish},
		{"LONG", agents.ActionBuy, agents.DirectionLong, agents.SentimentBullish},
		{"SELL", agents.ActionSell, agents.DirectionShort, agents.SentimentBearish},
		{"SHORT", agents.ActionSell, agents.DirectionShort, agents.SentimentBearish},
		{"HOLD", agents.ActionHold, agents.DirectionNone, agents.SentimentNeutral},
		{"NEUTRAL", agents.ActionHold, agents.DirectionNone, agents.SentimentNeutral},
		{"gibberish", agents.ActionHold, agents.DirectionNone, agents.SentimentNeutral},
	} {
		sig := agents.NormalizeSignal(tc.raw, 0.75, "because")
		require.Equal(t, tc.action, sig.Action, tc.raw)
		require.Equal(t, tc.direction, sig.Direction, tc.raw)
		require.Equal(t, tc.sentiment, sig.Sentiment, tc.raw)
	}
}

func TestNormalizeSignalRescalesConfidence(t *testing.T) {
	sig := agents.NormalizeSignal("BUY", 75, "strong breakout")
	require.Equal(t, "0.7500", sig.Confidence.String())

	sig = agents.NormalizeSignal("BUY", 0.75, "strong breakout")
	require.Equal(t, "0.7500", sig.Confidence.String())
}

func TestNormalizeSignalClampsOutOfRangeConfidence(t *testing.T) {
	sig := agents.NormalizeSignal("BUY", -5, "bad input")
	require.True(t, sig.Confidence.IsZero())

	sig = agents.NormalizeSignal("BUY", 1000, "bad input")
	require.Equal(t, "1.0000", sig.Confidence.String())
}
