// Package registry maps each recognized agent_key to its profile and
// orders a council's roster, replacing dynamic dispatch by agent_key
// with a tagged lookup table.
package registry

import (
	"fmt"

	"github.com/pantheonelite/gocouncil/domain"
)

// Profile is the static behavior tag attached to one agent_key: the
// persona it plays and the debate message_type it produces, one of
// the technical/sentiment/persona/risk_analysis categories.
type Profile struct {
	AgentKey    string
	Role        string
	MessageType domain.MessageType
}

// profiles enumerates every recognized agent_key. Unknown
// keys are not registered here and are ignored with a warning by the
// caller.
var profiles = map[string]Profile{
	"satoshi_nakamoto": {"satoshi_nakamoto", "persona", domain.MessageTypePersonaAnalysis},
	"vitalik_buterin":  {"vitalik_buterin", "persona", domain.MessageTypePersonaAnalysis},
	"michael_saylor":   {"michael_saylor", "persona", domain.MessageTypePersonaAnalysis},
	"cz_binance":       {"cz_binance", "persona", domain.MessageTypePersonaAnalysis},
	"elon_musk":        {"elon_musk", "persona", domain.MessageTypePersonaAnalysis},
	"defi_agent":       {"defi_agent", "persona", domain.MessageTypePersonaAnalysis},
	"crypto_technical": {"crypto_technical", "technical", domain.MessageTypeTechnicalAnalysis},
	"crypto_sentiment": {"crypto_sentiment", "sentiment", domain.MessageTypeSentimentAnalysis},
	"crypto_analyst":   {"crypto_analyst", "risk", domain.MessageTypeRiskAnalysis},
}

// Lookup returns the profile for agentKey and whether it is recognized.
func Lookup(agentKey string) (Profile, bool) {
	p, ok := profiles[agentKey]
	return p, ok
}

// Resolve filters a council's configured roster down to recognized
// profiles, in roster order, dropping (and letting the caller log)
// any unrecognized agent_key.
func Resolve(refs []domain.AgentRef) (resolved []Profile, unrecognized []string) {
	for _, ref := range refs {
		p, ok := Lookup(ref.AgentKey)
		if !ok {
			unrecognized = append(unrecognized, ref.AgentKey)
			continue
		}
		resolved = append(resolved, p)
	}
	return resolved, unrecognized
}

// TopoSort orders agent_keys by the council's connections graph;
// non-system councils interpret connections to drive execution
// order. Returns an error if the graph contains a cycle.
func TopoSort(agentKeys []string, edges []domain.ConnectionEdge) ([]string, error) {
	inDegree := make(map[string]int, len(agentKeys))
	adj := make(map[string][]string, len(agentKeys))
	known := make(map[string]bool, len(agentKeys))
	for _, k := range agentKeys {
		inDegree[k] = 0
		known[k] = true
	}
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		inDegree[e.Target]++
	}

	var queue []string
	for _, k := range agentKeys {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	ordered := make([]string, 0, len(agentKeys))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		ordered = append(ordered, n)
		for _, next := range adj[n] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) != len(agentKeys) {
		return nil, fmt.Errorf("registry: connections graph contains a cycle")
	}
	return ordered, nil
}
