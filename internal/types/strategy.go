package types

import "strings"

// Strategy names a scoring approach.
type Strategy string

const (
	StrategyRuleBased Strategy = "rule_based"
	StrategyMLModel   Strategy = "ml_model"
	StrategyLLM       Strategy = "llm"
)

var strategyAliases = map[string]Strategy{
	"rule_based":  StrategyRuleBased,
	"rulebased":   StrategyRuleBased,
	"rule":        StrategyRuleBased,
	"rules":       StrategyRuleBased,
	"ml_model":    StrategyMLModel,
	"mlmodel":     StrategyMLModel,
	"ml":          StrategyMLModel,
	"model":       StrategyMLModel,
	"lstm":        StrategyMLModel,
	"transformer": StrategyMLModel,
	"llm":         StrategyLLM,
	"gemini":      StrategyLLM,
	"ai":          StrategyLLM,
}

// LookupStrategy resolves a user supplied strategy token.
func LookupStrategy(token string) (Strategy, bool) {
	key := strings.ToLower(strings.TrimSpace(token))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	s, ok := strategyAliases[key]
	return s, ok
}

// ParseStrategy resolves token, treating anything unrecognised as rule based.
func ParseStrategy(token string) Strategy {
	if s, ok := LookupStrategy(token); ok {
		return s
	}
	return StrategyRuleBased
}

func (s Strategy) String() string {
	return string(s)
}
