package segmenter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeywordRule maps a set of case-insensitive substring keywords to a
// metadata value. Rules are evaluated in declaration order and the
// first matching rule wins, even if a later rule also matches.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Value    string   `yaml:"value"`
}

// Rules is the extraction rule set for card metadata. It is data, not
// control flow: the tables can be replaced from a YAML file without
// touching the segmenter.
type Rules struct {
	// Banks is matched against the lowercased card name.
	Banks []KeywordRule `yaml:"banks"`
	// RewardTypes is matched against the lowercased full segment text.
	RewardTypes []KeywordRule `yaml:"reward_types"`
	// RewardFallback applies when no reward rule matches.
	RewardFallback string `yaml:"reward_fallback"`
}

// DefaultRules returns the built-in extraction tables. The reward
// priority order (miles before cashback before points) is a fixed
// contract for multi-reward cards.
func DefaultRules() Rules {
	return Rules{
		Banks: []KeywordRule{
			{Keywords: []string{"axis"}, Value: "Axis Bank"},
			{Keywords: []string{"hsbc"}, Value: "HSBC"},
			{Keywords: []string{"hdfc"}, Value: "HDFC Bank"},
			{Keywords: []string{"sbi"}, Value: "SBI"},
			{Keywords: []string{"icici"}, Value: "ICICI Bank"},
		},
		RewardTypes: []KeywordRule{
			{Keywords: []string{"miles", "edge miles"}, Value: "miles"},
			{Keywords: []string{"cashback"}, Value: "cashback"},
			{Keywords: []string{"reward points", "points"}, Value: "points"},
		},
		RewardFallback: "rewards",
	}
}

// LoadRules reads a rule set from a YAML file. An empty path returns
// the defaults. Missing sections fall back to the defaults so a file
// can override only one table.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}

	defaults := DefaultRules()
	if len(loaded.Banks) == 0 {
		loaded.Banks = defaults.Banks
	}
	if len(loaded.RewardTypes) == 0 {
		loaded.RewardTypes = defaults.RewardTypes
	}
	if loaded.RewardFallback == "" {
		loaded.RewardFallback = defaults.RewardFallback
	}
	return loaded, nil
}

func matchRule(rules []KeywordRule, haystack string) (string, bool) {
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if containsFold(haystack, keyword) {
				return rule.Value, true
			}
		}
	}
	return "", false
}
