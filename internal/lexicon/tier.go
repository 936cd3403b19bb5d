package lexicon

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is a question complexity level. Personas may use any tier; templates
// are only bucketed under Low, Medium and High.
type Tier int

const (
	TierVeryLow Tier = iota
	TierLow
	TierMedium
	TierMediumHigh
	TierHigh
	TierVeryHigh
)

// TemplateTiers is the fixed order in which template buckets are considered
// when no closer match exists.
var TemplateTiers = []Tier{TierLow, TierMedium, TierHigh}

var tierNames = map[Tier]string{
	TierVeryLow:    "very-low",
	TierLow:        "low",
	TierMedium:     "medium",
	TierMediumHigh: "medium-high",
	TierHigh:       "high",
	TierVeryHigh:   "very-high",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier accepts the hyphenated, spaced and underscored spellings.
func ParseTier(s string) (Tier, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	for t, name := range tierNames {
		if name == norm {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown complexity tier %q", s)
}

func (t *Tier) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTier(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Tier) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Preference lists the template tiers to try for a persona tier, best first.
// It is total: every Tier yields all three template tiers, so resolution only
// fails for an intent with no templates at all.
//
//	exact match, then VeryHigh->High and VeryLow->Low, then Medium, then Low, High.
func (t Tier) Preference() []Tier {
	out := make([]Tier, 0, len(TemplateTiers))
	add := func(c Tier) {
		for _, existing := range out {
			if existing == c {
				return
			}
		}
		out = append(out, c)
	}
	switch t {
	case TierLow, TierMedium, TierHigh:
		add(t)
	case TierVeryHigh:
		add(TierHigh)
	case TierVeryLow:
		add(TierLow)
	}
	add(TierMedium)
	for _, c := range TemplateTiers {
		add(c)
	}
	return out
}
