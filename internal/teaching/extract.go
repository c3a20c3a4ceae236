package teaching

import (
	"fmt"
	"regexp"
)

// Categories of implicit teachings
const (
	CategoryLayout    = "layout"
	CategoryCondition = "condition"
	CategorySun       = "sun"
	CategoryPlanting  = "planting"
	CategoryWatering  = "watering"
)

// Extraction is a fact pulled out of free text
type Extraction struct {
	Text     string
	Category string
	// Plant is set when the pattern names a plant, e.g. "planted kale in ..."
	Plant string
}

// Pattern turns a regex match into a teaching
type Pattern struct {
	Category string
	Regex    *regexp.Regexp
	Render   func(m []string) Extraction
}

// Patterns are tried in order; the first match wins
var Patterns = []Pattern{
	{
		Category: CategoryLayout,
		Regex:    regexp.MustCompile(`(?i)(?:i have|i've got|there (?:is|are))\s+(\d+)\s+([a-z\s]+)`),
		Render: func(m []string) Extraction {
			return Extraction{Text: fmt.Sprintf("User has %s %s", m[1], m[2])}
		},
	},
	{
		Category: CategoryCondition,
		Regex:    regexp.MustCompile(`(?i)(?:my|the)\s+([a-z]+)\s+(?:is|are)\s+([a-z\s]+)`),
		Render: func(m []string) Extraction {
			return Extraction{Text: fmt.Sprintf("User's %s is %s", m[1], m[2])}
		},
	},
	{
		Category: CategorySun,
		Regex:    regexp.MustCompile(`(?i)(?:gets?|receives?)\s+(\d+)\s*(?:hours?|hrs?)\s+(?:of\s+)?sun`),
		Render: func(m []string) Extraction {
			return Extraction{Text: fmt.Sprintf("Garden gets %s hours of sunlight", m[1])}
		},
	},
	{
		Category: CategoryPlanting,
		Regex:    regexp.MustCompile(`(?i)planted?\s+(?:some\s+)?([a-z]+)\s+(?:in|on)\s+([a-z\s]+)`),
		Render: func(m []string) Extraction {
			return Extraction{Text: fmt.Sprintf("Planted %s in %s", m[1], m[2]), Plant: m[1]}
		},
	},
	{
		Category: CategoryWatering,
		Regex:    regexp.MustCompile(`(?i)(?:watering?|water)\s+(?:every|once)\s+([a-z\s]+)`),
		Render: func(m []string) Extraction {
			return Extraction{Text: fmt.Sprintf("Watering schedule: %s", m[1])}
		},
	},
}

// ExtractImplicit runs the pattern list against message
func ExtractImplicit(message string) (Extraction, bool) {
	for _, p := range Patterns {
		if m := p.Regex.FindStringSubmatch(message); m != nil {
			ex := p.Render(m)
			ex.Category = p.Category
			return ex, true
		}
	}
	return Extraction{}, false
}
