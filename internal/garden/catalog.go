package garden

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plants.yaml
var fallbackCatalog []byte

// PlantInfo is the reference data for one plant species
type PlantInfo struct {
	Name          string `yaml:"name" json:"name"`
	Emoji         string `yaml:"emoji" json:"emoji"`
	Type          string `yaml:"type" json:"type"`
	Sun           string `yaml:"sun" json:"sun"`
	Water         string `yaml:"water" json:"water"`
	DaysToHarvest int    `yaml:"days_to_harvest" json:"days_to_harvest"`
}

// Catalog is an ordered plant reference table keyed by lowercase name
type Catalog struct {
	entries []PlantInfo
	index   map[string]int
}

// NewCatalog builds a catalog, keeping the first entry for duplicate names
func NewCatalog(entries []PlantInfo) *Catalog {
	c := &Catalog{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		e.Name = strings.ToLower(strings.TrimSpace(e.Name))
		if e.Name == "" {
			continue
		}
		if _, dup := c.index[e.Name]; dup {
			continue
		}
		if e.Emoji == "" {
			e.Emoji = "🌱"
		}
		if e.Type == "" {
			e.Type = "vegetable"
		}
		c.index[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// ParseCatalog decodes a YAML list of plants
func ParseCatalog(data []byte) (*Catalog, error) {
	var entries []PlantInfo
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing plant catalog: %w", err)
	}
	return NewCatalog(entries), nil
}

// DefaultCatalog returns the built-in plant table
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(fallbackCatalog)
	if err != nil {
		panic(err) // embedded file is part of the build
	}
	return c
}

// Entries returns the catalog in its defined order
func (c *Catalog) Entries() []PlantInfo {
	return c.entries
}

// Len is the number of species known
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup finds a plant by case-insensitive name
func (c *Catalog) Lookup(name string) (PlantInfo, bool) {
	i, ok := c.index[strings.ToLower(name)]
	if !ok {
		return PlantInfo{}, false
	}
	return c.entries[i], true
}

// NormalizePlantName lowercases and strips a plural "es" or "s" suffix
func NormalizePlantName(word string) string {
	name := strings.ToLower(word)
	switch {
	case strings.HasSuffix(name, "es"):
		name = strings.TrimSuffix(name, "es")
	case strings.HasSuffix(name, "s"):
		name = strings.TrimSuffix(name, "s")
	}
	return name
}

// Resolve maps a raw word to a display name. An exact catalog key wins,
// then the first key containing the normalized word; unknown words are
// capitalized as-is.
func (c *Catalog) Resolve(word string) string {
	name := NormalizePlantName(word)
	if name == "" {
		return ""
	}
	if _, ok := c.index[name]; ok {
		return Capitalize(name)
	}
	for _, e := range c.entries {
		if strings.Contains(e.Name, name) {
			return Capitalize(e.Name)
		}
	}
	return Capitalize(name)
}

// DetectMentions returns the catalog names mentioned in message, in catalog order.
// Each plant is tested against its name, +s, +es and name minus its last letter.
func (c *Catalog) DetectMentions(message string) []string {
	lower := strings.ToLower(message)
	var found []string
	for _, e := range c.entries {
		for _, variant := range variants(e.Name) {
			if variant != "" && strings.Contains(lower, variant) {
				found = append(found, e.Name)
				break
			}
		}
	}
	return found
}

func variants(name string) []string {
	return []string{name, name + "s", name + "es", name[:len(name)-1]}
}

// Capitalize upper-cases the first letter
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
