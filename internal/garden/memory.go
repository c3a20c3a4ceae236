package garden

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"garden_buddy/pkg"

	"github.com/google/uuid"
)

// MemoryVersion is stamped on new memory blobs
const MemoryVersion = "1.0.0"

// Unlimited disables the plant limit
const Unlimited = -1

var (
	// ErrPlantLimit is returned when the tier's plant quota is full
	ErrPlantLimit = errors.New("plant limit reached")
	// ErrEventIndex is returned for an out-of-range calendar index
	ErrEventIndex = errors.New("no calendar event at that position")
)

var plantedPattern = regexp.MustCompile(`(?i)planted\s+(?:a\s+|an\s+|some\s+)?([a-zA-Z]+)`)

// NewMemory returns an empty memory blob with default settings
func NewMemory(location string) *pkg.GardenMemory {
	return &pkg.GardenMemory{
		Version:     MemoryVersion,
		Teachings:   []pkg.Teaching{},
		Corrections: []pkg.Teaching{},
		Gists:       []pkg.Gist{},
		Plants:      []pkg.Plant{},
		Issues:      []pkg.Issue{},
		Calendar:    []pkg.CalendarEvent{},
		ChatHistory: []pkg.ChatMessage{},
		Settings:    pkg.Settings{Location: location},
	}
}

// Garden applies domain operations to one user's memory blob
type Garden struct {
	Mem        *pkg.GardenMemory
	Catalog    *Catalog
	Clock      pkg.Clock
	PlantLimit int
}

// New creates a Garden over mem
func New(mem *pkg.GardenMemory, catalog *Catalog, clock pkg.Clock, plantLimit int) *Garden {
	return &Garden{Mem: mem, Catalog: catalog, Clock: clock, PlantLimit: plantLimit}
}

func (g *Garden) now() time.Time { return g.Clock.Now() }

// stampAfter returns the current time, nudged forward when the clock has not
// moved past the newest record in list. Record timestamps in one list are
// strictly increasing even for same-instant writes.
func (g *Garden) stampAfter(list []pkg.Teaching) time.Time {
	now := g.now()
	if n := len(list); n > 0 && !now.After(list[n-1].Timestamp) {
		return list[n-1].Timestamp.Add(time.Nanosecond)
	}
	return now
}

// AddTeaching stores a teaching verbatim
func (g *Garden) AddTeaching(text string, typ pkg.TeachingType, category string) pkg.Teaching {
	t := pkg.Teaching{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: g.stampAfter(g.Mem.Teachings),
		Type:      typ,
		Category:  category,
	}
	g.Mem.Teachings = append(g.Mem.Teachings, t)
	return t
}

// AddCorrection stores a correction
func (g *Garden) AddCorrection(text string) pkg.Teaching {
	c := pkg.Teaching{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: g.stampAfter(g.Mem.Corrections),
		Type:      pkg.TeachingCorrection,
	}
	g.Mem.Corrections = append(g.Mem.Corrections, c)
	return c
}

// AddGist stores a note
func (g *Garden) AddGist(content string) pkg.Gist {
	gist := pkg.Gist{Content: content, Timestamp: g.now()}
	g.Mem.Gists = append(g.Mem.Gists, gist)
	return gist
}

// CanAddPlant reports whether the plant quota has room
func (g *Garden) CanAddPlant() bool {
	return g.PlantLimit == Unlimited || len(g.Mem.Plants) < g.PlantLimit
}

// AddPlant records a plant, pulling emoji and type from the catalog when known.
// It returns ErrPlantLimit without changing memory when the quota is full.
func (g *Garden) AddPlant(name string) (pkg.Plant, error) {
	if !g.CanAddPlant() {
		return pkg.Plant{}, ErrPlantLimit
	}

	p := pkg.Plant{
		Name:        name,
		Emoji:       "🌱",
		Type:        "vegetable",
		PlantedDate: g.now(),
		Location:    "Unknown",
	}
	if info, ok := g.Catalog.Lookup(name); ok {
		p.Emoji = info.Emoji
		p.Type = info.Type
	}
	g.Mem.Plants = append(g.Mem.Plants, p)
	return p, nil
}

// PlantedName extracts and resolves the plant in "planted <word>", if any
func (g *Garden) PlantedName(text string) (string, bool) {
	m := plantedPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return "", false
	}
	name := g.Catalog.Resolve(m[1])
	return name, name != ""
}

// ApplyTeachingSideEffects adds a plant for "planted X" teachings and stamps
// the layout timestamp for layout-related teachings. The returned plant is nil
// when no plant was added; err is ErrPlantLimit when the quota blocked it.
func (g *Garden) ApplyTeachingSideEffects(text string) (*pkg.Plant, error) {
	var added *pkg.Plant
	var err error
	if name, ok := g.PlantedName(text); ok {
		var p pkg.Plant
		p, err = g.AddPlant(name)
		if err == nil {
			added = &p
		}
	}

	lower := strings.ToLower(text)
	for _, cue := range []string{"bed", "raised", "planted", "growing"} {
		if strings.Contains(lower, cue) {
			g.Mem.Layout.LastUpdate = g.now()
			break
		}
	}
	return added, err
}

// AddIssue stores a completed diagnostic
func (g *Garden) AddIssue(category string, answers []pkg.QA) pkg.Issue {
	issue := pkg.Issue{Type: category, Date: g.now(), Details: append([]pkg.QA(nil), answers...)}
	g.Mem.Issues = append(g.Mem.Issues, issue)
	return issue
}

// AddEvent stores a calendar event and keeps the calendar in date order
func (g *Garden) AddEvent(event string, date time.Time) pkg.CalendarEvent {
	e := pkg.CalendarEvent{Event: event, Date: date}
	g.Mem.Calendar = append(g.Mem.Calendar, e)
	sort.SliceStable(g.Mem.Calendar, func(i, j int) bool {
		return g.Mem.Calendar[i].Date.Before(g.Mem.Calendar[j].Date)
	})
	return e
}

// Events returns calendar events in ascending date order
func (g *Garden) Events() []pkg.CalendarEvent {
	events := append([]pkg.CalendarEvent(nil), g.Mem.Calendar...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events
}

// RemoveEvent deletes the event at position i of Events()
func (g *Garden) RemoveEvent(i int) (pkg.CalendarEvent, error) {
	events := g.Events()
	if i < 0 || i >= len(events) {
		return pkg.CalendarEvent{}, ErrEventIndex
	}
	removed := events[i]
	g.Mem.Calendar = append(events[:i], events[i+1:]...)
	return removed, nil
}

// AppendChat records a chat line, keeping at most historyCap entries
func (g *Garden) AppendChat(role, content string, historyCap int) {
	g.Mem.ChatHistory = append(g.Mem.ChatHistory, pkg.ChatMessage{Role: role, Content: content, Timestamp: g.now()})
	if over := len(g.Mem.ChatHistory) - historyCap; historyCap > 0 && over > 0 {
		g.Mem.ChatHistory = append([]pkg.ChatMessage(nil), g.Mem.ChatHistory[over:]...)
	}
}

// Clear wipes everything except settings
func (g *Garden) Clear() {
	settings := g.Mem.Settings
	*g.Mem = *NewMemory(settings.Location)
	g.Mem.Settings = settings
}

// DaysSince returns whole days elapsed since t
func (g *Garden) DaysSince(t time.Time) int {
	return int(g.now().Sub(t).Hours() / 24)
}
