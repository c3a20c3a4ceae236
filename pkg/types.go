package pkg

import (
	"time"
)

// Garden Buddy shared types

// KnowledgeSource marks where a knowledge entry came from
type KnowledgeSource string

const (
	SourceBaseline   KnowledgeSource = "baseline"
	SourceUserTaught KnowledgeSource = "user-taught"
)

// KnowledgeEntry is a single fact in the knowledge store.
// Baseline entries carry QuickAnswer/Details; user-taught entries carry Question/Answer.
type KnowledgeEntry struct {
	ID          string          `json:"id" yaml:"id"`
	UserID      string          `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Topic       string          `json:"topic" yaml:"topic"`
	Question    string          `json:"question,omitempty" yaml:"question,omitempty"`
	Answer      string          `json:"answer,omitempty" yaml:"answer,omitempty"`
	QuickAnswer string          `json:"quick_answer,omitempty" yaml:"quick_answer,omitempty"`
	Category    string          `json:"category" yaml:"category"`
	Details     map[string]any  `json:"details,omitempty" yaml:"details,omitempty"`
	Source      KnowledgeSource `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ScoredEntry is a search hit
type ScoredEntry struct {
	KnowledgeEntry
	Relevance int `json:"relevance"`
}

// KnowledgeDocument is the remote baseline document
type KnowledgeDocument struct {
	Version             string              `json:"version" yaml:"version"`
	Region              string              `json:"region" yaml:"region"`
	LastUpdated         string              `json:"last_updated" yaml:"last_updated"`
	Entries             []KnowledgeEntry    `json:"entries" yaml:"entries"`
	DiagnosticQuestions map[string][]string `json:"diagnostic_questions" yaml:"diagnostic_questions"`
}

// TeachingType classifies a stored teaching
type TeachingType string

const (
	TeachingExplicit   TeachingType = "teaching"
	TeachingCorrection TeachingType = "correction"
	TeachingAutoParsed TeachingType = "auto-parsed"
)

// Teaching is an immutable fact the user told us
type Teaching struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
	Type      TeachingType `json:"type"`
	Category  string       `json:"category,omitempty"`
}

// Gist is a free-form note
type Gist struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Plant is a tracked plant in the user's garden
type Plant struct {
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	Type        string    `json:"type"`
	PlantedDate time.Time `json:"planted_date"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes,omitempty"`
}

// CalendarEvent is a dated garden task
type CalendarEvent struct {
	Event string    `json:"event"`
	Date  time.Time `json:"date"`
}

// QA is one recorded wizard answer
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Issue is a completed diagnostic record
type Issue struct {
	Type    string    `json:"type"`
	Date    time.Time `json:"date"`
	Details []QA      `json:"details"`
}

// GardenLayout tracks when the layout was last described
type GardenLayout struct {
	LastUpdate time.Time `json:"last_update,omitempty"`
}

// Settings are user-level preferences
type Settings struct {
	Location      string `json:"location"`
	WeatherAPIKey string `json:"weather_api_key,omitempty"`
}

// ChatMessage is one entry in the persisted chat history
type ChatMessage struct {
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// GardenMemory is the per-user blob persisted in the key-value store
type GardenMemory struct {
	Version     string          `json:"version"`
	Teachings   []Teaching      `json:"teachings"`
	Corrections []Teaching      `json:"corrections"`
	Gists       []Gist          `json:"gists"`
	Layout      GardenLayout    `json:"garden_layout"`
	Plants      []Plant         `json:"plants"`
	Issues      []Issue         `json:"issues"`
	Calendar    []CalendarEvent `json:"calendar"`
	Settings    Settings        `json:"settings"`
	ChatHistory []ChatMessage   `json:"chat_history"`
}

// Tier is the account level of a user
type Tier string

const (
	TierGuest Tier = "guest"
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
)

// User is the identity resolved by the auth service
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Tier  Tier   `json:"tier"`
}

// Authenticated reports whether the user holds a real account
func (u User) Authenticated() bool {
	return u.Tier == TierFree || u.Tier == TierPro
}

// SyncRecord is a teaching event mirrored to the remote store
type SyncRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"teaching_type"` // teach, wrong, why
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
