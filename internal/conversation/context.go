package conversation

import (
	"regexp"
	"slices"
	"time"

	"garden_buddy/internal/style"
)

// Moods
const (
	MoodExcited   = "excited"
	MoodConcerned = "concerned"
	MoodCurious   = "curious"
	MoodNeutral   = "neutral"
)

// Response types recorded after each reply
const (
	ResponseTeaching   = "teaching"
	ResponseCorrection = "correction"
	ResponseAI         = "ai"
	ResponseKnowledge  = "knowledge"
	ResponseCommand    = "command"
	ResponseAdvice     = "advice"
	ResponseWizard     = "wizard"
)

// Ring sizes
const (
	TopicsCap          = 5
	FlowCap            = 10
	RecentResponsesCap = 20
	chattyWindow       = 5
	chattyThreshold    = 3
)

// FlowEntry is one turn in the conversation flow history
type FlowEntry struct {
	Mood         string    `json:"mood"`
	ResponseType string    `json:"response_type"`
	Timestamp    time.Time `json:"timestamp"`
}

// Context is the per-session conversational state. It is never persisted.
type Context struct {
	LastTopics           []string
	UserMood             string
	LastPlantMentioned   string
	SessionStart         time.Time
	ConsecutiveQuestions int
	LastResponseType     string
	Profile              style.Profile
	FlowPattern          []FlowEntry
	IsChatty             bool

	recentResponses []string
}

// NewContext starts a fresh session context
func NewContext(start time.Time) *Context {
	return &Context{
		LastTopics:   []string{},
		UserMood:     MoodNeutral,
		SessionStart: start,
		Profile:      style.NewProfile(),
	}
}

// AddTopic pushes a topic onto the bounded topic ring
func (c *Context) AddTopic(topic string) {
	c.LastTopics = pushBounded(c.LastTopics, topic, TopicsCap)
}

// RecentTopics returns up to the last n topics
func (c *Context) RecentTopics(n int) []string {
	if len(c.LastTopics) <= n {
		return c.LastTopics
	}
	return c.LastTopics[len(c.LastTopics)-n:]
}

// RecentlyUsed reports whether a template line is in the last-20 ring
func (c *Context) RecentlyUsed(line string) bool {
	return slices.Contains(c.recentResponses, line)
}

// MarkUsed records a template line in the recent-responses ring.
// Repeats refresh nothing; the ring holds distinct lines in first-use order.
func (c *Context) MarkUsed(line string) {
	if c.RecentlyUsed(line) {
		return
	}
	c.recentResponses = pushBounded(c.recentResponses, line, RecentResponsesCap)
}

// RecentResponses exposes the ring for inspection
func (c *Context) RecentResponses() []string {
	return c.recentResponses
}

// TrackFlow appends the turn to the flow history and recomputes chattiness:
// chatty when at least 3 of the last 5 turns had a mood or got advice.
func (c *Context) TrackFlow(responseType string, now time.Time) {
	c.FlowPattern = pushBounded(c.FlowPattern, FlowEntry{Mood: c.UserMood, ResponseType: responseType, Timestamp: now}, FlowCap)

	window := c.FlowPattern
	if len(window) > chattyWindow {
		window = window[len(window)-chattyWindow:]
	}
	engaged := 0
	for _, f := range window {
		if f.Mood != MoodNeutral || f.ResponseType == ResponseAdvice {
			engaged++
		}
	}
	c.IsChatty = engaged >= chattyThreshold
}

func pushBounded[T any](ring []T, v T, limit int) []T {
	ring = append(ring, v)
	if over := len(ring) - limit; over > 0 {
		ring = append([]T(nil), ring[over:]...)
	}
	return ring
}

var (
	excitedCues   = regexp.MustCompile(`(?i)!{2,}|amazing|awesome|love|excited|great|wonderful|fantastic`)
	concernedCues = regexp.MustCompile(`(?i)ugh|annoying|dying|help|worried|concerned|problem|issue|wrong`)
	curiousCues   = regexp.MustCompile(`(?i)\?|how|what|when|where|why|which`)
)

// DetectMood classifies a message; excited beats concerned beats curious
func DetectMood(message string) string {
	switch {
	case excitedCues.MatchString(message):
		return MoodExcited
	case concernedCues.MatchString(message):
		return MoodConcerned
	case curiousCues.MatchString(message):
		return MoodCurious
	default:
		return MoodNeutral
	}
}
