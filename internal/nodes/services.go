package nodes

import (
	"context"
	"time"

	"garden_buddy/internal/llm"
	"garden_buddy/internal/storage"
	"garden_buddy/internal/weather"
	"garden_buddy/pkg"
)

// Advisor produces free-form LLM advice
type Advisor interface {
	Advise(ctx context.Context, p llm.Prompt) (string, error)
}

// Forecaster looks up current weather
type Forecaster interface {
	Current(ctx context.Context, city, apiKey string) (weather.Report, error)
}

// Recorder mirrors teaching events to the remote store
type Recorder interface {
	Enqueue(rec pkg.SyncRecord) bool
}

// Exporter writes user data to files
type Exporter interface {
	WriteMemory(userID string, mem *pkg.GardenMemory, now time.Time) (string, error)
	WriteChatHistory(userID string, history []pkg.ChatMessage, now time.Time) (string, error)
	ListExports(userID string) ([]storage.ExportInfo, error)
}

// Services are the optional collaborators of the pipeline. Any of them may be nil.
type Services struct {
	Advisor    Advisor
	Forecaster Forecaster
	Recorder   Recorder
	Exporter   Exporter

	// MaxResults caps knowledge search hits
	MaxResults int
	// ContextEntries caps knowledge entries in the LLM prompt
	ContextEntries int
	// WeatherTimeout bounds the async forecast lookup
	WeatherTimeout time.Duration
}

func (s Services) maxResults() int {
	if s.MaxResults <= 0 {
		return 3
	}
	return s.MaxResults
}

func (s Services) contextEntries() int {
	if s.ContextEntries <= 0 {
		return 5
	}
	return s.ContextEntries
}

func (s Services) weatherTimeout() time.Duration {
	if s.WeatherTimeout <= 0 {
		return 10 * time.Second
	}
	return s.WeatherTimeout
}
