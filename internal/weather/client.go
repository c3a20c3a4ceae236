// Package weather fetches current conditions from OpenWeatherMap
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"garden_buddy/internal/breaker"

	"github.com/bytedance/sonic"
)

// DefaultCity is used when the user has not set a location
const DefaultCity = "London"

// Report is the slice of the forecast the chat shows
type Report struct {
	City        string
	Description string
	Temp        float64
	Humidity    int
}

// Message renders the report for the chat
func (r Report) Message() string {
	advice := "weather for most veggies!"
	if r.Humidity > 70 {
		advice = "for leafy greens!"
	}
	return fmt.Sprintf("🌦️ **%s Weather:**\n• %s\n• %s°C\n• Humidity: %d%%\n\nGood %s",
		r.City, r.Description, strconv.FormatFloat(r.Temp, 'f', -1, 64), r.Humidity, advice)
}

// ErrorMessage renders a failed lookup for the chat
func ErrorMessage(err error) string {
	return fmt.Sprintf("⚠️ Weather error: %s", err.Error())
}

type apiResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
}

// Client calls the current-weather endpoint through a circuit breaker
type Client struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker
}

// NewClient creates a new weather client
func NewClient(baseURL string, timeout time.Duration, cfg breaker.Config) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker.New("weather", cfg),
	}
}

// Current fetches conditions for city in metric units
func (c *Client) Current(ctx context.Context, city, apiKey string) (Report, error) {
	if city == "" {
		city = DefaultCity
	}
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.fetch(ctx, city, apiKey)
	})
	if err != nil {
		return Report{}, err
	}
	return result.(Report), nil
}

func (c *Client) fetch(ctx context.Context, city, apiKey string) (Report, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read response: %w", err)
	}

	var data apiResponse
	if err := sonic.Unmarshal(body, &data); err != nil {
		return Report{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if data.Message != "" {
			return Report{}, fmt.Errorf("%s", data.Message)
		}
		return Report{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	r := Report{City: data.Name, Temp: data.Main.Temp, Humidity: data.Main.Humidity}
	if len(data.Weather) > 0 {
		r.Description = data.Weather[0].Description
	}
	return r, nil
}
