package nodes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"garden_buddy/internal/conversation"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/logger"
	"garden_buddy/internal/weather"
	"garden_buddy/internal/wizard"
)

const dateLayout = "2006-01-02"

type commandFunc func(ctx context.Context, t *turn, rest string) string

func (r *RoutingNode) commandTable() map[string]commandFunc {
	return map[string]commandFunc{
		"/teach":    cmdTeach,
		"/gist":     cmdGist,
		"/wrong":    cmdWrong,
		"/weather":  r.cmdWeather,
		"/why":      cmdWhy,
		"/help":     cmdHelp,
		"/stats":    cmdStats,
		"/export":   r.cmdExport,
		"/diagnose": cmdDiagnose,
		"/plant":    cmdPlant,
		"/calendar": cmdCalendar,
		"/settings": cmdSettings,
		"/clear":    cmdClear,
	}
}

func cmdTeach(_ context.Context, t *turn, rest string) string {
	if rest == "" {
		return "Usage: /teach [something about your garden]"
	}
	t.s.Context.LastResponseType = conversation.ResponseTeaching
	reply := fmt.Sprintf("%s\n\n\"%s\"\n\nWhat else should I know?", acknowledge(t.s, conversation.MoodNeutral), rest)

	if name, ok := t.meta[metaPlantAdded].(string); ok {
		reply += fmt.Sprintf("\n\n🌱 Added %s to your garden!", name)
	}
	if limited, _ := t.meta[metaPlantLimit].(bool); limited {
		reply += "\n\n" + fmt.Sprintf(plantLimitReply, t.s.Garden.PlantLimit)
	}
	return reply
}

func cmdGist(_ context.Context, t *turn, rest string) string {
	sub, content, _ := strings.Cut(rest, " ")
	content = strings.TrimSpace(content)
	if sub != "add" || content == "" {
		return "Usage: /gist add [your note]"
	}
	t.s.Garden.AddGist(content)
	return fmt.Sprintf("📝 Saved! \"%s\"", content)
}

func cmdWrong(_ context.Context, t *turn, rest string) string {
	if rest == "" {
		return "Usage: /wrong [what was incorrect]"
	}
	t.s.Context.LastResponseType = conversation.ResponseCorrection
	return fmt.Sprintf("✓ Correction noted: \"%s\"\n\nThanks for keeping me accurate!", rest)
}

// cmdWeather answers at once and delivers the forecast on the session's
// follow-up channel when the lookup finishes.
func (r *RoutingNode) cmdWeather(ctx context.Context, t *turn, _ string) string {
	settings := t.s.Garden.Mem.Settings
	if settings.WeatherAPIKey == "" {
		return weatherKeyReply
	}
	if r.svc.Forecaster == nil {
		return weather.ErrorMessage(errors.New("weather service unavailable"))
	}

	s := t.s
	forecaster := r.svc.Forecaster
	timeout := r.svc.weatherTimeout()
	go func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		msg := ""
		report, err := forecaster.Current(wctx, settings.Location, settings.WeatherAPIKey)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", s.UserID).Msg("Weather lookup failed")
			msg = weather.ErrorMessage(err)
		} else {
			msg = report.Message()
		}
		if !s.Deliver(msg) {
			logger.Warn().Str("user_id", s.UserID).Msg("Follow-up buffer full, dropping weather report")
		}
	}()
	return "Checking the forecast..."
}

func cmdWhy(_ context.Context, t *turn, _ string) string {
	t.s.Context.LastResponseType = conversation.ResponseCommand
	return fmt.Sprintf("🤔 **My reasoning:**\n\nI combine what you've taught me about your garden with general best practices. The more you share, the better my advice gets!\n\nYou've taught me %d things so far.",
		len(t.s.Garden.Mem.Teachings))
}

func cmdHelp(_ context.Context, _ *turn, _ string) string {
	return helpReply
}

func cmdStats(_ context.Context, t *turn, _ string) string {
	t.s.Context.LastResponseType = conversation.ResponseCommand
	return t.s.Garden.StatsReport()
}

func (r *RoutingNode) cmdExport(_ context.Context, t *turn, rest string) string {
	if !t.s.User.Authenticated() {
		return guestExportReply
	}
	if r.svc.Exporter == nil {
		return "⚠️ Export is not available right now."
	}

	now := t.s.Now()
	switch rest {
	case "list":
		files, err := r.svc.Exporter.ListExports(t.s.UserID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", t.s.UserID).Msg("Listing exports failed")
			return "⚠️ Could not list your exports."
		}
		if len(files) == 0 {
			return "No exports yet. Use /export to create one."
		}
		lines := make([]string, len(files))
		for i, f := range files {
			lines[i] = fmt.Sprintf("%d. %s (%d bytes, %s)", i+1, f.Path, f.SizeBytes, f.ModTime.Format(dateLayout))
		}
		return "💾 **Your exports:**\n" + strings.Join(lines, "\n")
	case "chat":
		if len(t.s.Garden.Mem.ChatHistory) == 0 {
			return "No chat history to export."
		}
		path, err := r.svc.Exporter.WriteChatHistory(t.s.UserID, t.s.Garden.Mem.ChatHistory, now)
		if err != nil {
			logger.Error().Err(err).Str("user_id", t.s.UserID).Msg("Chat export failed")
			return "⚠️ Export failed. Please try again."
		}
		return fmt.Sprintf("💾 Chat history exported to %s", path)
	}

	path, err := r.svc.Exporter.WriteMemory(t.s.UserID, t.s.Garden.Mem, now)
	if err != nil {
		logger.Error().Err(err).Str("user_id", t.s.UserID).Msg("Export failed")
		return "⚠️ Export failed. Please try again."
	}
	return fmt.Sprintf("💾 Exported! Your garden data is safe.\n\nSaved to %s", path)
}

func cmdDiagnose(_ context.Context, t *turn, rest string) string {
	baseline := t.s.Knowledge.Baseline()
	if rest == "" {
		return wizard.Menu(baseline.Categories())
	}

	category := strings.ToLower(strings.ReplaceAll(rest, " ", "_"))
	state, step, err := wizard.Start(baseline, category)
	if err != nil {
		if cats := baseline.Categories(); len(cats) > 0 {
			return fmt.Sprintf("Usage: /diagnose [category]\n\nI have questions for: %s", strings.Join(cats, ", "))
		}
		return wizard.NotLoaded
	}
	t.s.Wizard = state
	t.s.Context.LastResponseType = conversation.ResponseWizard
	return step.Reply
}

func cmdPlant(_ context.Context, t *turn, rest string) string {
	sub, name, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)
	if sub != "add" || name == "" {
		return "Usage: /plant add [plant name]"
	}

	display := t.s.Garden.Catalog.Resolve(name)
	if _, err := t.s.Garden.AddPlant(display); err != nil {
		if errors.Is(err, garden.ErrPlantLimit) {
			return fmt.Sprintf(plantLimitReply, t.s.Garden.PlantLimit)
		}
		return "⚠️ Could not add that plant."
	}
	t.s.Context.LastPlantMentioned = strings.ToLower(display)
	t.s.Context.LastResponseType = conversation.ResponseCommand
	return fmt.Sprintf("Added %s to your garden! Use /teach to specify where it's planted and add more details.", display)
}

func cmdCalendar(_ context.Context, t *turn, rest string) string {
	g := t.s.Garden
	sub, args, _ := strings.Cut(rest, " ")
	args = strings.TrimSpace(args)

	switch sub {
	case "":
		events := g.Events()
		if len(events) == 0 {
			return "📅 No events scheduled. Add one with /calendar add YYYY-MM-DD [event]"
		}
		lines := make([]string, len(events))
		for i, e := range events {
			lines[i] = fmt.Sprintf("%d. %s: %s", i+1, e.Date.Format(dateLayout), e.Event)
		}
		return "📅 **Garden Calendar:**\n" + strings.Join(lines, "\n")
	case "add":
		dateText, event, _ := strings.Cut(args, " ")
		event = strings.TrimSpace(event)
		date, err := time.ParseInLocation(dateLayout, dateText, time.UTC)
		if err != nil || event == "" {
			return "Usage: /calendar add YYYY-MM-DD [event]"
		}
		g.AddEvent(event, date)
		return fmt.Sprintf("📅 Added \"%s\" on %s", event, date.Format(dateLayout))
	case "del":
		n, err := strconv.Atoi(args)
		if err != nil {
			return "Usage: /calendar del [number]"
		}
		removed, err := g.RemoveEvent(n - 1)
		if err != nil {
			return fmt.Sprintf("There is no event number %d.", n)
		}
		return fmt.Sprintf("🗑️ Removed \"%s\"", removed.Event)
	default:
		return "Usage: /calendar, /calendar add YYYY-MM-DD [event], /calendar del [number]"
	}
}

func cmdSettings(_ context.Context, t *turn, rest string) string {
	key, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	settings := &t.s.Garden.Mem.Settings

	switch {
	case key == "location" && value != "":
		settings.Location = value
		return fmt.Sprintf("⚙️ Location set to %s.", value)
	case key == "weather-key" && value != "":
		settings.WeatherAPIKey = value
		return "⚙️ Weather API key saved."
	case key == "":
		location := settings.Location
		if location == "" {
			location = weather.DefaultCity
		}
		keyState := "not set"
		if settings.WeatherAPIKey != "" {
			keyState = "set"
		}
		return fmt.Sprintf("⚙️ **Settings:**\n• Location: %s\n• Weather API key: %s", location, keyState)
	default:
		return "Usage: /settings location [city] or /settings weather-key [key]"
	}
}

func cmdClear(_ context.Context, t *turn, _ string) string {
	t.s.Garden.Clear()
	t.s.Wizard = wizard.Idle
	return "🧹 Your garden memory has been cleared. Settings were kept."
}
