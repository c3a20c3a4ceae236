package nodes

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"garden_buddy/internal/conversation"
	"garden_buddy/internal/core"
	"garden_buddy/internal/garden"
	"garden_buddy/pkg"
)

var (
	layoutCues = regexp.MustCompile(`(?i)bed|container|ground|pot`)
	sunCues    = regexp.MustCompile(`(?i)sun|shade|light`)
	soilCues   = regexp.MustCompile(`(?i)soil|compost|clay|sandy`)
)

// acknowledge picks an opener matching mood and formality
func acknowledge(s *core.Session, mood string) string {
	pools, ok := acknowledgements[mood]
	if !ok {
		pools = acknowledgements[conversation.MoodNeutral]
	}
	return pkg.Pick(s.Rand, pools[s.Context.Profile.StyleKey()])
}

func taughtAbout(teachings []pkg.Teaching, re *regexp.Regexp) bool {
	for _, t := range teachings {
		if re.MatchString(t.Text) {
			return true
		}
	}
	return false
}

// smartFollowUp asks about the first gap in what we know: layout, then sun,
// then soil, then a check-in on a random plant. Two questions in a row earn a
// break. Returns "" when there is nothing to ask.
func smartFollowUp(s *core.Session) string {
	c := s.Context
	if c.ConsecutiveQuestions >= 2 {
		c.ConsecutiveQuestions = 0
		return ""
	}

	recent := c.RecentTopics(3)
	mem := s.Garden.Mem
	hasLayout := taughtAbout(mem.Teachings, layoutCues)
	hasSun := taughtAbout(mem.Teachings, sunCues)
	hasSoil := taughtAbout(mem.Teachings, soilCues)

	switch {
	case !hasLayout && !slices.Contains(recent, "layout"):
		c.ConsecutiveQuestions++
		return followUpLayout
	case !hasSun && !slices.Contains(recent, "sun") && hasLayout:
		c.ConsecutiveQuestions++
		return followUpSun
	case !hasSoil && !slices.Contains(recent, "soil") && hasLayout && hasSun:
		c.ConsecutiveQuestions++
		return followUpSoil
	case len(mem.Plants) > 0 && !slices.Contains(recent, "plants"):
		p := pkg.Pick(s.Rand, mem.Plants)
		c.LastPlantMentioned = p.Name
		c.ConsecutiveQuestions++
		return fmt.Sprintf("How's your %s %s doing lately?", p.Emoji, p.Name)
	}
	return ""
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// memoryReference occasionally recalls a plant's age or an older teaching
func memoryReference(s *core.Session) string {
	if s.Rand.Float64() <= 0.85 {
		return ""
	}
	mem := s.Garden.Mem
	plants := lastN(mem.Plants, 5)
	teachings := lastN(mem.Teachings, 10)

	if len(plants) > 0 && s.Rand.Float64() > 0.5 {
		p := pkg.Pick(s.Rand, plants)
		if days := s.Garden.DaysSince(p.PlantedDate); days > 7 {
			return fmt.Sprintf("\n\nBy the way, it's been %d days since you planted your %s %s. How's it doing?", days, p.Emoji, p.Name)
		}
	}
	if len(teachings) > 3 {
		t := pkg.Pick(s.Rand, teachings)
		if days := s.Garden.DaysSince(t.Timestamp); days > 3 && days < 30 {
			return fmt.Sprintf("\n\nRemembering what you told me about %s. Still accurate?", strings.ToLower(t.Text))
		}
	}
	return ""
}

func seasonalTip(s *core.Session) string {
	return pkg.Pick(s.Rand, seasonalTips[season(s.Now().Month())])
}

// variedResponse picks a template line not used recently and decorates it
func variedResponse(s *core.Session, category string) string {
	options, ok := templateLibrary[category]
	if !ok {
		category = CategoryDefault
		options = templateLibrary[CategoryDefault]
	}

	c := s.Context
	var pool []string
	for _, o := range options {
		if !c.RecentlyUsed(o) {
			pool = append(pool, o)
		}
	}
	if len(pool) == 0 {
		pool = options
	}

	reply := pkg.Pick(s.Rand, pool)
	c.MarkUsed(reply)

	if s.Rand.Float64() < 0.3 {
		if c.LastPlantMentioned != "" && category != CategoryDefault {
			reply += fmt.Sprintf("\n\nYour %ss might appreciate attention to this too!", c.LastPlantMentioned)
		}
		if s.Now().Sub(c.SessionStart) > 24*time.Hour && len(s.Garden.Mem.Plants) > 0 {
			reply += welcomeBack
		}
	}

	reply += memoryReference(s)

	if s.Rand.Float64() < 0.1 {
		if tip := seasonalTip(s); tip != "" {
			reply += "\n\n🍂 " + tip
		}
	}
	return reply
}

// plantReply answers a question about a catalog plant
func plantReply(s *core.Session, info garden.PlantInfo) string {
	name := info.Name
	replies := []string{
		fmt.Sprintf("%s Ah, %ss! They need %s and %s. What specific help do you need?", info.Emoji, name, strings.ToLower(info.Sun), strings.ToLower(info.Water)),
		fmt.Sprintf("%s %ss are great! What's happening with yours?", info.Emoji, garden.Capitalize(name)),
		fmt.Sprintf("%s I love %ss! Are you having trouble, or just checking in?", info.Emoji, name),
	}
	return pkg.Pick(s.Rand, replies)
}

// plantLines renders plants with their age for the LLM prompt
func plantLines(s *core.Session) []string {
	lines := make([]string, 0, len(s.Garden.Mem.Plants))
	for _, p := range s.Garden.Mem.Plants {
		lines = append(lines, fmt.Sprintf("%s %s (planted %d days ago)", p.Emoji, p.Name, s.Garden.DaysSince(p.PlantedDate)))
	}
	return lines
}

func teachingLines(s *core.Session, n int) []string {
	recent := lastN(s.Garden.Mem.Teachings, n)
	lines := make([]string, len(recent))
	for i, t := range recent {
		lines[i] = t.Text
	}
	return lines
}
