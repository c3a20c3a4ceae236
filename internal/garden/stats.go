package garden

import (
	"fmt"
	"strings"
)

// Stats summarises a user's garden
type Stats struct {
	Teachings  int
	Plants     int
	DaysActive int
}

// Stats counts teachings and plants; days active run from the first teaching
func (g *Garden) Stats() Stats {
	s := Stats{Teachings: len(g.Mem.Teachings), Plants: len(g.Mem.Plants)}
	if s.Teachings > 0 {
		s.DaysActive = g.DaysSince(g.Mem.Teachings[0].Timestamp)
	}
	return s
}

// StatsReport renders the /stats reply
func (g *Garden) StatsReport() string {
	s := g.Stats()

	var plantList string
	if s.Plants > 0 {
		lines := make([]string, 0, s.Plants)
		for _, p := range g.Mem.Plants {
			lines = append(lines, fmt.Sprintf("• %s %s (%d days old)", p.Emoji, p.Name, g.DaysSince(p.PlantedDate)))
		}
		plantList = "\n\n**Your Garden:**\n" + strings.Join(lines, "\n")
	}

	var insight string
	switch {
	case s.Teachings > 10:
		insight = "\n\n💡 **Insight:** You're building a great knowledge base!"
	case s.Plants > s.Teachings:
		insight = "\n\n💡 **Tip:** The more you teach me, the better advice I can give!"
	case s.DaysActive > 30:
		insight = fmt.Sprintf("\n\n💡 **Milestone:** %d days gardening together!", s.DaysActive)
	}

	return fmt.Sprintf("📊 **Garden Stats:**\n• %d teachings learned\n• %d plants tracked\n• %d days active%s%s\n\nKeep growing! 🌱",
		s.Teachings, s.Plants, s.DaysActive, plantList, insight)
}
