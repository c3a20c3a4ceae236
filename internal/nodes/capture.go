package nodes

import (
	"errors"
	"strings"

	"garden_buddy/internal/core"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/logger"
	gardensync "garden_buddy/internal/sync"
	"garden_buddy/pkg"

	"github.com/google/uuid"
)

// Metadata keys set by capture and read by the command handlers
const (
	metaPlantAdded = "plant_added"
	metaPlantLimit = "plant_limit"
)

// userTaughtCategory is stamped on knowledge entries taught as "topic: answer"
const userTaughtCategory = "garden_specific"

// splitCommand splits "/name rest" into its parts. ok is false for plain text.
func splitCommand(msg string) (name, rest string, ok bool) {
	if !strings.HasPrefix(msg, "/") {
		return "", "", false
	}
	name, rest, _ = strings.Cut(msg, " ")
	return name, strings.TrimSpace(rest), true
}

// capture stores explicit /teach, /wrong and /why messages before routing and
// mirrors them to the sync queue for signed-in users. It is skipped while the
// wizard owns the conversation.
func capture(s *core.Session, svc Services, msg string) map[string]any {
	meta := map[string]any{}
	if s.Wizard.Active {
		return meta
	}
	name, rest, ok := splitCommand(msg)
	if !ok {
		return meta
	}

	switch name {
	case "/teach":
		if rest == "" {
			return meta
		}
		s.Garden.AddTeaching(rest, pkg.TeachingExplicit, "")
		record(s, svc, gardensync.TypeTeach, rest)

		plant, err := s.Garden.ApplyTeachingSideEffects(rest)
		switch {
		case errors.Is(err, garden.ErrPlantLimit):
			meta[metaPlantLimit] = true
		case plant != nil:
			meta[metaPlantAdded] = plant.Name
		}

		if topic, answer, found := strings.Cut(rest, ":"); found {
			topic, answer = strings.TrimSpace(topic), strings.TrimSpace(answer)
			if topic != "" && answer != "" {
				s.Knowledge.AddUserTaught(pkg.KnowledgeEntry{
					ID:        uuid.NewString(),
					UserID:    s.UserID,
					Topic:     topic,
					Question:  topic,
					Answer:    answer,
					Category:  userTaughtCategory,
					CreatedAt: s.Now(),
				})
				s.MarkKnowledgeDirty()
			}
		}
	case "/wrong":
		if rest == "" {
			return meta
		}
		s.Garden.AddCorrection(rest)
		record(s, svc, gardensync.TypeWrong, rest)
	case "/why":
		record(s, svc, gardensync.TypeWhy, msg)
	}
	return meta
}

func record(s *core.Session, svc Services, typ, content string) {
	if svc.Recorder == nil || !s.User.Authenticated() {
		return
	}
	if !svc.Recorder.Enqueue(gardensync.NewRecord(s.UserID, typ, content, s.Now())) {
		logger.Warn().Str("user_id", s.UserID).Str("teaching_type", typ).Msg("Teaching not queued for sync")
	}
}
