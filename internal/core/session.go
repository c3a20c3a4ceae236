package core

import (
	"sync"
	"time"

	"garden_buddy/internal/conversation"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/wizard"
	"garden_buddy/pkg"
)

// FollowupBuffer is how many async replies a session holds before dropping
const FollowupBuffer = 8

// Session is everything one conversation reads and writes. Callers serialise
// turns with Lock/Unlock; async work only talks back through Deliver.
type Session struct {
	UserID    string
	User      pkg.User
	Garden    *garden.Garden
	Knowledge *knowledge.Store
	Context   *conversation.Context
	Wizard    wizard.State
	Rand      pkg.Rand
	Clock     pkg.Clock

	mu             sync.Mutex
	followups      chan string
	knowledgeDirty bool
}

// NewSession creates a new session for user
func NewSession(user pkg.User, g *garden.Garden, k *knowledge.Store, r pkg.Rand, clock pkg.Clock) *Session {
	return &Session{
		UserID:    user.ID,
		User:      user,
		Garden:    g,
		Knowledge: k,
		Context:   conversation.NewContext(clock.Now()),
		Rand:      r,
		Clock:     clock,
		followups: make(chan string, FollowupBuffer),
	}
}

// Lock serialises turns on the session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the turn lock
func (s *Session) Unlock() { s.mu.Unlock() }

// Now is the session clock's time
func (s *Session) Now() time.Time { return s.Clock.Now() }

// Followups carries replies produced after the turn that triggered them
func (s *Session) Followups() <-chan string { return s.followups }

// Deliver queues an async reply. It never blocks; false means the buffer was full.
func (s *Session) Deliver(msg string) bool {
	select {
	case s.followups <- msg:
		return true
	default:
		return false
	}
}

// MarkKnowledgeDirty flags user-taught knowledge for saving at the end of the turn
func (s *Session) MarkKnowledgeDirty() { s.knowledgeDirty = true }

// TakeKnowledgeDirty reports and clears the dirty flag
func (s *Session) TakeKnowledgeDirty() bool {
	dirty := s.knowledgeDirty
	s.knowledgeDirty = false
	return dirty
}
