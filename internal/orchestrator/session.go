package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"testmend/pkg/models"
)

// Session is the explicit handle that owns a historical corpus. One session
// corresponds to one working session over one source file; the corpus it
// owns grows across generate calls and disappears with the session.
type Session struct {
	id        string
	createdAt time.Time
	corpus    *models.Corpus
	closed    bool
}

// NewSession creates a session with an empty corpus.
func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		corpus:    models.NewCorpus(),
	}
}

// ResumeSession creates a session handle around previously stored corpus
// entries, preserving the original session ID.
func ResumeSession(id string, entries []models.CandidateEntry) *Session {
	s := &Session{
		id:        id,
		createdAt: time.Now(),
		corpus:    models.NewCorpus(),
	}
	s.corpus.Append(entries...)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when this handle was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Corpus returns the corpus owned by this session.
func (s *Session) Corpus() *models.Corpus {
	return s.corpus
}

// Close discards the corpus. A closed session cannot be reused.
func (s *Session) Close() {
	s.closed = true
	s.corpus = models.NewCorpus()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.closed
}
