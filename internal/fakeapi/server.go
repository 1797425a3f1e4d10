// Package fakeapi is an in-memory implementation of the lesson-trainer
// backend. It serves the same routes and JSON shapes as the real server and
// is used by tests and the devserver command.
package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingo/internal/mastery"
)

// ExplainFunc produces an explanation for a wrong answer.
type ExplainFunc func(prompt, correct, answer string) (string, error)

type user struct {
	id           int
	email        string
	passwordHash []byte
	premium      bool
	attempts     int
	correct      int
	progress     map[int]*progress // by sentence ID
}

type progress struct {
	status    mastery.Status
	streak    int
	hadErrors bool
	updatedAt time.Time
}

type sentenceRef struct {
	sentence CourseSentence
	lessonID int
	order    int
}

type lessonRef struct {
	lesson CourseLesson
	level  CourseLevel
}

// Server holds the fake backend state.
type Server struct {
	mu sync.Mutex

	course     Course
	lessons    map[int]lessonRef
	sentences  map[int]sentenceRef
	users      map[string]*user
	usersByID  map[int]*user
	nextUserID int

	secret      []byte
	tokenTTL    time.Duration
	bcryptCost  int
	freeLessons int
	freeLevels  []string
	now         func() time.Time
	logger      *zap.Logger

	explain      ExplainFunc
	failSaves    int
	saveCalls    int
	explainCalls int

	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithCourse replaces the default course content.
func WithCourse(c Course) Option {
	return func(s *Server) { s.course = c }
}

// WithSecret sets the JWT signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithClock overrides time for token issue and study-time accounting.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithLogger logs every request.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server with the default course.
func New(opts ...Option) *Server {
	s := &Server{
		course:      DefaultCourse(),
		users:       make(map[string]*user),
		usersByID:   make(map[int]*user),
		nextUserID:  1,
		secret:      []byte("lingo-dev-secret-key-0123456789ab"),
		tokenTTL:    72 * time.Hour,
		bcryptCost:  bcrypt.DefaultCost,
		freeLessons: 5,
		freeLevels:  []string{"A0"},
		now:         time.Now,
		logger:      zap.NewNop(),
		explain:     defaultExplain,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.index()
	s.router = s.routes()
	return s
}

func (s *Server) index() {
	s.lessons = make(map[int]lessonRef)
	s.sentences = make(map[int]sentenceRef)
	for _, lvl := range s.course.Levels {
		for _, l := range lvl.Lessons {
			s.lessons[l.ID] = lessonRef{lesson: l, level: lvl}
			for i, sn := range l.Sentences {
				s.sentences[sn.ID] = sentenceRef{sentence: sn, lessonID: l.ID, order: i + 1}
			}
		}
	}
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string, premium bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.addUserLocked(email, hash, premium)
	return err
}

var errEmailTaken = errors.New("email already exists")

func (s *Server) addUserLocked(email string, hash []byte, premium bool) (*user, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.users[key]; ok {
		return nil, errEmailTaken
	}
	u := &user{
		id:           s.nextUserID,
		email:        key,
		passwordHash: hash,
		premium:      premium,
		progress:     make(map[int]*progress),
	}
	s.nextUserID++
	s.users[key] = u
	s.usersByID[u.id] = u
	return u, nil
}

// TokenFor issues a token for an existing user, valid for ttl.
func (s *Server) TokenFor(email string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown user %q", email)
	}
	return s.issueToken(u.id, ttl)
}

// SetPremium toggles premium access for a user.
func (s *Server) SetPremium(email string, premium bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		u.premium = premium
	}
}

// SetStatus forces a sentence's mastery status for a user.
func (s *Server) SetStatus(email string, sentenceID int, status mastery.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return
	}
	p := u.progressFor(sentenceID)
	p.status = status
	p.updatedAt = s.now()
}

// StatusOf returns a user's status for a sentence.
func (s *Server) StatusOf(email string, sentenceID int) mastery.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return mastery.StatusUnattempted
	}
	if p, ok := u.progress[sentenceID]; ok {
		return p.status
	}
	return mastery.StatusUnattempted
}

// FailSaves makes the next n progress saves answer 500.
func (s *Server) FailSaves(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = n
}

// SaveCalls reports how many progress saves were received.
func (s *Server) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}

// SetExplainer replaces the explanation generator; nil disables the AI endpoint.
func (s *Server) SetExplainer(fn ExplainFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.explain = fn
}

// ExplainCalls reports how many explanation requests were received.
func (s *Server) ExplainCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.explainCalls
}

func (u *user) progressFor(sentenceID int) *progress {
	p, ok := u.progress[sentenceID]
	if !ok {
		p = &progress{status: mastery.StatusUnattempted}
		u.progress[sentenceID] = p
	}
	return p
}

func (s *Server) lessonOpen(u *user, ref lessonRef) bool {
	if u.premium || ref.lesson.Number <= s.freeLessons {
		return true
	}
	for _, code := range s.freeLevels {
		if strings.EqualFold(code, ref.level.Title) {
			return true
		}
	}
	return false
}

func defaultExplain(prompt, correct, answer string) (string, error) {
	return fmt.Sprintf("«%s» переводится как %q. Сравните с вашим ответом %q по словам.", prompt, correct, answer), nil
}
