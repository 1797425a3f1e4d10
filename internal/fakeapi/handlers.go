package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/mastery"
)

// studyGap bounds the pause between two answers that still counts as study time.
const studyGap = 15 * time.Minute

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.PathPrefix("/").Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/levels", s.handleLevels).Methods(http.MethodGet)
	authed.HandleFunc("/levels/{level_id:[0-9]+}/lessons", s.handleLessons).Methods(http.MethodGet)
	authed.HandleFunc("/lessons/{lesson_id:[0-9]+}/sentences", s.handleSentences).Methods(http.MethodGet)
	authed.HandleFunc("/progress/save", s.handleSaveProgress).Methods(http.MethodPost)
	authed.HandleFunc("/ai/explain-error", s.handleExplain).Methods(http.MethodPost)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("fakeapi request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !strings.Contains(creds.Email, "@") || len(creds.Password) < 6 {
		respondWithError(w, http.StatusBadRequest, "Email and a password of at least 6 characters are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	s.mu.Lock()
	_, err = s.addUserLocked(creds.Email, hash, false)
	s.mu.Unlock()
	if errors.Is(err, errEmailTaken) {
		respondWithError(w, http.StatusConflict, "Email already exists")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(creds.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(creds.Password)) != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(u.id, s.tokenTTL)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, map[string]any{"email": u.email, "premium": u.premium})
}

type levelBody struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type lessonBody struct {
	ID                  int    `json:"id"`
	LevelID             int    `json:"level_id"`
	LessonNumber        int    `json:"lesson_number"`
	Title               string `json:"title"`
	TotalSentences      int    `json:"total_sentences"`
	CompletedSentences  int    `json:"completed_sentences"`
	SentencesWithErrors int    `json:"sentences_with_errors"`
}

type nullString struct {
	String string
	Valid  bool
}

type nullInt32 struct {
	Int32 int32
	Valid bool
}

type sentenceBody struct {
	ID            int                `json:"id"`
	LessonID      int                `json:"lesson_id"`
	OrderNumber   int                `json:"order_number"`
	PromptRU      string             `json:"prompt_ru"`
	AnswerEN      string             `json:"answer_en"`
	Transcription nullString         `json:"transcription"`
	AudioPath     nullString         `json:"audio_path"`
	Status        mastery.NullStatus `json:"status"`
	CorrectStreak nullInt32          `json:"correct_streak"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	levels := make([]levelBody, 0, len(s.course.Levels))
	var totalLessons, completed, earned int
	for _, lvl := range s.course.Levels {
		levels = append(levels, levelBody{ID: lvl.ID, Title: lvl.Title})
		for _, l := range lvl.Lessons {
			totalLessons++
			summary := s.lessonSummaryLocked(u, lvl, l)
			if summary.Complete() {
				completed++
			}
			earned += summary.Stars()
		}
	}

	var accuracy float64
	if u.attempts > 0 {
		accuracy = float64(u.correct) / float64(u.attempts) * 100
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"levels":            levels,
		"completed_lessons": completed,
		"total_lessons":     totalLessons,
		"study_time_hours":  studyTime(u).Hours(),
		"accuracy":          accuracy,
		"earned_stars":      earned,
		"total_stars":       totalLessons * 3,
	})
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	levelID, err := strconv.Atoi(mux.Vars(r)["level_id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid level ID")
		return
	}

	u := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []lessonBody{}
	for _, lvl := range s.course.Levels {
		if lvl.ID != levelID {
			continue
		}
		for _, l := range lvl.Lessons {
			sum := s.lessonSummaryLocked(u, lvl, l)
			out = append(out, lessonBody{
				ID:                  l.ID,
				LevelID:             lvl.ID,
				LessonNumber:        l.Number,
				Title:               l.Title,
				TotalSentences:      sum.TotalSentences,
				CompletedSentences:  sum.CompletedSentences,
				SentencesWithErrors: sum.SentencesWithErrors,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonNumber < out[j].LessonNumber })
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) lessonSummaryLocked(u *user, lvl CourseLevel, l CourseLesson) lesson.Lesson {
	sum := lesson.Lesson{ID: l.ID, LevelID: lvl.ID, Number: l.Number, Title: l.Title, TotalSentences: len(l.Sentences)}
	for _, sn := range l.Sentences {
		p, ok := u.progress[sn.ID]
		if !ok {
			continue
		}
		if p.status == mastery.StatusMastered {
			sum.CompletedSentences++
		}
		if p.hadErrors {
			sum.SentencesWithErrors++
		}
	}
	return sum
}

func (s *Server) handleSentences(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.Atoi(mux.Vars(r)["lesson_id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lesson ID")
		return
	}

	u := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.lessons[lessonID]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Lesson not found")
		return
	}
	if !s.lessonOpen(u, ref) {
		respondWithError(w, http.StatusForbidden, "Premium subscription required")
		return
	}

	out := make([]sentenceBody, 0, len(ref.lesson.Sentences))
	for i, sn := range ref.lesson.Sentences {
		body := sentenceBody{
			ID:            sn.ID,
			LessonID:      lessonID,
			OrderNumber:   i + 1,
			PromptRU:      sn.Prompt,
			AnswerEN:      sn.Answer,
			Transcription: nullString{String: sn.Transcription, Valid: sn.Transcription != ""},
			AudioPath:     nullString{String: sn.AudioPath, Valid: sn.AudioPath != ""},
		}
		if p, ok := u.progress[sn.ID]; ok {
			body.Status = mastery.FromStatus(p.status)
			body.CorrectStreak = nullInt32{Int32: int32(p.streak), Valid: true}
		}
		out = append(out, body)
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SentenceID int  `json:"sentence_id"`
		IsCorrect  bool `json:"is_correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	u := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveCalls++
	if s.failSaves > 0 {
		s.failSaves--
		respondWithError(w, http.StatusInternalServerError, "Failed to save sentence progress")
		return
	}
	if _, ok := s.sentences[req.SentenceID]; !ok {
		respondWithError(w, http.StatusNotFound, "Sentence not found")
		return
	}

	p := u.progressFor(req.SentenceID)
	u.attempts++
	if req.IsCorrect {
		p.status = mastery.StatusMastered
		p.streak = 1
		u.correct++
	} else {
		p.status = mastery.StatusLearning
		p.streak = 0
		p.hadErrors = true
	}
	p.updatedAt = s.now()

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Progress saved"})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromptRU     string `json:"prompt_ru"`
		CorrectEN    string `json:"correct_en"`
		UserAnswerEN string `json:"user_answer_en"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.UserAnswerEN == "" {
		respondWithJSON(w, http.StatusOK, map[string]string{"explanation": "Пустой ответ."})
		return
	}

	s.mu.Lock()
	s.explainCalls++
	fn := s.explain
	s.mu.Unlock()

	if fn == nil {
		respondWithError(w, http.StatusInternalServerError, "AI config error")
		return
	}
	text, err := fn(req.PromptRU, req.CorrectEN, req.UserAnswerEN)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

// studyTime sums the gaps between consecutive answers that are shorter
// than studyGap.
func studyTime(u *user) time.Duration {
	times := make([]time.Time, 0, len(u.progress))
	for _, p := range u.progress {
		if !p.updatedAt.IsZero() {
			times = append(times, p.updatedAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var total time.Duration
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < studyGap {
			total += gap
		}
	}
	return total
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
