package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/mastery"
)

// The backend serialises nullable SQL columns as {"String": "...", "Valid": true}
// and {"Int32": 1, "Valid": true}. These types accept that shape as well
// as null and bare values.

type nullString struct {
	String string `json:"String"`
	Valid  bool   `json:"Valid"`
}

func (n *nullString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = nullString{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = nullString{String: s, Valid: true}
		return nil
	}
	type plain nullString
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = nullString(p)
	return nil
}

func (n nullString) value() string {
	if !n.Valid {
		return ""
	}
	return n.String
}

type nullInt32 struct {
	Int32 int32 `json:"Int32"`
	Valid bool  `json:"Valid"`
}

func (n *nullInt32) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = nullInt32{}
		return nil
	case data[0] != '{':
		var v int32
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = nullInt32{Int32: v, Valid: true}
		return nil
	}
	type plain nullInt32
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = nullInt32(p)
	return nil
}

type wireLevel struct {
	ID          int    `json:"id"`
	Code        string `json:"code,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (w wireLevel) toLevel() lesson.Level {
	code := w.Code
	if code == "" {
		// Older servers only send a title such as "A1 Elementary".
		code, _, _ = strings.Cut(strings.TrimSpace(w.Title), " ")
	}
	return lesson.Level{ID: w.ID, Code: code, Title: w.Title, Description: w.Description}
}

type wireOverview struct {
	Levels           []wireLevel `json:"levels"`
	CompletedLessons int         `json:"completed_lessons"`
	TotalLessons     int         `json:"total_lessons"`
	StudyTimeHours   float64     `json:"study_time_hours"`
	Accuracy         float64     `json:"accuracy"`
	EarnedStars      int         `json:"earned_stars"`
	TotalStars       int         `json:"total_stars"`
}

func (w wireOverview) toOverview() lesson.Overview {
	levels := make([]lesson.Level, len(w.Levels))
	for i, l := range w.Levels {
		levels[i] = l.toLevel()
	}
	return lesson.Overview{
		Levels:           levels,
		CompletedLessons: w.CompletedLessons,
		TotalLessons:     w.TotalLessons,
		StudyTimeHours:   w.StudyTimeHours,
		Accuracy:         w.Accuracy,
		EarnedStars:      w.EarnedStars,
		TotalStars:       w.TotalStars,
	}
}

type wireLesson struct {
	ID                  int    `json:"id"`
	LevelID             int    `json:"level_id"`
	LessonNumber        int    `json:"lesson_number"`
	Title               string `json:"title"`
	TotalSentences      int    `json:"total_sentences"`
	CompletedSentences  int    `json:"completed_sentences"`
	SentencesWithErrors int    `json:"sentences_with_errors"`
}

func (w wireLesson) toLesson() lesson.Lesson {
	return lesson.Lesson{
		ID:                  w.ID,
		LevelID:             w.LevelID,
		Number:              w.LessonNumber,
		Title:               w.Title,
		TotalSentences:      w.TotalSentences,
		CompletedSentences:  w.CompletedSentences,
		SentencesWithErrors: w.SentencesWithErrors,
	}
}

type wireSentence struct {
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

func (w wireSentence) toSentence() lesson.Sentence {
	return lesson.Sentence{
		ID:            w.ID,
		LessonID:      w.LessonID,
		Prompt:        w.PromptRU,
		Answer:        w.AnswerEN,
		Transcription: w.Transcription.value(),
		AudioPath:     w.AudioPath.value(),
		Status:        w.Status.Status(),
		CorrectStreak: int(w.CorrectStreak.Int32),
		Order:         w.OrderNumber,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type saveProgressRequest struct {
	SentenceID int  `json:"sentence_id"`
	IsCorrect  bool `json:"is_correct"`
}

type explainRequest struct {
	PromptRU     string `json:"prompt_ru"`
	CorrectEN    string `json:"correct_en"`
	UserAnswerEN string `json:"user_answer_en"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
	Error       string `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Account describes the signed-in user.
type Account struct {
	Email   string `json:"email"`
	Premium bool   `json:"premium"`
}
