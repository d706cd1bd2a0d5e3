package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCourseNotFound no course with the requested ID
var ErrCourseNotFound = errors.New("course not found")

// LessonType discriminates lesson content
type LessonType string

// lesson types
const (
	LessonVideo      LessonType = "video"
	LessonAssignment LessonType = "assignment"
	LessonQuiz       LessonType = "quiz"
)

// QuestionKind how a question is answered
type QuestionKind string

// question kinds
const (
	MultipleChoice QuestionKind = "multiple_choice"
	ShortAnswer    QuestionKind = "short_answer"
)

// Course read-only catalog document
type Course struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Modules   []*Module  `json:"modules"`
	FinalTest *FinalTest `json:"finalTest,omitempty"`
	Badge     *Badge     `json:"badge,omitempty"`
}

// Module ordered group of lessons
type Module struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Lessons []*Lesson `json:"lessons"`
}

// Lesson one step of the course track
type Lesson struct {
	ID      string
	Title   string
	Content Content
}

// Content type specific lesson payload, one of *VideoContent, *AssignmentContent, *QuizContent
type Content interface {
	Type() LessonType
}

// VideoContent .
type VideoContent struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"durationSeconds"`
}

// AssignmentContent .
type AssignmentContent struct {
	Instructions    string `json:"instructions"`
	AllowFileUpload bool   `json:"allowFileUpload"`
}

// QuizContent .
type QuizContent struct {
	Questions    []*Question `json:"questions"`
	PassingScore int         `json:"passingScore"`
}

func (*VideoContent) Type() LessonType      { return LessonVideo }
func (*AssignmentContent) Type() LessonType { return LessonAssignment }
func (*QuizContent) Type() LessonType       { return LessonQuiz }

// Question quiz or final test question
type Question struct {
	ID            string       `json:"id"`
	Prompt        string       `json:"prompt"`
	Kind          QuestionKind `json:"kind"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	Points        int          `json:"points,omitempty"`
}

// PointValue points awarded for a correct answer, defaults to 1
func (q *Question) PointValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// FinalTest course level test unlocking the badge
type FinalTest struct {
	Questions        []*Question `json:"questions"`
	PassingScore     int         `json:"passingScore"`
	TimeLimitMinutes int         `json:"timeLimitMinutes,omitempty"`
}

// Badge awarded on passing the final test
type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Repository read-only course lookup, absent courses yield ErrCourseNotFound
type Repository interface {
	GetCourse(ctx context.Context, courseID string) (*Course, error)
}

type lessonJSON struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Type    LessonType      `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// MarshalJSON flattens the content variant next to its type tag
func (l *Lesson) MarshalJSON() ([]byte, error) {
	out := lessonJSON{ID: l.ID, Title: l.Title}
	if l.Content != nil {
		raw, err := json.Marshal(l.Content)
		if err != nil {
			return nil, err
		}
		out.Type = l.Content.Type()
		out.Content = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON picks the content variant from the type tag
func (l *Lesson) UnmarshalJSON(b []byte) error {
	var in lessonJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	var content Content
	switch in.Type {
	case LessonVideo:
		content = &VideoContent{}
	case LessonAssignment:
		content = &AssignmentContent{}
	case LessonQuiz:
		content = &QuizContent{}
	default:
		return fmt.Errorf("lesson %q: unknown type %q", in.ID, in.Type)
	}
	if len(in.Content) > 0 && string(in.Content) != "null" {
		if err := json.Unmarshal(in.Content, content); err != nil {
			return fmt.Errorf("lesson %q: %w", in.ID, err)
		}
	}
	l.ID, l.Title, l.Content = in.ID, in.Title, content
	return nil
}

// Answer either an option index or a free-text string
type Answer struct {
	index  int
	text   string
	isText bool
}

// IndexAnswer answer choosing option i
func IndexAnswer(i int) Answer { return Answer{index: i} }

// TextAnswer free-text answer
func TextAnswer(s string) Answer { return Answer{text: s, isText: true} }

// Index returns the chosen option, numeric strings count as indices
func (a Answer) Index() (int, bool) {
	if !a.isText {
		return a.index, true
	}
	i, err := strconv.Atoi(strings.TrimSpace(a.text))
	return i, err == nil
}

// Text returns the answer as a string
func (a Answer) Text() string {
	if a.isText {
		return a.text
	}
	return strconv.Itoa(a.index)
}

// MarshalJSON .
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.isText {
		return json.Marshal(a.text)
	}
	return json.Marshal(a.index)
}

// UnmarshalJSON accepts an integer or a string
func (a *Answer) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*a = TextAnswer(text)
		return nil
	}
	var index int
	if err := json.Unmarshal(b, &index); err != nil {
		return fmt.Errorf("answer must be an option index or a string, got %s", string(b))
	}
	*a = IndexAnswer(index)
	return nil
}
