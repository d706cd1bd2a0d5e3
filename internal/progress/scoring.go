package progress

import (
	"strings"

	"github.com/unifreelancer/academy/internal/course"
)

// Grade outcome of scoring one answer sheet
type Grade struct {
	Score          int
	Passed         bool
	CorrectAnswers int
	TotalQuestions int
	PointsEarned   int
	PointsPossible int
}

// GradeAnswers scores answers against questions, the score is the rounded share of correct answers
func GradeAnswers(questions []*course.Question, answers []course.Answer, passingScore int) (Grade, error) {
	if len(answers) != len(questions) {
		return Grade{}, ErrInvalidAnswerCount
	}
	g := Grade{TotalQuestions: len(questions)}
	for i, q := range questions {
		points := q.PointValue()
		g.PointsPossible += points
		if isCorrect(q, answers[i]) {
			g.CorrectAnswers++
			g.PointsEarned += points
		}
	}
	g.Score = percentage(g.CorrectAnswers, g.TotalQuestions)
	g.Passed = g.Score >= passingScore
	return g, nil
}

func isCorrect(q *course.Question, answer course.Answer) bool {
	switch q.Kind {
	case course.ShortAnswer:
		return normalize(answer.Text()) == normalize(q.CorrectAnswer.Text())
	default:
		want, ok := q.CorrectAnswer.Index()
		if !ok {
			return false
		}
		got, ok := answer.Index()
		return ok && got == want
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
