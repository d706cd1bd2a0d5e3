package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unifreelancer/academy/internal/course"
)

func TestGradeAnswers(t *testing.T) {
	questions := []*course.Question{
		choice("q1", 2),
		{ID: "q2", Kind: course.ShortAnswer, CorrectAnswer: course.TextAnswer("Gopher"), Points: 3},
		choice("q3", 0),
	}

	g, err := GradeAnswers(questions, []course.Answer{
		course.TextAnswer(" 2 "),
		course.TextAnswer("  gOPHER "),
		course.IndexAnswer(1),
	}, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CorrectAnswers)
	assert.Equal(t, 3, g.TotalQuestions)
	assert.Equal(t, 67, g.Score)
	assert.True(t, g.Passed)
	assert.Equal(t, 4, g.PointsEarned)
	assert.Equal(t, 5, g.PointsPossible)

	again, err := GradeAnswers(questions, []course.Answer{
		course.TextAnswer(" 2 "),
		course.TextAnswer("  gOPHER "),
		course.IndexAnswer(1),
	}, 60)
	require.NoError(t, err)
	assert.Equal(t, g, again, "grading is deterministic")
}

func TestGradeAnswersBoundaries(t *testing.T) {
	two := []*course.Question{choice("a", 0), choice("b", 1)}

	g, err := GradeAnswers(two, answers(0, 0), 50)
	require.NoError(t, err)
	assert.True(t, g.Passed, "score equal to passing score passes")

	g, err = GradeAnswers(two, answers(0, 0), 51)
	require.NoError(t, err)
	assert.False(t, g.Passed)

	_, err = GradeAnswers(two, answers(0), 50)
	assert.ErrorIs(t, err, ErrInvalidAnswerCount)

	g, err = GradeAnswers(nil, nil, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, g.Score)
	assert.True(t, g.Passed)
}

func TestIsCorrect(t *testing.T) {
	mc := choice("q", 1)
	assert.True(t, isCorrect(mc, course.IndexAnswer(1)))
	assert.False(t, isCorrect(mc, course.IndexAnswer(2)))
	assert.False(t, isCorrect(mc, course.TextAnswer("b")), "option text is not an index")

	short := &course.Question{Kind: course.ShortAnswer, CorrectAnswer: course.TextAnswer("42")}
	assert.True(t, isCorrect(short, course.IndexAnswer(42)))
	assert.False(t, isCorrect(short, course.TextAnswer("forty two")))
}
