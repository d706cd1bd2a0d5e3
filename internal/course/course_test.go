package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unifreelancer/academy/internal/infrastructure/driver"
)

const courseDocument = `{
  "id": "go-101",
  "title": "Go 101",
  "modules": [
    {"id": "m1", "title": "Basics", "lessons": [
      {"id": "intro", "title": "Intro", "type": "video", "content": {"url": "https://cdn/intro.mp4", "durationSeconds": 90}},
      {"id": "plan", "title": "Plan", "type": "assignment", "content": {"instructions": "Write a plan", "allowFileUpload": true}}
    ]},
    {"id": "m2", "title": "Check", "lessons": [
      {"id": "quiz", "title": "Quiz", "type": "quiz", "content": {"passingScore": 70, "questions": [
        {"id": "q1", "prompt": "2+2", "kind": "multiple_choice", "options": ["3", "4"], "correctAnswer": 1},
        {"id": "q2", "prompt": "Mascot", "kind": "short_answer", "correctAnswer": "Gopher", "points": 2}
      ]}}
    ]}
  ],
  "finalTest": {"passingScore": 70, "timeLimitMinutes": 30, "questions": []},
  "badge": {"name": "Gopher", "color": "#00ADD8"}
}`

func mustDecode(t *testing.T) *Course {
	t.Helper()
	c, err := decodeCourse("go-101", []byte(courseDocument))
	require.NoError(t, err)
	return c
}

func TestDecodeCourse(t *testing.T) {
	c := mustDecode(t)

	video, ok := c.Modules[0].Lessons[0].Content.(*VideoContent)
	require.True(t, ok)
	assert.Equal(t, 90, video.DurationSeconds)

	assignment, ok := c.Modules[0].Lessons[1].Content.(*AssignmentContent)
	require.True(t, ok)
	assert.True(t, assignment.AllowFileUpload)

	quiz, ok := c.Modules[1].Lessons[0].Content.(*QuizContent)
	require.True(t, ok)
	assert.Equal(t, 70, quiz.PassingScore)
	i, ok := quiz.Questions[0].CorrectAnswer.Index()
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, "Gopher", quiz.Questions[1].CorrectAnswer.Text())
	assert.Equal(t, 1, quiz.Questions[0].PointValue())
	assert.Equal(t, 2, quiz.Questions[1].PointValue())

	require.NotNil(t, c.FinalTest)
	assert.Equal(t, 30, c.FinalTest.TimeLimitMinutes)
	assert.Equal(t, "Gopher", c.Badge.Name)
}

func TestLessonJSONKeepsVariant(t *testing.T) {
	c := mustDecode(t)
	raw, err := json.Marshal(c)
	require.NoError(t, err)

	again, err := decodeCourse("go-101", raw)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestLessonUnknownType(t *testing.T) {
	var l Lesson
	err := json.Unmarshal([]byte(`{"id": "x", "type": "podcast"}`), &l)
	assert.Error(t, err)
}

func TestAnswerJSON(t *testing.T) {
	var answers []Answer
	require.NoError(t, json.Unmarshal([]byte(`[2, "  paris ", "3"]`), &answers))
	require.Len(t, answers, 3)

	i, ok := answers[0].Index()
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = answers[1].Index()
	assert.False(t, ok)
	assert.Equal(t, "  paris ", answers[1].Text())

	i, ok = answers[2].Index()
	assert.True(t, ok, "numeric strings count as option indices")
	assert.Equal(t, 3, i)

	assert.Error(t, json.Unmarshal([]byte(`[1.5]`), &answers))
	assert.Error(t, json.Unmarshal([]byte(`[{}]`), &answers))
}

func TestFlatten(t *testing.T) {
	seq := Flatten(mustDecode(t))
	assert.Equal(t, 3, seq.Len())
	assert.Equal(t, []string{"intro", "plan", "quiz"}, seq.LessonIDs())

	pos, ok := seq.Lookup("quiz")
	require.True(t, ok)
	assert.Equal(t, 2, pos.Index)
	assert.Equal(t, "m2", pos.Module.ID)

	_, ok = seq.Lookup("missing")
	assert.False(t, ok)

	first, ok := seq.First()
	require.True(t, ok)
	assert.Equal(t, "intro", first.Lesson.ID)
	assert.Equal(t, "plan", seq.At(1).Lesson.ID)

	_, ok = Flatten(&Course{ID: "empty"}).First()
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	video := func(id string) *Lesson { return &Lesson{ID: id, Content: &VideoContent{}} }

	assert.NoError(t, Validate(&Course{ID: "c"}))
	assert.Error(t, Validate(&Course{}))
	assert.Error(t, Validate(&Course{ID: "c", Modules: []*Module{
		{ID: "m1", Lessons: []*Lesson{video("a")}},
		{ID: "m2", Lessons: []*Lesson{video("a")}},
	}}), "duplicate lesson across modules")
	assert.Error(t, Validate(&Course{ID: "c", Modules: []*Module{
		{ID: "m1", Lessons: []*Lesson{{ID: "a"}}},
	}}), "lesson without content")

	repo := NewMemoryRepository()
	assert.Error(t, repo.Put(&Course{}))
	assert.Error(t, repo.Put(nil))
}

func TestValidateQuestions(t *testing.T) {
	quizCourse := func(passingScore int, questions ...*Question) *Course {
		return &Course{ID: "c", Modules: []*Module{{ID: "m1", Lessons: []*Lesson{
			{ID: "q", Content: &QuizContent{PassingScore: passingScore, Questions: questions}},
		}}}}
	}
	question := &Question{ID: "q1", Kind: MultipleChoice, CorrectAnswer: IndexAnswer(0)}

	assert.NoError(t, Validate(quizCourse(0, question)))
	assert.NoError(t, Validate(quizCourse(100, question)))
	assert.Error(t, Validate(quizCourse(70, question, nil)), "nil quiz question")
	assert.Error(t, Validate(quizCourse(101, question)))
	assert.Error(t, Validate(quizCourse(-1, question)))

	withTest := func(test *FinalTest) *Course {
		return &Course{ID: "c", FinalTest: test}
	}
	assert.NoError(t, Validate(withTest(&FinalTest{PassingScore: 70, Questions: []*Question{question}})))
	assert.Error(t, Validate(withTest(&FinalTest{PassingScore: 70, Questions: []*Question{nil}})))
	assert.Error(t, Validate(withTest(&FinalTest{PassingScore: 120})))

	_, err := decodeCourse("c", []byte(`{"id": "c", "modules": [{"id": "m1", "lessons": [
		{"id": "q", "type": "quiz", "content": {"passingScore": 70, "questions": [null]}}]}]}`))
	assert.Error(t, err, "null questions in a stored document are rejected on load")
}

type countingRepository struct {
	calls  int
	course *Course
	err    error
}

func (r *countingRepository) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	r.calls++
	return r.course, r.err
}

type brokenKV struct{}

func (brokenKV) SetEX(ctx context.Context, key string, value string, expiration time.Duration) error {
	return errors.New("kv down")
}
func (brokenKV) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("kv down")
}
func (brokenKV) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("kv down")
}
func (brokenKV) Ping(ctx context.Context) error { return errors.New("kv down") }

func TestCachedRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("read through", func(t *testing.T) {
		origin := &countingRepository{course: mustDecode(t)}
		kv := driver.NewMemoryKV()
		repo := NewCachedRepository(origin, kv, time.Minute)

		first, err := repo.GetCourse(ctx, "go-101")
		require.NoError(t, err)
		second, err := repo.GetCourse(ctx, "go-101")
		require.NoError(t, err)

		assert.Equal(t, 1, origin.calls)
		assert.Equal(t, first, second)
		ok, _ := kv.Exists(ctx, "course:go-101")
		assert.True(t, ok)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		origin := &countingRepository{err: ErrCourseNotFound}
		repo := NewCachedRepository(origin, driver.NewMemoryKV(), time.Minute)
		_, err := repo.GetCourse(ctx, "nope")
		assert.ErrorIs(t, err, ErrCourseNotFound)
		_, err = repo.GetCourse(ctx, "nope")
		assert.ErrorIs(t, err, ErrCourseNotFound)
		assert.Equal(t, 2, origin.calls)
	})

	t.Run("kv failure falls through", func(t *testing.T) {
		origin := &countingRepository{course: mustDecode(t)}
		repo := NewCachedRepository(origin, brokenKV{}, time.Minute)
		c, err := repo.GetCourse(ctx, "go-101")
		require.NoError(t, err)
		assert.Equal(t, "go-101", c.ID)
	})

	t.Run("corrupt entry is refetched", func(t *testing.T) {
		origin := &countingRepository{course: mustDecode(t)}
		kv := driver.NewMemoryKV()
		require.NoError(t, kv.SetEX(ctx, "course:go-101", "{not json", 0))
		repo := NewCachedRepository(origin, kv, time.Minute)
		_, err := repo.GetCourse(ctx, "go-101")
		require.NoError(t, err)
		assert.Equal(t, 1, origin.calls)
	})
}

// documentDB answers every query with the configured JSON documents
type documentDB struct {
	documents [][]byte
	lastQuery string
}

type documentRows struct {
	documents [][]byte
	cursor    int
}

func (r *documentRows) Next() bool {
	r.cursor++
	return r.cursor <= len(r.documents)
}

func (r *documentRows) Scan(dest ...interface{}) error {
	*(dest[0].(*[]byte)) = r.documents[r.cursor-1]
	return nil
}

func (r *documentRows) Close() error { return nil }
func (r *documentRows) Err() error   { return nil }

func (d *documentDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (d *documentDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.ISQLRows, error) {
	d.lastQuery = query
	return &documentRows{documents: d.documents}, nil
}

func (d *documentDB) BeginTx(ctx context.Context, opts *driver.TxOptions) (driver.ITransactionalDB, error) {
	return d, nil
}
func (d *documentDB) Commit(ctx context.Context) error   { return nil }
func (d *documentDB) Rollback(ctx context.Context) error { return nil }
func (d *documentDB) Close(ctx context.Context) error    { return nil }
func (d *documentDB) Ping(ctx context.Context) error     { return nil }
func (d *documentDB) Dialect() driver.Dialect            { return driver.DialectPostgres }

func TestSQLRepository(t *testing.T) {
	ctx := context.Background()

	db := &documentDB{documents: [][]byte{[]byte(courseDocument)}}
	c, err := NewSQLRepository(db).GetCourse(ctx, "go-101")
	require.NoError(t, err)
	assert.Equal(t, "Go 101", c.Title)
	assert.Contains(t, db.lastQuery, `FROM "course"`)

	_, err = NewSQLRepository(&documentDB{}).GetCourse(ctx, "missing")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = NewSQLRepository(&documentDB{documents: [][]byte{[]byte(`{"modules": 3}`)}}).GetCourse(ctx, "bad")
	assert.Error(t, err)
}
