package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unifreelancer/academy/internal/course"
	"github.com/unifreelancer/academy/internal/enrollment"
	"github.com/unifreelancer/academy/internal/infrastructure/driver"
	"github.com/unifreelancer/academy/internal/infrastructure/logging"
	"github.com/unifreelancer/academy/internal/infrastructure/uuid"
	"github.com/unifreelancer/academy/internal/submission"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// UseCaseImpl progress engine, every operation runs in one unit of work
type UseCaseImpl struct {
	Transactor  driver.Transactor
	Courses     course.Repository
	Enrollments enrollment.Repository
	Progress    Repository
	Submissions submission.Repository
	IDGenerator uuid.Generator

	now func() time.Time
}

var _ UseCase = &UseCaseImpl{}

// NewProgressUseCase .
func NewProgressUseCase(
	Transactor driver.Transactor,
	Courses course.Repository,
	Enrollments enrollment.Repository,
	Progress Repository,
	Submissions submission.Repository,
	IDGenerator uuid.Generator,
) *UseCaseImpl {
	return &UseCaseImpl{
		Transactor:  Transactor,
		Courses:     Courses,
		Enrollments: Enrollments,
		Progress:    Progress,
		Submissions: Submissions,
		IDGenerator: IDGenerator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// session state loaded at the start of an operation
type session struct {
	userID string
	course *course.Course
	seq    *course.Sequence
	record *Record
}

// GetProgress returns the learner's progress, creating the initial record on first access
func (pu *UseCaseImpl) GetProgress(ctx context.Context, userID, courseID string) (*Progress, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.GetProgress", "service")
	defer apmSpan.End()

	var result *Progress
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		result, err = pu.project(ctx, s)
		return err
	})
	return result, err
}

// SelectLesson moves the resume position, it never marks anything complete
func (pu *UseCaseImpl) SelectLesson(ctx context.Context, userID, courseID, moduleID, lessonID string) (*Progress, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.SelectLesson", "service")
	defer apmSpan.End()

	var result *Progress
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		pos, ok := s.seq.Lookup(lessonID)
		if !ok || pos.Module.ID != moduleID {
			return fmt.Errorf("%w: lesson %s in module %s", ErrNotFound, lessonID, moduleID)
		}
		if !IsLessonAccessible(s.seq, s.record.Completed, lessonID) {
			return ErrLessonLocked
		}

		now := pu.now()
		if err := pu.Progress.SetPosition(ctx, userID, courseID, moduleID, lessonID, now); err != nil {
			return storage(err)
		}
		s.record.CurrentModuleID, s.record.CurrentLessonID, s.record.UpdatedAt = moduleID, lessonID, now
		result, err = pu.project(ctx, s)
		return err
	})
	return result, err
}

// CompleteLesson marks a video lesson complete, repeating it is a no-op
func (pu *UseCaseImpl) CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*Progress, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.CompleteLesson", "service")
	defer apmSpan.End()

	var result *Progress
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if _, err := pu.unlockedLesson(s, lessonID, course.LessonVideo); err != nil {
			return err
		}
		if err := pu.markLessonComplete(ctx, s, lessonID); err != nil {
			return err
		}
		result, err = pu.project(ctx, s)
		return err
	})
	return result, err
}

// SubmitAssignment stores a pending submission and counts the lesson as complete
func (pu *UseCaseImpl) SubmitAssignment(ctx context.Context, userID, courseID, lessonID string, form *AssignmentForm) (*submission.Record, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.SubmitAssignment", "service")
	defer apmSpan.End()

	var result *submission.Record
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		pos, err := pu.unlockedLesson(s, lessonID, course.LessonAssignment)
		if err != nil {
			return err
		}

		text, fileURL := strings.TrimSpace(form.TextSubmission), strings.TrimSpace(form.FileURL)
		if text == "" && fileURL == "" {
			return fmt.Errorf("%w: provide a text submission or a file", ErrInvalidSubmission)
		}
		if fileURL != "" && !pos.Lesson.Content.(*course.AssignmentContent).AllowFileUpload {
			return fmt.Errorf("%w: this assignment does not accept files", ErrInvalidSubmission)
		}

		if _, err := pu.Submissions.Find(ctx, userID, courseID, lessonID); err == nil {
			return ErrAlreadySubmitted
		} else if !errors.Is(err, submission.ErrSubmissionNotFound) {
			return storage(err)
		}

		id, err := pu.IDGenerator.Generate()
		if err != nil {
			return err
		}
		rec := &submission.Record{
			ID:             id,
			UserID:         userID,
			CourseID:       courseID,
			LessonID:       lessonID,
			TextSubmission: text,
			FileURL:        fileURL,
			Status:         submission.StatusPending,
			SubmittedAt:    pu.now(),
		}
		if err := pu.Submissions.Create(ctx, rec); err != nil {
			if errors.Is(err, submission.ErrDuplicate) {
				return ErrAlreadySubmitted
			}
			return storage(err)
		}
		if err := pu.markLessonComplete(ctx, s, lessonID); err != nil {
			return err
		}
		result = rec
		return nil
	})
	return result, err
}

// GetAssignment returns the learner's submission for an assignment lesson
func (pu *UseCaseImpl) GetAssignment(ctx context.Context, userID, courseID, lessonID string) (*submission.Record, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.GetAssignment", "service")
	defer apmSpan.End()

	var result *submission.Record
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		pos, ok := s.seq.Lookup(lessonID)
		if !ok {
			return fmt.Errorf("%w: lesson %s", ErrNotFound, lessonID)
		}
		if pos.Lesson.Content.Type() != course.LessonAssignment {
			return ErrWrongLessonType
		}
		rec, err := pu.Submissions.Find(ctx, userID, courseID, lessonID)
		if errors.Is(err, submission.ErrSubmissionNotFound) {
			return fmt.Errorf("%w: no submission for lesson %s", ErrNotFound, lessonID)
		}
		if err != nil {
			return storage(err)
		}
		result = rec
		return nil
	})
	return result, err
}

// SubmitQuiz grades a quiz attempt, a passing attempt completes the lesson
func (pu *UseCaseImpl) SubmitQuiz(ctx context.Context, userID, courseID, lessonID string, answers []course.Answer) (*QuizResult, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.SubmitQuiz", "service")
	defer apmSpan.End()

	var result *QuizResult
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		pos, err := pu.unlockedLesson(s, lessonID, course.LessonQuiz)
		if err != nil {
			return err
		}
		quiz := pos.Lesson.Content.(*course.QuizContent)
		grade, err := GradeAnswers(quiz.Questions, answers, quiz.PassingScore)
		if err != nil {
			return err
		}

		id, err := pu.IDGenerator.Generate()
		if err != nil {
			return err
		}
		qr := &QuizResult{
			ID:             id,
			LessonID:       lessonID,
			Score:          grade.Score,
			CorrectAnswers: grade.CorrectAnswers,
			TotalQuestions: grade.TotalQuestions,
			PointsEarned:   grade.PointsEarned,
			PointsPossible: grade.PointsPossible,
			Passed:         grade.Passed,
			AttemptedAt:    pu.now(),
		}
		if err := pu.Progress.AppendQuizResult(ctx, userID, courseID, qr); err != nil {
			return storage(err)
		}
		if qr.Passed {
			if err := pu.markLessonComplete(ctx, s, lessonID); err != nil {
				return err
			}
		}
		result = qr
		return nil
	})
	return result, err
}

// SubmitFinalTest grades the final test, passing completes the course and awards the badge.
// The time limit is advisory and not enforced here.
func (pu *UseCaseImpl) SubmitFinalTest(ctx context.Context, userID, courseID string, answers []course.Answer) (*FinalTestOutcome, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressUseCase.SubmitFinalTest", "service")
	defer apmSpan.End()

	var result *FinalTestOutcome
	err := pu.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		s, err := pu.open(ctx, userID, courseID)
		if err != nil {
			return err
		}
		test := s.course.FinalTest
		if test == nil {
			return fmt.Errorf("%w: course %s has no final test", ErrNotFound, courseID)
		}
		if !allCompleted(s.seq, s.record.Completed) {
			return ErrPrerequisitesNotMet
		}
		grade, err := GradeAnswers(test.Questions, answers, test.PassingScore)
		if err != nil {
			return err
		}

		now := pu.now()
		ftr := &FinalTestResult{
			Score:          grade.Score,
			Passed:         grade.Passed,
			CorrectAnswers: grade.CorrectAnswers,
			TotalQuestions: grade.TotalQuestions,
			AttemptedAt:    now,
		}
		if err := pu.Progress.SaveFinalTestResult(ctx, userID, courseID, ftr); err != nil {
			return storage(err)
		}
		outcome := &FinalTestOutcome{
			Score:           grade.Score,
			Passed:          grade.Passed,
			CorrectAnswers:  grade.CorrectAnswers,
			TotalQuestions:  grade.TotalQuestions,
			PointsEarned:    grade.PointsEarned,
			PointsPossible:  grade.PointsPossible,
			Attempts:        s.record.FinalTestAttempts + 1,
			CourseCompleted: s.record.CompletedAt != nil,
		}
		if grade.Passed {
			if err := pu.markCourseComplete(ctx, s, now); err != nil {
				return err
			}
			outcome.CourseCompleted = true
			outcome.Badge = s.course.Badge
		}
		result = outcome
		return nil
	})
	return result, err
}

// open loads the course, checks enrollment and loads or creates the progress record
func (pu *UseCaseImpl) open(ctx context.Context, userID, courseID string) (*session, error) {
	c, err := pu.Courses.GetCourse(ctx, courseID)
	if errors.Is(err, course.ErrCourseNotFound) {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	if err != nil {
		return nil, storage(err)
	}

	enrolled, err := pu.Enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, storage(err)
	}
	if !enrolled {
		return nil, ErrUnauthorized
	}

	seq := course.Flatten(c)
	rec, err := pu.Progress.Load(ctx, userID, courseID)
	if errors.Is(err, ErrRecordAbsent) {
		rec = pu.initialRecord(userID, courseID, seq)
		if err := pu.Progress.CreateIfAbsent(ctx, rec); err != nil {
			return nil, storage(err)
		}
		created := rec
		rec, err = pu.Progress.Load(ctx, userID, courseID)
		// a concurrent first access may own the row while our snapshot predates it,
		// that row is as empty as ours
		if errors.Is(err, ErrRecordAbsent) {
			rec, err = created, nil
		}
	}
	if err != nil {
		return nil, storage(err)
	}
	return &session{userID: userID, course: c, seq: seq, record: rec}, nil
}

func (pu *UseCaseImpl) initialRecord(userID, courseID string, seq *course.Sequence) *Record {
	now := pu.now()
	rec := &Record{
		UserID:    userID,
		CourseID:  courseID,
		Completed: NewLessonSet(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if first, ok := seq.First(); ok {
		rec.CurrentModuleID, rec.CurrentLessonID = first.Module.ID, first.Lesson.ID
	}
	return rec
}

// unlockedLesson resolves lessonID and checks its type before its accessibility
func (pu *UseCaseImpl) unlockedLesson(s *session, lessonID string, want course.LessonType) (course.Position, error) {
	pos, ok := s.seq.Lookup(lessonID)
	if !ok {
		return course.Position{}, fmt.Errorf("%w: lesson %s", ErrNotFound, lessonID)
	}
	if got := pos.Lesson.Content.Type(); got != want {
		return course.Position{}, fmt.Errorf("%w: lesson %s is a %s lesson", ErrWrongLessonType, lessonID, got)
	}
	if !IsLessonAccessible(s.seq, s.record.Completed, lessonID) {
		return course.Position{}, ErrLessonLocked
	}
	return pos, nil
}

// markLessonComplete set-adds lessonID, finishing the last lesson of a course without final test completes it
func (pu *UseCaseImpl) markLessonComplete(ctx context.Context, s *session, lessonID string) error {
	if s.record.Completed.Has(lessonID) {
		return nil
	}
	now := pu.now()
	if err := pu.Progress.AddCompletedLesson(ctx, s.userID, s.course.ID, lessonID, now); err != nil {
		return storage(err)
	}
	s.record.Completed.Add(lessonID)
	s.record.UpdatedAt = now
	logging.ExtractLoggerFromContext(ctx).Debug("lesson completed",
		zap.String("user.id", s.userID),
		zap.String("course.id", s.course.ID),
		zap.String("lesson.id", lessonID))

	if s.course.FinalTest == nil && allCompleted(s.seq, s.record.Completed) {
		return pu.markCourseComplete(ctx, s, now)
	}
	return nil
}

func (pu *UseCaseImpl) markCourseComplete(ctx context.Context, s *session, at time.Time) error {
	if s.record.CompletedAt != nil {
		return nil
	}
	if err := pu.Progress.MarkCompleted(ctx, s.userID, s.course.ID, at); err != nil {
		return storage(err)
	}
	s.record.CompletedAt = &at
	logging.ExtractLoggerFromContext(ctx).Info("course completed",
		zap.String("user.id", s.userID),
		zap.String("course.id", s.course.ID))
	return nil
}

// project derives the client view of the session record
func (pu *UseCaseImpl) project(ctx context.Context, s *session) (*Progress, error) {
	subs, err := pu.Submissions.ListByCourse(ctx, s.userID, s.course.ID)
	if err != nil {
		return nil, storage(err)
	}

	rec := s.record
	completed := completedInOrder(s.seq, rec.Completed)
	p := &Progress{
		UserID:                s.userID,
		CourseID:              s.course.ID,
		CompletedLessons:      completed,
		CurrentModuleID:       rec.CurrentModuleID,
		CurrentLessonID:       rec.CurrentLessonID,
		AssignmentSubmissions: make([]*AssignmentSubmission, 0, len(subs)),
		QuizResults:           rec.QuizResults,
		FinalTestResult:       rec.FinalTestResult,
		FinalTestAttempts:     rec.FinalTestAttempts,
		ProgressPercentage:    percentage(len(completed), s.seq.Len()),
		CompletedAt:           rec.CompletedAt,
		CreatedAt:             rec.CreatedAt,
		UpdatedAt:             rec.UpdatedAt,
	}
	if p.QuizResults == nil {
		p.QuizResults = []*QuizResult{}
	}
	for _, sub := range subs {
		p.AssignmentSubmissions = append(p.AssignmentSubmissions, &AssignmentSubmission{
			LessonID:       sub.LessonID,
			TextSubmission: sub.TextSubmission,
			FileURL:        sub.FileURL,
			Status:         sub.Status,
			SubmittedAt:    sub.SubmittedAt,
		})
	}

	lessonsDone := len(completed) == s.seq.Len()
	switch {
	case rec.CompletedAt != nil, lessonsDone && s.course.FinalTest == nil:
		p.Status = StatusCompleted
	case lessonsDone:
		p.Status = StatusFinalTestPending
	default:
		p.Status = StatusInProgress
	}
	p.Completed = p.Status == StatusCompleted
	return p, nil
}
