package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unifreelancer/academy/internal/course"
	"github.com/unifreelancer/academy/internal/infrastructure/auth"
	"github.com/unifreelancer/academy/internal/infrastructure/validate"
	"github.com/unifreelancer/academy/internal/progress"
)

type selectLessonForm struct {
	ModuleID string `json:"moduleId" validate:"required,max=64"`
	LessonID string `json:"lessonId" validate:"required,max=64"`
}

type answersForm struct {
	Answers []course.Answer `json:"answers" validate:"required,max=500"`
}

// errorKinds maps engine errors to status codes, first match wins
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{progress.ErrStorageUnavailable, http.StatusInternalServerError, "storage_unavailable"},
	{progress.ErrNotFound, http.StatusNotFound, "not_found"},
	{progress.ErrUnauthorized, http.StatusForbidden, "not_enrolled"},
	{progress.ErrLessonLocked, http.StatusForbidden, "lesson_locked"},
	{progress.ErrPrerequisitesNotMet, http.StatusForbidden, "prerequisites_not_met"},
	{progress.ErrInvalidSubmission, http.StatusBadRequest, "invalid_submission"},
	{progress.ErrInvalidAnswerCount, http.StatusBadRequest, "invalid_answer_count"},
	{progress.ErrWrongLessonType, http.StatusBadRequest, "wrong_lesson_type"},
	{progress.ErrAlreadySubmitted, http.StatusConflict, "already_submitted"},
}

// ProgressHandler course progress endpoints
type ProgressHandler struct {
	useCase   progress.UseCase
	validator validate.Validator
	jwtUtil   *auth.JWTUtil
}

// NewProgressHandler .
func NewProgressHandler(
	ProgressUseCase progress.UseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *ProgressHandler {
	return &ProgressHandler{ProgressUseCase, Validator, JWTUtil}
}

func (ph *ProgressHandler) HandleGetProgress(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		p, err := ph.useCase.GetProgress(ctx, userID, c.Param("courseId"))
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusOK, p)
	})
}

func (ph *ProgressHandler) HandleSelectLesson(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		form := new(selectLessonForm)
		if ok, err := ph.bind(c, form); !ok {
			return err
		}
		p, err := ph.useCase.SelectLesson(ctx, userID, c.Param("courseId"), form.ModuleID, form.LessonID)
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusOK, p)
	})
}

func (ph *ProgressHandler) HandleCompleteLesson(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		p, err := ph.useCase.CompleteLesson(ctx, userID, c.Param("courseId"), c.Param("lessonId"))
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusOK, p)
	})
}

func (ph *ProgressHandler) HandleSubmitAssignment(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		form := new(progress.AssignmentForm)
		if ok, err := ph.bind(c, form); !ok {
			return err
		}
		rec, err := ph.useCase.SubmitAssignment(ctx, userID, c.Param("courseId"), c.Param("lessonId"), form)
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusCreated, rec)
	})
}

func (ph *ProgressHandler) HandleGetAssignment(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		rec, err := ph.useCase.GetAssignment(ctx, userID, c.Param("courseId"), c.Param("lessonId"))
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusOK, rec)
	})
}

func (ph *ProgressHandler) HandleSubmitQuiz(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		form := new(answersForm)
		if ok, err := ph.bind(c, form); !ok {
			return err
		}
		qr, err := ph.useCase.SubmitQuiz(ctx, userID, c.Param("courseId"), c.Param("lessonId"), form.Answers)
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusOK, qr)
	})
}

func (ph *ProgressHandler) HandleSubmitFinalTest(c echo.Context) error {
	return ph.withUser(c, func(ctx context.Context, userID string) error {
		form := new(answersForm)
		if ok, err := ph.bind(c, form); !ok {
			return err
		}
		outcome, err := ph.useCase.SubmitFinalTest(ctx, userID, c.Param("courseId"), form.Answers)
		if err != nil {
			return ph.fail(c, err)
		}
		return c.JSON(http.StatusOK, outcome)
	})
}

func (ph *ProgressHandler) withUser(c echo.Context, fn func(ctx context.Context, userID string) error) error {
	claims := ph.jwtUtil.GetContextToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized,
			NewRESTStandardError(http.StatusUnauthorized, "missing token").SetTraceID(traceID(c)))
	}
	return fn(c.Request().Context(), claims.UID)
}

// bind decodes and validates the body, on failure the 400 response is already written
func (ph *ProgressHandler) bind(c echo.Context, form interface{}) (bool, error) {
	if err := c.Bind(form); err != nil {
		detail := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			detail = fmt.Sprint(he.Message)
		}
		return false, c.JSON(http.StatusBadRequest,
			NewRESTStandardError(http.StatusBadRequest, detail).SetType("malformed_body").SetTraceID(traceID(c)))
	}
	if errs := ph.validator.Struct(form); errs != nil {
		return false, c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs).SetTraceID(traceID(c)))
	}
	return true, nil
}

// fail renders engine errors, anything unknown goes to the error handling middleware
func (ph *ProgressHandler) fail(c echo.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusServiceUnavailable,
			NewRESTStandardError(http.StatusServiceUnavailable, "request timed out").SetType("timeout").SetTraceID(traceID(c)))
	}
	for _, ek := range errorKinds {
		if !errors.Is(err, ek.err) {
			continue
		}
		if ek.status >= http.StatusInternalServerError {
			return err
		}
		return c.JSON(ek.status, NewRESTStandardError(ek.status, err.Error()).SetType(ek.kind).SetTraceID(traceID(c)))
	}
	return err
}

func traceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
