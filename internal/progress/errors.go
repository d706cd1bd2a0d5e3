package progress

import "errors"

// engine errors, match with errors.Is
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("not enrolled in course")
	ErrLessonLocked        = errors.New("lesson locked, complete the previous lessons first")
	ErrInvalidSubmission   = errors.New("invalid submission")
	ErrInvalidAnswerCount  = errors.New("answer count does not match question count")
	ErrWrongLessonType     = errors.New("operation not supported for this lesson type")
	ErrAlreadySubmitted    = errors.New("assignment already submitted")
	ErrPrerequisitesNotMet = errors.New("all lessons must be completed before the final test")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// ErrRecordAbsent returned by Repository.Load when no progress exists yet
var ErrRecordAbsent = errors.New("progress record absent")

// StorageError wraps a collaborator failure, it matches ErrStorageUnavailable and unwraps to the cause
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is .
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func storage(err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Err: err}
}
