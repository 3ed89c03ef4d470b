package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrIntegrity  = errors.New("integrity violation")
)

// SubmissionError describes why a submission was refused. Kind is one of
// ErrNotFound, ErrValidation or ErrIntegrity; QuestionID is zero when the
// failure is not tied to one question.
type SubmissionError struct {
	Kind       error
	QuestionID uint
	Reason     string
}

func (e *SubmissionError) Error() string {
	if e.QuestionID != 0 {
		return fmt.Sprintf("question %d: %s", e.QuestionID, e.Reason)
	}
	return e.Reason
}

func (e *SubmissionError) Unwrap() error {
	return e.Kind
}

func validationError(questionID uint, format string, args ...interface{}) *SubmissionError {
	return &SubmissionError{Kind: ErrValidation, QuestionID: questionID, Reason: fmt.Sprintf(format, args...)}
}

func notFoundError(questionID uint, format string, args ...interface{}) *SubmissionError {
	return &SubmissionError{Kind: ErrNotFound, QuestionID: questionID, Reason: fmt.Sprintf(format, args...)}
}

// classify maps store errors onto the submission error kinds. Errors it does
// not recognise are returned wrapped and count as unexpected.
func classify(err error) error {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &SubmissionError{Kind: ErrIntegrity, Reason: "the answers conflict with data stored concurrently"}
	}
	return fmt.Errorf("store answers: %w", err)
}
