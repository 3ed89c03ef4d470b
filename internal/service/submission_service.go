package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"enquete-backend/internal/model"
	"enquete-backend/internal/repository"
	"enquete-backend/utilities"
)

// Selection is the option choice for one question. Multiple records whether
// the caller sent a list, which must agree with the question kind.
type Selection struct {
	OptionIDs []uint
	Multiple  bool
}

// Single selects exactly one option.
func Single(optionID uint) Selection {
	return Selection{OptionIDs: []uint{optionID}}
}

// Multiple selects a set of options.
func Multiple(optionIDs ...uint) Selection {
	return Selection{OptionIDs: optionIDs, Multiple: true}
}

type AnswerInput struct {
	QuestionID uint
	Selection  Selection
}

// SubmissionRequest is one batch of answers to a survey. Account is nil for
// anonymous callers.
type SubmissionRequest struct {
	SurveyID uint
	Answers  []AnswerInput
	Account  *model.Account
}

// SubmissionReceipt acknowledges a stored submission.
type SubmissionReceipt struct {
	SubmissionID      string    `json:"submission_id"`
	SurveyID          uint      `json:"enquete_id"`
	RespondentID      *uint     `json:"aluno_id"`
	RespondentCreated bool      `json:"aluno_criado"`
	SingleChoice      int       `json:"respostas_unica"`
	MultiChoice       int       `json:"respostas_multipla"`
	SubmittedAt       time.Time `json:"data_resposta"`
}

// EventPublisher receives the receipt of every committed submission.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type SubmissionService interface {
	Submit(ctx context.Context, req SubmissionRequest) (*SubmissionReceipt, error)
}

type submissionService struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
	newID  func() string
}

// NewSubmissionService returns the workflow shared by every adapter. events
// may be nil.
func NewSubmissionService(conn *gorm.DB, events EventPublisher) SubmissionService {
	return &submissionService{
		db:     conn,
		events: events,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

type plannedAnswer struct {
	question *model.Question
	options  []model.Option
}

// Submit validates every answer and stores them all in one transaction.
// Nothing is written unless the whole batch is valid.
func (s *submissionService) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionReceipt, error) {
	if len(req.Answers) == 0 {
		return nil, validationError(0, "no answers provided")
	}

	now := s.now()
	receipt := &SubmissionReceipt{
		SubmissionID: s.newID(),
		SurveyID:     req.SurveyID,
		SubmittedAt:  now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		surveys := repository.NewSurveyRepository(tx)

		survey, err := surveys.GetSurvey(req.SurveyID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(0, "survey %d not found", req.SurveyID)
		}
		if err != nil {
			return err
		}
		if !survey.IsOpen(now) {
			return notFoundError(0, "survey %d is not open for answers", req.SurveyID)
		}

		if req.Account != nil {
			respondent, created, err := repository.NewRespondentRepository(tx).GetOrCreateForAccount(*req.Account)
			if err != nil {
				return err
			}
			receipt.RespondentID = &respondent.ID
			receipt.RespondentCreated = created
		}

		planned, err := planAnswers(surveys, survey.ID, req.Answers)
		if err != nil {
			return err
		}

		answers := repository.NewAnswerRepository(tx)
		for _, p := range planned {
			switch p.question.Kind {
			case model.SingleChoice:
				row := model.SingleChoiceAnswer{
					SubmissionID: receipt.SubmissionID,
					RespondentID: receipt.RespondentID,
					QuestionID:   p.question.ID,
					OptionID:     p.options[0].ID,
					AnsweredAt:   now,
				}
				if err := answers.CreateSingle(&row); err != nil {
					return err
				}
				receipt.SingleChoice++
			case model.MultiChoice:
				row := model.MultiChoiceAnswer{
					SubmissionID: receipt.SubmissionID,
					RespondentID: receipt.RespondentID,
					QuestionID:   p.question.ID,
					Options:      p.options,
					AnsweredAt:   now,
				}
				if err := answers.CreateMulti(&row); err != nil {
					return err
				}
				receipt.MultiChoice++
			}
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			utilities.Warn("submission to survey %d refused: %v", req.SurveyID, err)
		} else {
			utilities.Error("submission to survey %d failed: %v", req.SurveyID, err)
		}
		return nil, err
	}

	utilities.Info("stored submission %s for survey %d (%d single, %d multi)",
		receipt.SubmissionID, receipt.SurveyID, receipt.SingleChoice, receipt.MultiChoice)
	if s.events != nil {
		s.events.Publish(utilities.EventSubmissionRecorded, *receipt)
	}
	return receipt, nil
}

// planAnswers checks each answer in order and resolves its options.
func planAnswers(surveys repository.SurveyRepository, surveyID uint, inputs []AnswerInput) ([]plannedAnswer, error) {
	planned := make([]plannedAnswer, 0, len(inputs))
	seen := make(map[uint]bool, len(inputs))

	for _, in := range inputs {
		qid := in.QuestionID
		if qid == 0 {
			return nil, validationError(0, "incomplete answer data: missing question id")
		}
		if seen[qid] {
			return nil, validationError(qid, "question answered more than once")
		}
		seen[qid] = true

		question, err := surveys.GetQuestionInSurvey(surveyID, qid)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError(qid, "question not found in survey %d", surveyID)
		}
		if err != nil {
			return nil, err
		}
		if !question.Active {
			return nil, validationError(qid, "question is not active")
		}

		ids := in.Selection.OptionIDs
		switch question.Kind {
		case model.SingleChoice:
			if in.Selection.Multiple || len(ids) > 1 {
				return nil, validationError(qid, "single-choice question expects one option id, not a list")
			}
		case model.MultiChoice:
			if !in.Selection.Multiple {
				return nil, validationError(qid, "multiple-choice question expects a list of option ids")
			}
		default:
			return nil, validationError(qid, "unsupported question kind %q", question.Kind)
		}
		if len(ids) == 0 {
			return nil, validationError(qid, "no option selected")
		}

		options, err := surveys.FindOptions(qid, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]model.Option, len(options))
		for _, o := range options {
			byID[o.ID] = o
		}
		for _, id := range ids {
			o, ok := byID[id]
			if !ok {
				return nil, validationError(qid, "option %d does not belong to this question", id)
			}
			if !o.Active {
				return nil, validationError(qid, "option %d is not active", id)
			}
		}
		if len(options) != len(ids) {
			return nil, validationError(qid, "option ids must not repeat")
		}

		planned = append(planned, plannedAnswer{question: question, options: options})
	}
	return planned, nil
}
