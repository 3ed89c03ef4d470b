package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"enquete-backend/internal/model"
	"enquete-backend/internal/repository"
	"enquete-backend/utilities"
)

// SurveyDetail is a survey with its question counters.
type SurveyDetail struct {
	Survey          *model.Survey
	TotalQuestions  int
	ActiveQuestions int
}

type SurveyService interface {
	List(ctx context.Context) ([]model.Survey, error)
	ListOpen(ctx context.Context) ([]model.Survey, error)
	Get(ctx context.Context, id uint) (*SurveyDetail, error)
	GetForm(ctx context.Context, id uint) (*model.Survey, error)
	NormalizeQuestionKinds(ctx context.Context) (int, error)
}

type surveyService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSurveyService(conn *gorm.DB) SurveyService {
	return &surveyService{db: conn, now: time.Now}
}

func (s *surveyService) repo(ctx context.Context) repository.SurveyRepository {
	return repository.NewSurveyRepository(s.db.WithContext(ctx))
}

func (s *surveyService) List(ctx context.Context) ([]model.Survey, error) {
	return s.repo(ctx).ListSurveys(false, s.now())
}

// ListOpen returns the surveys accepting answers with their active
// questions and options.
func (s *surveyService) ListOpen(ctx context.Context) ([]model.Survey, error) {
	return s.repo(ctx).ListSurveys(true, s.now())
}

func (s *surveyService) Get(ctx context.Context, id uint) (*SurveyDetail, error) {
	survey, err := s.repo(ctx).GetSurveyDetail(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("survey %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	detail := &SurveyDetail{Survey: survey, TotalQuestions: len(survey.Questions)}
	for _, q := range survey.Questions {
		if q.Active {
			detail.ActiveQuestions++
		}
	}
	return detail, nil
}

// GetForm returns an open survey reduced to what a respondent may answer.
// Closed surveys are reported as not found.
func (s *surveyService) GetForm(ctx context.Context, id uint) (*model.Survey, error) {
	survey, err := s.repo(ctx).GetSurveyForm(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("survey %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !survey.IsOpen(s.now()) {
		return nil, fmt.Errorf("survey %d is closed: %w", id, ErrNotFound)
	}
	return survey, nil
}

// NormalizeQuestionKinds rewrites kinds stored with legacy spellings and
// returns how many questions changed. Unknown spellings are logged and left
// alone.
func (s *surveyService) NormalizeQuestionKinds(ctx context.Context) (int, error) {
	updated := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewSurveyRepository(tx)
		questions, err := repo.ListQuestions()
		if err != nil {
			return err
		}
		for _, q := range questions {
			kind, ok := model.NormalizeQuestionKind(string(q.Kind))
			if !ok {
				utilities.Warn("question %d has unknown kind %q", q.ID, q.Kind)
				continue
			}
			if kind == q.Kind {
				continue
			}
			if err := repo.UpdateQuestionKind(q.ID, kind); err != nil {
				return fmt.Errorf("update question %d: %w", q.ID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
