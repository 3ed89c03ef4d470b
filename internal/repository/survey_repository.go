package repository

import (
	"time"

	"gorm.io/gorm"

	"enquete-backend/internal/model"
)

type SurveyRepository interface {
	GetSurvey(id uint) (*model.Survey, error)
	ListSurveys(openOnly bool, now time.Time) ([]model.Survey, error)
	GetSurveyDetail(id uint) (*model.Survey, error)
	GetSurveyForm(id uint) (*model.Survey, error)
	FindSurveyByTitle(title string) (*model.Survey, error)
	GetQuestionInSurvey(surveyID, questionID uint) (*model.Question, error)
	FindOptions(questionID uint, ids []uint) ([]model.Option, error)
	ListQuestions() ([]model.Question, error)
	UpdateQuestionKind(questionID uint, kind model.QuestionKind) error
	CreateArea(area *model.Area) error
	CreateTechnology(tech *model.Technology) error
	CreateSurvey(survey *model.Survey) error
}

type surveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository works on conn, which may be a transaction.
func NewSurveyRepository(conn *gorm.DB) SurveyRepository {
	return &surveyRepository{db: conn}
}

func activeQuestions(tx *gorm.DB) *gorm.DB {
	return tx.Where("active = ?", true).Order("id")
}

func activeOptions(tx *gorm.DB) *gorm.DB {
	return tx.Where("active = ?", true).Order("sort_order, id")
}

func allQuestions(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}

func allOptions(tx *gorm.DB) *gorm.DB {
	return tx.Order("sort_order, id")
}

func (r *surveyRepository) GetSurvey(id uint) (*model.Survey, error) {
	var survey model.Survey
	if err := r.db.First(&survey, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &survey, nil
}

// ListSurveys returns surveys newest first. With openOnly only surveys that
// accept answers at now are listed, each with its active questions and
// options.
func (r *surveyRepository) ListSurveys(openOnly bool, now time.Time) ([]model.Survey, error) {
	var surveys []model.Survey
	q := r.db.Model(&model.Survey{})
	if openOnly {
		q = q.Where("active = ? AND (expires_at IS NULL OR expires_at > ?)", true, now).
			Preload("Questions", activeQuestions).
			Preload("Questions.Options", activeOptions)
	} else {
		q = q.Preload("Questions", allQuestions).
			Preload("Questions.Options", allOptions)
	}
	err := q.Order("created_at desc, id desc").Find(&surveys).Error
	return surveys, err
}

func (r *surveyRepository) GetSurveyDetail(id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.db.Preload("Area").
		Preload("Technologies", func(tx *gorm.DB) *gorm.DB { return tx.Order("name") }).
		Preload("Questions", allQuestions).
		Preload("Questions.Options", allOptions).
		First(&survey, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &survey, nil
}

// GetSurveyForm loads a survey with only its active questions and options.
func (r *surveyRepository) GetSurveyForm(id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.db.Preload("Questions", activeQuestions).
		Preload("Questions.Options", activeOptions).
		First(&survey, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &survey, nil
}

func (r *surveyRepository) FindSurveyByTitle(title string) (*model.Survey, error) {
	var survey model.Survey
	if err := r.db.Where("title = ?", title).First(&survey).Error; err != nil {
		return nil, notFound(err)
	}
	return &survey, nil
}

func (r *surveyRepository) GetQuestionInSurvey(surveyID, questionID uint) (*model.Question, error) {
	var question model.Question
	err := r.db.Where("id = ? AND survey_id = ?", questionID, surveyID).First(&question).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

// FindOptions returns the options of questionID among ids, active or not.
// Ids that do not exist or belong to another question are left out.
func (r *surveyRepository) FindOptions(questionID uint, ids []uint) ([]model.Option, error) {
	var options []model.Option
	if len(ids) == 0 {
		return options, nil
	}
	err := r.db.Where("question_id = ? AND id IN ?", questionID, ids).
		Order("sort_order, id").
		Find(&options).Error
	return options, err
}

func (r *surveyRepository) ListQuestions() ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Order("id").Find(&questions).Error
	return questions, err
}

func (r *surveyRepository) UpdateQuestionKind(questionID uint, kind model.QuestionKind) error {
	res := r.db.Model(&model.Question{}).Where("id = ?", questionID).Update("kind", kind)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *surveyRepository) CreateArea(area *model.Area) error {
	return r.db.Create(area).Error
}

func (r *surveyRepository) CreateTechnology(tech *model.Technology) error {
	return r.db.Create(tech).Error
}

func (r *surveyRepository) CreateSurvey(survey *model.Survey) error {
	return r.db.Create(survey).Error
}
