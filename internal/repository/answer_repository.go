package repository

import (
	"gorm.io/gorm"

	"enquete-backend/internal/model"
)

// OptionCount is the number of times an option was chosen for a question.
type OptionCount struct {
	QuestionID uint
	OptionID   uint
	Count      int64
}

// QuestionCount is the number of answer rows stored for a question.
type QuestionCount struct {
	QuestionID uint
	Count      int64
}

type AnswerRepository interface {
	CreateSingle(answer *model.SingleChoiceAnswer) error
	CreateMulti(answer *model.MultiChoiceAnswer) error
	CountBySubmission(submissionID string) (int64, error)
	SingleChoiceTally(questionIDs []uint) ([]OptionCount, error)
	MultiChoiceTally(questionIDs []uint) ([]OptionCount, error)
	QuestionTotals(questionIDs []uint) (map[uint]int64, error)
	CountForRespondent(respondentID uint) (int64, error)
	SurveysForRespondent(respondentID uint) (int64, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(conn *gorm.DB) AnswerRepository {
	return &answerRepository{db: conn}
}

func (r *answerRepository) CreateSingle(answer *model.SingleChoiceAnswer) error {
	return r.db.Omit("Respondent", "Question", "Option").Create(answer).Error
}

// CreateMulti stores the answer and links its options. The options must
// already exist; they are referenced, never written.
func (r *answerRepository) CreateMulti(answer *model.MultiChoiceAnswer) error {
	return r.db.Omit("Respondent", "Question", "Options.*").Create(answer).Error
}

// CountBySubmission counts the answer rows of both kinds written by one
// submission.
func (r *answerRepository) CountBySubmission(submissionID string) (int64, error) {
	var single, multi int64
	if err := r.db.Model(&model.SingleChoiceAnswer{}).Where("submission_id = ?", submissionID).Count(&single).Error; err != nil {
		return 0, err
	}
	if err := r.db.Model(&model.MultiChoiceAnswer{}).Where("submission_id = ?", submissionID).Count(&multi).Error; err != nil {
		return 0, err
	}
	return single + multi, nil
}

func (r *answerRepository) SingleChoiceTally(questionIDs []uint) ([]OptionCount, error) {
	var rows []OptionCount
	if len(questionIDs) == 0 {
		return rows, nil
	}
	err := r.db.Model(&model.SingleChoiceAnswer{}).
		Select("question_id, option_id, COUNT(*) AS count").
		Where("question_id IN ?", questionIDs).
		Group("question_id, option_id").
		Scan(&rows).Error
	return rows, err
}

func (r *answerRepository) MultiChoiceTally(questionIDs []uint) ([]OptionCount, error) {
	var rows []OptionCount
	if len(questionIDs) == 0 {
		return rows, nil
	}
	err := r.db.Table("multi_choice_answer_options AS mo").
		Select("ma.question_id AS question_id, mo.option_id AS option_id, COUNT(*) AS count").
		Joins("JOIN multi_choice_answers ma ON ma.id = mo.multi_choice_answer_id").
		Where("ma.question_id IN ?", questionIDs).
		Group("ma.question_id, mo.option_id").
		Scan(&rows).Error
	return rows, err
}

// QuestionTotals counts answer rows per question over both answer kinds.
func (r *answerRepository) QuestionTotals(questionIDs []uint) (map[uint]int64, error) {
	totals := make(map[uint]int64, len(questionIDs))
	if len(questionIDs) == 0 {
		return totals, nil
	}
	for _, m := range []interface{}{&model.SingleChoiceAnswer{}, &model.MultiChoiceAnswer{}} {
		var rows []QuestionCount
		err := r.db.Model(m).
			Select("question_id, COUNT(*) AS count").
			Where("question_id IN ?", questionIDs).
			Group("question_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			totals[row.QuestionID] += row.Count
		}
	}
	return totals, nil
}

func (r *answerRepository) CountForRespondent(respondentID uint) (int64, error) {
	var single, multi int64
	if err := r.db.Model(&model.SingleChoiceAnswer{}).Where("respondent_id = ?", respondentID).Count(&single).Error; err != nil {
		return 0, err
	}
	if err := r.db.Model(&model.MultiChoiceAnswer{}).Where("respondent_id = ?", respondentID).Count(&multi).Error; err != nil {
		return 0, err
	}
	return single + multi, nil
}

// SurveysForRespondent counts the distinct surveys the respondent answered.
func (r *answerRepository) SurveysForRespondent(respondentID uint) (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(DISTINCT q.survey_id) FROM questions q
		WHERE q.id IN (SELECT question_id FROM single_choice_answers WHERE respondent_id = ?)
		   OR q.id IN (SELECT question_id FROM multi_choice_answers WHERE respondent_id = ?)`,
		respondentID, respondentID).Scan(&count).Error
	return count, err
}
