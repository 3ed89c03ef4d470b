package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// QuestionKind drives how an answer to a question is validated and stored.
type QuestionKind string

const (
	SingleChoice QuestionKind = "SINGLE_CHOICE"
	MultiChoice  QuestionKind = "MULTI_CHOICE"
)

func (k QuestionKind) Valid() bool {
	return k == SingleChoice || k == MultiChoice
}

// NormalizeQuestionKind maps kinds stored by older releases onto the
// current constants. ok is false when raw is not a known spelling.
func NormalizeQuestionKind(raw string) (QuestionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "single_choice", "unica", "unica_escolha":
		return SingleChoice, true
	case "multi_choice", "multipla", "multipla_escolha":
		return MultiChoice, true
	}
	return "", false
}

// RespondentLevel is the self-declared experience level of a respondent.
type RespondentLevel string

const (
	LevelBeginner     RespondentLevel = "beginner"
	LevelIntermediate RespondentLevel = "intermediate"
	LevelAdvanced     RespondentLevel = "advanced"
)

type Area struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"nome" gorm:"size:100;not null;uniqueIndex"`
	Description string    `json:"descricao"`
	Slug        string    `json:"slug" gorm:"size:120;uniqueIndex"`
	Surveys     []Survey  `json:"-" gorm:"foreignKey:AreaID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// BeforeSave fills the slug from the name when none was given.
func (a *Area) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(a.Slug) == "" {
		a.Slug = Slugify(a.Name)
	}
	return nil
}

type Technology struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"nome" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"descricao"`
}

type Survey struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Title        string       `json:"titulo" gorm:"size:200;not null"`
	Description  string       `json:"descricao"`
	CreatedAt    time.Time    `json:"data_criacao"`
	UpdatedAt    time.Time    `json:"-"`
	ExpiresAt    *time.Time   `json:"data_expiracao"`
	Active       bool         `json:"ativa" gorm:"not null"`
	AreaID       uint         `json:"area_id" gorm:"not null;index"`
	Area         *Area        `json:"area,omitempty"`
	Technologies []Technology `json:"tecnologias" gorm:"many2many:survey_technologies"`
	Questions    []Question   `json:"perguntas" gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
}

// IsOpen reports whether the survey currently accepts answers.
func (s *Survey) IsOpen(now time.Time) bool {
	if !s.Active {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	SurveyID     uint         `json:"enquete_id" gorm:"not null;index"`
	Text         string       `json:"texto" gorm:"type:text;not null"`
	Kind         QuestionKind `json:"tipo" gorm:"size:20;not null"`
	Active       bool         `json:"ativa" gorm:"not null"`
	TechnologyID *uint        `json:"tecnologia_id"`
	Technology   *Technology  `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Options      []Option     `json:"opcoes" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"pergunta_id" gorm:"not null;index"`
	Text       string `json:"texto" gorm:"size:255;not null"`
	Active     bool   `json:"ativa" gorm:"not null"`
	Order      int    `json:"ordem" gorm:"column:sort_order;not null;default:0"`
	Weight     int    `json:"peso" gorm:"not null"`
}

type Respondent struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	AccountID    *uint           `json:"account_id" gorm:"uniqueIndex"`
	Name         string          `json:"nome" gorm:"size:100;not null"`
	Email        *string         `json:"email" gorm:"size:254;uniqueIndex"`
	EnrolledAt   time.Time       `json:"data_inscricao" gorm:"autoCreateTime"`
	Level        RespondentLevel `json:"nivel" gorm:"size:20;not null;default:beginner"`
	Technologies []Technology    `json:"tecnologias_interesse" gorm:"many2many:respondent_technologies"`
}

// SingleChoiceAnswer is one submitted selection for a single-choice question.
// RespondentID is nil for anonymous submissions.
type SingleChoiceAnswer struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	SubmissionID string      `json:"submission_id" gorm:"size:36;not null;index"`
	RespondentID *uint       `json:"aluno_id" gorm:"index"`
	Respondent   *Respondent `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	QuestionID   uint        `json:"pergunta_id" gorm:"not null;index"`
	Question     *Question   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	OptionID     uint        `json:"opcao_id" gorm:"not null;index"`
	Option       *Option     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AnsweredAt   time.Time   `json:"data_resposta" gorm:"not null"`
}

// MultiChoiceAnswer is one submitted option set for a multi-choice question.
type MultiChoiceAnswer struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	SubmissionID string      `json:"submission_id" gorm:"size:36;not null;index"`
	RespondentID *uint       `json:"aluno_id" gorm:"index"`
	Respondent   *Respondent `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	QuestionID   uint        `json:"pergunta_id" gorm:"not null;index"`
	Question     *Question   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Options      []Option    `json:"opcoes" gorm:"many2many:multi_choice_answer_options;constraint:OnDelete:CASCADE"`
	AnsweredAt   time.Time   `json:"data_resposta" gorm:"not null"`
}

// Account is the identity of an authenticated caller. Accounts are owned by
// the identity provider and are not stored here; a Respondent links to one
// through AccountID.
type Account struct {
	ID       uint
	Username string
	Email    string
}
