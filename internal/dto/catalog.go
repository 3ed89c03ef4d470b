package dto

import (
	"time"

	"enquete-backend/internal/model"
	"enquete-backend/internal/service"
)

type OptionView struct {
	ID    uint   `json:"id"`
	Texto string `json:"texto"`
	Ordem int    `json:"ordem"`
	Peso  int    `json:"peso"`
	Ativa bool   `json:"ativa"`
}

type QuestionView struct {
	ID     uint               `json:"id"`
	Texto  string             `json:"texto"`
	Tipo   model.QuestionKind `json:"tipo"`
	Ativa  bool               `json:"ativa"`
	Opcoes []OptionView       `json:"opcoes"`
}

type SurveyView struct {
	ID            uint           `json:"id"`
	Titulo        string         `json:"titulo"`
	Descricao     string         `json:"descricao"`
	DataCriacao   time.Time      `json:"data_criacao"`
	DataExpiracao *time.Time     `json:"data_expiracao"`
	Ativa         bool           `json:"ativa"`
	AreaID        uint           `json:"area_id"`
	Perguntas     []QuestionView `json:"perguntas"`
}

type AreaView struct {
	ID   uint   `json:"id"`
	Nome string `json:"nome"`
	Slug string `json:"slug"`
}

type TechnologyView struct {
	ID   uint   `json:"id"`
	Nome string `json:"nome"`
}

// SurveyDetailView adds the area, technologies and question counters.
type SurveyDetailView struct {
	SurveyView
	Area            *AreaView        `json:"area,omitempty"`
	Tecnologias     []TechnologyView `json:"tecnologias"`
	TotalPerguntas  int              `json:"total_perguntas"`
	PerguntasAtivas int              `json:"perguntas_ativas"`
}

func NewSurveyView(s model.Survey) SurveyView {
	v := SurveyView{
		ID:            s.ID,
		Titulo:        s.Title,
		Descricao:     s.Description,
		DataCriacao:   s.CreatedAt,
		DataExpiracao: s.ExpiresAt,
		Ativa:         s.Active,
		AreaID:        s.AreaID,
		Perguntas:     make([]QuestionView, 0, len(s.Questions)),
	}
	for _, q := range s.Questions {
		qv := QuestionView{ID: q.ID, Texto: q.Text, Tipo: q.Kind, Ativa: q.Active, Opcoes: make([]OptionView, 0, len(q.Options))}
		for _, o := range q.Options {
			qv.Opcoes = append(qv.Opcoes, OptionView{ID: o.ID, Texto: o.Text, Ordem: o.Order, Peso: o.Weight, Ativa: o.Active})
		}
		v.Perguntas = append(v.Perguntas, qv)
	}
	return v
}

func NewSurveyViews(surveys []model.Survey) []SurveyView {
	views := make([]SurveyView, 0, len(surveys))
	for _, s := range surveys {
		views = append(views, NewSurveyView(s))
	}
	return views
}

func NewSurveyDetailView(d *service.SurveyDetail) SurveyDetailView {
	v := SurveyDetailView{
		SurveyView:      NewSurveyView(*d.Survey),
		Tecnologias:     make([]TechnologyView, 0, len(d.Survey.Technologies)),
		TotalPerguntas:  d.TotalQuestions,
		PerguntasAtivas: d.ActiveQuestions,
	}
	if a := d.Survey.Area; a != nil {
		v.Area = &AreaView{ID: a.ID, Nome: a.Name, Slug: a.Slug}
	}
	for _, t := range d.Survey.Technologies {
		v.Tecnologias = append(v.Tecnologias, TechnologyView{ID: t.ID, Nome: t.Name})
	}
	return v
}
