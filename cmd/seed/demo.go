package main

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"enquete-backend/internal/model"
	"enquete-backend/internal/repository"
)

const demoTitle = "Tecnologias de desenvolvimento web"

// createDemo stores a demo area, two technologies and an open survey. It does
// nothing when the demo survey already exists.
func createDemo(conn *gorm.DB) (*model.Survey, bool, error) {
	var survey *model.Survey
	created := false
	err := conn.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewSurveyRepository(tx)
		existing, err := repo.FindSurveyByTitle(demoTitle)
		if err == nil {
			survey = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		area := model.Area{Name: "Desenvolvimento Web", Description: "Front-end, back-end e infraestrutura"}
		if err := repo.CreateArea(&area); err != nil {
			return err
		}
		golang := model.Technology{Name: "Go", Description: "Linguagem compilada do Google"}
		python := model.Technology{Name: "Python", Description: "Linguagem interpretada de uso geral"}
		for _, tech := range []*model.Technology{&golang, &python} {
			if err := repo.CreateTechnology(tech); err != nil {
				return err
			}
		}

		expires := time.Now().AddDate(0, 3, 0)
		survey = &model.Survey{
			Title:        demoTitle,
			Description:  "Conte quais tecnologias você usa no dia a dia.",
			Active:       true,
			ExpiresAt:    &expires,
			AreaID:       area.ID,
			Technologies: []model.Technology{golang, python},
			Questions: []model.Question{
				{
					Text: "Qual linguagem você usa no back-end?", Kind: model.SingleChoice, Active: true, TechnologyID: &golang.ID,
					Options: []model.Option{
						{Text: "Go", Active: true, Order: 1, Weight: 3},
						{Text: "Python", Active: true, Order: 2, Weight: 2},
						{Text: "Outra", Active: true, Order: 3, Weight: 1},
					},
				},
				{
					Text: "Quais bancos de dados você conhece?", Kind: model.MultiChoice, Active: true,
					Options: []model.Option{
						{Text: "PostgreSQL", Active: true, Order: 1, Weight: 1},
						{Text: "Redis", Active: true, Order: 2, Weight: 1},
						{Text: "SQLite", Active: true, Order: 3, Weight: 1},
						{Text: "MongoDB", Active: true, Order: 4, Weight: 1},
					},
				},
			},
		}
		// Technologies were just inserted; only link them.
		if err := tx.Omit("Technologies.*").Create(survey).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return survey, created, nil
}
