// Package dbtest provides throwaway sqlite stores for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"enquete-backend/internal/db"
	"enquete-backend/internal/model"
)

// Open returns a migrated in-memory database private to t. Only one
// connection is kept open; inside a transaction use the transaction handle.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// Fixture ids of the survey created by Seed.
const (
	SurveyID       uint = 1
	SingleQuestion uint = 10
	MultiQuestion  uint = 11
	OptionA        uint = 100
	OptionB        uint = 101
	OptionX        uint = 200
	OptionY        uint = 201
	OptionZ        uint = 202
)

// Seed stores one open survey with a single-choice question (options 100 and
// 101) and a multi-choice question (options 200, 201 and 202).
func Seed(t *testing.T, conn *gorm.DB) *model.Survey {
	t.Helper()

	area := model.Area{ID: 1, Name: "Back-end"}
	if err := conn.Create(&area).Error; err != nil {
		t.Fatalf("seed area: %v", err)
	}
	survey := model.Survey{
		ID:     SurveyID,
		Title:  "Linguagens",
		Active: true,
		AreaID: area.ID,
		Questions: []model.Question{
			{
				ID: SingleQuestion, Text: "Qual linguagem você mais usa?", Kind: model.SingleChoice, Active: true,
				Options: []model.Option{
					{ID: OptionA, Text: "Go", Active: true, Order: 1, Weight: 1},
					{ID: OptionB, Text: "Python", Active: true, Order: 2, Weight: 3},
				},
			},
			{
				ID: MultiQuestion, Text: "Quais bancos você conhece?", Kind: model.MultiChoice, Active: true,
				Options: []model.Option{
					{ID: OptionX, Text: "PostgreSQL", Active: true, Order: 1, Weight: 1},
					{ID: OptionY, Text: "SQLite", Active: true, Order: 2, Weight: 1},
					{ID: OptionZ, Text: "Redis", Active: true, Order: 3, Weight: 1},
				},
			},
		},
	}
	if err := conn.Create(&survey).Error; err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	return &survey
}

// CreateSurvey stores an extra survey in the area created by Seed, with one
// single-choice question and the given option ids.
func CreateSurvey(t *testing.T, conn *gorm.DB, id uint, active bool, expiresAt *time.Time, questionID uint, optionIDs ...uint) *model.Survey {
	t.Helper()

	q := model.Question{ID: questionID, Text: fmt.Sprintf("Pergunta %d", questionID), Kind: model.SingleChoice, Active: true}
	for i, oid := range optionIDs {
		q.Options = append(q.Options, model.Option{ID: oid, Text: fmt.Sprintf("Opção %d", oid), Active: true, Order: i + 1, Weight: 1})
	}
	survey := model.Survey{
		ID:        id,
		Title:     fmt.Sprintf("Enquete %d", id),
		Active:    active,
		ExpiresAt: expiresAt,
		AreaID:    1,
		Questions: []model.Question{q},
	}
	if err := conn.Create(&survey).Error; err != nil {
		t.Fatalf("create survey %d: %v", id, err)
	}
	return &survey
}
