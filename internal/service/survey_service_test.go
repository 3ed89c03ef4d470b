package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"enquete-backend/internal/db/dbtest"
	"enquete-backend/internal/model"
)

func TestSurveyCatalog(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.Seed(t, conn)
	past := time.Now().Add(-time.Hour)
	dbtest.CreateSurvey(t, conn, 2, true, &past, 20, 300)
	if err := conn.Model(&model.Question{}).Where("id = ?", dbtest.MultiQuestion).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate question: %v", err)
	}
	svc := NewSurveyService(conn)
	ctx := context.Background()

	open, err := svc.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(open) != 1 || len(open[0].Questions) != 1 {
		t.Fatalf("open = %+v", open)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all surveys = %d, want 2", len(all))
	}

	detail, err := svc.Get(ctx, dbtest.SurveyID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.TotalQuestions != 2 || detail.ActiveQuestions != 1 || detail.Survey.Area == nil {
		t.Fatalf("detail = %+v", detail)
	}
	if _, err := svc.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(99) err = %v", err)
	}

	form, err := svc.GetForm(ctx, dbtest.SurveyID)
	if err != nil {
		t.Fatalf("GetForm: %v", err)
	}
	if len(form.Questions) != 1 || form.Questions[0].ID != dbtest.SingleQuestion {
		t.Fatalf("form questions = %+v", form.Questions)
	}
	if _, err := svc.GetForm(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetForm(expired) err = %v, want ErrNotFound", err)
	}
}

func TestNormalizeQuestionKinds(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.Seed(t, conn)
	dbtest.CreateSurvey(t, conn, 2, true, nil, 20, 300)
	legacy := map[uint]string{dbtest.SingleQuestion: "UNICA_ESCOLHA", dbtest.MultiQuestion: "multipla", 20: "ranking"}
	for id, kind := range legacy {
		if err := conn.Model(&model.Question{}).Where("id = ?", id).Update("kind", kind).Error; err != nil {
			t.Fatalf("set legacy kind: %v", err)
		}
	}

	n, err := NewSurveyService(conn).NormalizeQuestionKinds(context.Background())
	if err != nil {
		t.Fatalf("NormalizeQuestionKinds: %v", err)
	}
	if n != 2 {
		t.Fatalf("updated = %d, want 2", n)
	}

	want := map[uint]model.QuestionKind{dbtest.SingleQuestion: model.SingleChoice, dbtest.MultiQuestion: model.MultiChoice, 20: "ranking"}
	for id, kind := range want {
		var q model.Question
		if err := conn.First(&q, id).Error; err != nil {
			t.Fatalf("load question %d: %v", id, err)
		}
		if q.Kind != kind {
			t.Fatalf("question %d kind = %q, want %q", id, q.Kind, kind)
		}
	}
}
