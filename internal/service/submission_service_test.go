package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"enquete-backend/internal/db/dbtest"
	"enquete-backend/internal/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.data = append(p.data, data)
}

func newTestSubmission(t *testing.T) (*submissionService, *gorm.DB, *recordingPublisher) {
	t.Helper()
	conn := dbtest.Open(t)
	dbtest.Seed(t, conn)
	pub := &recordingPublisher{}
	seq := 0
	svc := &submissionService{
		db:     conn,
		events: pub,
		now:    time.Now,
		newID: func() string {
			seq++
			return fmt.Sprintf("sub-%d", seq)
		},
	}
	return svc, conn, pub
}

func countAnswers(t *testing.T, conn *gorm.DB) (single, multi, links int64) {
	t.Helper()
	if err := conn.Model(&model.SingleChoiceAnswer{}).Count(&single).Error; err != nil {
		t.Fatalf("count single: %v", err)
	}
	if err := conn.Model(&model.MultiChoiceAnswer{}).Count(&multi).Error; err != nil {
		t.Fatalf("count multi: %v", err)
	}
	if err := conn.Table("multi_choice_answer_options").Count(&links).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	return single, multi, links
}

func assertNothingStored(t *testing.T, conn *gorm.DB) {
	t.Helper()
	single, multi, links := countAnswers(t, conn)
	if single != 0 || multi != 0 || links != 0 {
		t.Fatalf("stored rows single=%d multi=%d links=%d, want none", single, multi, links)
	}
}

func assertSubmissionError(t *testing.T, err error, kind error, questionID uint) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want kind %v", err, kind)
	}
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("err = %T, want *SubmissionError", err)
	}
	if subErr.QuestionID != questionID {
		t.Fatalf("question id = %d, want %d (%v)", subErr.QuestionID, questionID, err)
	}
}

func TestSubmitSingleAndMulti(t *testing.T) {
	svc, conn, pub := newTestSubmission(t)

	receipt, err := svc.Submit(context.Background(), SubmissionRequest{
		SurveyID: dbtest.SurveyID,
		Answers: []AnswerInput{
			{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)},
			{QuestionID: dbtest.MultiQuestion, Selection: Multiple(dbtest.OptionZ, dbtest.OptionX)},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.SingleChoice != 1 || receipt.MultiChoice != 1 || receipt.RespondentID != nil {
		t.Fatalf("receipt = %+v", receipt)
	}

	var singles []model.SingleChoiceAnswer
	if err := conn.Find(&singles).Error; err != nil {
		t.Fatalf("load single answers: %v", err)
	}
	if len(singles) != 1 {
		t.Fatalf("single answers = %d, want 1", len(singles))
	}
	s := singles[0]
	if s.QuestionID != dbtest.SingleQuestion || s.OptionID != dbtest.OptionA || s.RespondentID != nil || s.SubmissionID != "sub-1" {
		t.Fatalf("single answer = %+v", s)
	}

	var multis []model.MultiChoiceAnswer
	if err := conn.Preload("Options").Find(&multis).Error; err != nil {
		t.Fatalf("load multi answers: %v", err)
	}
	if len(multis) != 1 {
		t.Fatalf("multi answers = %d, want 1", len(multis))
	}
	var ids []uint
	for _, o := range multis[0].Options {
		ids = append(ids, o.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 2 || ids[0] != dbtest.OptionX || ids[1] != dbtest.OptionZ {
		t.Fatalf("multi options = %v, want [200 202]", ids)
	}
	if multis[0].SubmissionID != "sub-1" || !multis[0].AnsweredAt.Equal(s.AnsweredAt) {
		t.Fatalf("rows of one submission must share id and time: %+v vs %+v", multis[0], s)
	}

	if len(pub.events) != 1 || pub.events[0] != "submission_recorded" {
		t.Fatalf("events = %v", pub.events)
	}
	if got, ok := pub.data[0].(SubmissionReceipt); !ok || got.SubmissionID != "sub-1" {
		t.Fatalf("event payload = %+v", pub.data[0])
	}
}

func TestSubmitRejections(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	cases := []struct {
		name       string
		setup      func(t *testing.T, conn *gorm.DB)
		surveyID   uint
		answers    []AnswerInput
		kind       error
		questionID uint
	}{
		{
			name:     "empty batch",
			surveyID: dbtest.SurveyID,
			kind:     ErrValidation,
		},
		{
			name:       "list for single choice",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Multiple(dbtest.OptionA)}},
			kind:       ErrValidation,
			questionID: dbtest.SingleQuestion,
		},
		{
			name:       "single id for multi choice",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.MultiQuestion, Selection: Single(dbtest.OptionX)}},
			kind:       ErrValidation,
			questionID: dbtest.MultiQuestion,
		},
		{
			name:       "unknown option",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(999)}},
			kind:       ErrValidation,
			questionID: dbtest.SingleQuestion,
		},
		{
			name:       "option of another question",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionX)}},
			kind:       ErrValidation,
			questionID: dbtest.SingleQuestion,
		},
		{
			name:       "partial option set",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.MultiQuestion, Selection: Multiple(dbtest.OptionX, 999)}},
			kind:       ErrValidation,
			questionID: dbtest.MultiQuestion,
		},
		{
			name:       "duplicate option ids",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.MultiQuestion, Selection: Multiple(dbtest.OptionX, dbtest.OptionX)}},
			kind:       ErrValidation,
			questionID: dbtest.MultiQuestion,
		},
		{
			name:       "empty option list",
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.MultiQuestion, Selection: Multiple()}},
			kind:       ErrValidation,
			questionID: dbtest.MultiQuestion,
		},
		{
			name:     "one valid one invalid",
			surveyID: dbtest.SurveyID,
			answers: []AnswerInput{
				{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)},
				{QuestionID: dbtest.MultiQuestion, Selection: Multiple(dbtest.OptionX, dbtest.OptionA)},
			},
			kind:       ErrValidation,
			questionID: dbtest.MultiQuestion,
		},
		{
			name:     "question repeated",
			surveyID: dbtest.SurveyID,
			answers: []AnswerInput{
				{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)},
				{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionB)},
			},
			kind:       ErrValidation,
			questionID: dbtest.SingleQuestion,
		},
		{
			name:     "missing question id",
			surveyID: dbtest.SurveyID,
			answers:  []AnswerInput{{Selection: Single(dbtest.OptionA)}},
			kind:     ErrValidation,
		},
		{
			name:       "question of another survey",
			setup:      func(t *testing.T, conn *gorm.DB) { dbtest.CreateSurvey(t, conn, 2, true, nil, 20, 300) },
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: 20, Selection: Single(300)}},
			kind:       ErrNotFound,
			questionID: 20,
		},
		{
			name:     "missing survey",
			surveyID: 99,
			answers:  []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)}},
			kind:     ErrNotFound,
		},
		{
			name:     "inactive survey",
			setup:    func(t *testing.T, conn *gorm.DB) { dbtest.CreateSurvey(t, conn, 2, false, nil, 20, 300) },
			surveyID: 2,
			answers:  []AnswerInput{{QuestionID: 20, Selection: Single(300)}},
			kind:     ErrNotFound,
		},
		{
			name:     "expired survey",
			setup:    func(t *testing.T, conn *gorm.DB) { dbtest.CreateSurvey(t, conn, 2, true, &past, 20, 300) },
			surveyID: 2,
			answers:  []AnswerInput{{QuestionID: 20, Selection: Single(300)}},
			kind:     ErrNotFound,
		},
		{
			name: "inactive question",
			setup: func(t *testing.T, conn *gorm.DB) {
				if err := conn.Model(&model.Question{}).Where("id = ?", dbtest.SingleQuestion).Update("active", false).Error; err != nil {
					t.Fatalf("deactivate question: %v", err)
				}
			},
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)}},
			kind:       ErrValidation,
			questionID: dbtest.SingleQuestion,
		},
		{
			name: "inactive option",
			setup: func(t *testing.T, conn *gorm.DB) {
				if err := conn.Model(&model.Option{}).Where("id = ?", dbtest.OptionY).Update("active", false).Error; err != nil {
					t.Fatalf("deactivate option: %v", err)
				}
			},
			surveyID:   dbtest.SurveyID,
			answers:    []AnswerInput{{QuestionID: dbtest.MultiQuestion, Selection: Multiple(dbtest.OptionX, dbtest.OptionY)}},
			kind:       ErrValidation,
			questionID: dbtest.MultiQuestion,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, conn, pub := newTestSubmission(t)
			if tc.setup != nil {
				tc.setup(t, conn)
			}
			receipt, err := svc.Submit(context.Background(), SubmissionRequest{
				SurveyID: tc.surveyID,
				Answers:  tc.answers,
				Account:  &model.Account{ID: 5, Username: "rita"},
			})
			if receipt != nil {
				t.Fatalf("receipt = %+v, want nil", receipt)
			}
			assertSubmissionError(t, err, tc.kind, tc.questionID)
			assertNothingStored(t, conn)

			var respondents int64
			if err := conn.Model(&model.Respondent{}).Count(&respondents).Error; err != nil {
				t.Fatalf("count respondents: %v", err)
			}
			if respondents != 0 {
				t.Fatalf("respondents = %d, want the profile rolled back", respondents)
			}
			if len(pub.events) != 0 {
				t.Fatalf("events published for a refused submission: %v", pub.events)
			}
		})
	}
}

func TestSubmitResolvesRespondentAndAppends(t *testing.T) {
	svc, conn, _ := newTestSubmission(t)
	account := &model.Account{ID: 8, Username: "lucas", Email: "lucas@example.com"}
	req := SubmissionRequest{
		SurveyID: dbtest.SurveyID,
		Answers:  []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionB)}},
		Account:  account,
	}

	first, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if first.RespondentID == nil || !first.RespondentCreated {
		t.Fatalf("first receipt = %+v, want a new respondent", first)
	}

	second, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.RespondentCreated || *second.RespondentID != *first.RespondentID {
		t.Fatalf("second receipt = %+v, want the same respondent", second)
	}
	if first.SubmissionID == second.SubmissionID {
		t.Fatalf("submissions share id %q", first.SubmissionID)
	}

	var respondent model.Respondent
	if err := conn.First(&respondent, *first.RespondentID).Error; err != nil {
		t.Fatalf("load respondent: %v", err)
	}
	if respondent.Name != "lucas" || respondent.Email == nil || *respondent.Email != "lucas@example.com" || respondent.Level != model.LevelBeginner {
		t.Fatalf("respondent = %+v", respondent)
	}

	var rows []model.SingleChoiceAnswer
	if err := conn.Where("respondent_id = ?", respondent.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load answers: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("answers = %d, want both submissions kept", len(rows))
	}
}

func TestSubmitLinksProfileRegisteredByEmail(t *testing.T) {
	svc, conn, _ := newTestSubmission(t)
	email := "joana@example.com"
	registered := model.Respondent{Name: "Joana", Email: &email, Level: model.LevelIntermediate}
	if err := conn.Create(&registered).Error; err != nil {
		t.Fatalf("create respondent: %v", err)
	}

	for i := 0; i < 3; i++ {
		receipt, err := svc.Submit(context.Background(), SubmissionRequest{
			SurveyID: dbtest.SurveyID,
			Answers:  []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)}},
			Account:  &model.Account{ID: 77, Username: "joana", Email: email},
		})
		if err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
		if receipt.RespondentID == nil || *receipt.RespondentID != registered.ID || receipt.RespondentCreated {
			t.Fatalf("submission %d receipt = %+v, want registered profile %d", i+1, receipt, registered.ID)
		}
	}

	var respondents int64
	if err := conn.Model(&model.Respondent{}).Count(&respondents).Error; err != nil {
		t.Fatalf("count respondents: %v", err)
	}
	if respondents != 1 {
		t.Fatalf("respondents = %d, want the registered one only", respondents)
	}
}

func TestSubmitConcurrentRespondentCreation(t *testing.T) {
	svc, conn, _ := newTestSubmission(t)

	// Another request creates the profile of the same account between the
	// lookup and the insert of this one.
	raced := false
	err := conn.Callback().Create().Before("gorm:create").Register("test:concurrent_respondent", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "respondents" {
			return
		}
		raced = true
		err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO respondents (account_id, name, enrolled_at, level) VALUES (?, ?, ?, ?)",
			11, "novo", time.Now(), model.LevelBeginner).Error
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = svc.Submit(context.Background(), SubmissionRequest{
		SurveyID: dbtest.SurveyID,
		Answers:  []AnswerInput{{QuestionID: dbtest.SingleQuestion, Selection: Single(dbtest.OptionA)}},
		Account:  &model.Account{ID: 11, Username: "novo"},
	})
	if !raced {
		t.Fatalf("respondent insert never ran")
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
	assertNothingStored(t, conn)

	var respondents int64
	if err := conn.Model(&model.Respondent{}).Count(&respondents).Error; err != nil {
		t.Fatalf("count respondents: %v", err)
	}
	if respondents != 0 {
		t.Fatalf("respondents = %d, want the transaction rolled back", respondents)
	}
}

func TestClassify(t *testing.T) {
	if err := classify(gorm.ErrForeignKeyViolated); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("foreign key: %v", err)
	}
	boom := errors.New("connection reset")
	err := classify(boom)
	if !errors.Is(err, boom) || errors.Is(err, ErrIntegrity) || errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error classified as %v", err)
	}
	ve := validationError(3, "bad")
	if classify(ve) != ve {
		t.Fatalf("submission errors must pass through")
	}
	if ve.Error() != "question 3: bad" {
		t.Fatalf("Error() = %q", ve.Error())
	}
}
