package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"enquete-backend/internal/cache"
	"enquete-backend/internal/model"
	"enquete-backend/internal/repository"
	"enquete-backend/utilities"
)

type OptionResult struct {
	OptionID   uint    `json:"opcao_id"`
	Text       string  `json:"texto"`
	Weight     int     `json:"peso"`
	Count      int64   `json:"total"`
	Percentage float64 `json:"percentual"`
}

type QuestionResult struct {
	QuestionID      uint               `json:"pergunta_id"`
	Text            string             `json:"texto"`
	Kind            model.QuestionKind `json:"tipo"`
	Active          bool               `json:"ativa"`
	Answers         int64              `json:"total_respostas"`
	WeightedAverage float64            `json:"media_ponderada"`
	Options         []OptionResult     `json:"opcoes"`
}

// SurveyReport summarises the answers stored for a survey.
type SurveyReport struct {
	SurveyID    uint             `json:"enquete_id"`
	Title       string           `json:"titulo"`
	GeneratedAt time.Time        `json:"gerado_em"`
	Questions   []QuestionResult `json:"perguntas"`
}

// RespondentSummary is the profile of a caller with their answer counters.
type RespondentSummary struct {
	Respondent      *model.Respondent `json:"aluno"`
	TotalAnswers    int64             `json:"total_respostas"`
	SurveysAnswered int64             `json:"enquetes_participadas"`
}

type ReportService interface {
	SurveyResults(ctx context.Context, surveyID uint) (*SurveyReport, error)
	RenderPDF(report *SurveyReport) ([]byte, error)
	RespondentSummary(ctx context.Context, account *model.Account) (*RespondentSummary, error)
	Invalidate(ctx context.Context, surveyID uint)
}

type reportService struct {
	db    *gorm.DB
	cache cache.ReportCache
	now   func() time.Time

	// generations counts invalidations per survey. A report is only cached
	// when no invalidation happened while it was computed.
	mu          sync.Mutex
	generations map[uint]uint64
}

func NewReportService(conn *gorm.DB, reportCache cache.ReportCache) ReportService {
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &reportService{db: conn, cache: reportCache, now: time.Now, generations: map[uint]uint64{}}
}

// InitReportEventListeners drops cached reports when new answers arrive.
func InitReportEventListeners(bus *utilities.EventBus, reports ReportService) {
	bus.Subscribe(utilities.EventSubmissionRecorded, func(data interface{}) {
		receipt, ok := data.(SubmissionReceipt)
		if !ok {
			utilities.Warn("unexpected %s payload %T", utilities.EventSubmissionRecorded, data)
			return
		}
		reports.Invalidate(context.Background(), receipt.SurveyID)
	})
}

func (s *reportService) generation(surveyID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[surveyID]
}

func (s *reportService) Invalidate(ctx context.Context, surveyID uint) {
	s.mu.Lock()
	s.generations[surveyID]++
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx, surveyID); err != nil {
		utilities.Warn("invalidate report of survey %d: %v", surveyID, err)
	}
}

// SurveyResults counts the answers of every question. Percentages are
// relative to the answer rows of the question, so multiple-choice options
// may add up to more than 100.
func (s *reportService) SurveyResults(ctx context.Context, surveyID uint) (*SurveyReport, error) {
	gen := s.generation(surveyID)
	if data, ok, err := s.cache.Get(ctx, surveyID); err != nil {
		utilities.Warn("read cached report of survey %d: %v", surveyID, err)
	} else if ok {
		var cached SurveyReport
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	conn := s.db.WithContext(ctx)
	survey, err := repository.NewSurveyRepository(conn).GetSurveyDetail(surveyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("survey %d: %w", surveyID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var singleIDs, multiIDs, allIDs []uint
	for _, q := range survey.Questions {
		allIDs = append(allIDs, q.ID)
		if q.Kind == model.MultiChoice {
			multiIDs = append(multiIDs, q.ID)
		} else {
			singleIDs = append(singleIDs, q.ID)
		}
	}

	answers := repository.NewAnswerRepository(conn)
	totals, err := answers.QuestionTotals(allIDs)
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}
	singleTally, err := answers.SingleChoiceTally(singleIDs)
	if err != nil {
		return nil, fmt.Errorf("tally single-choice answers: %w", err)
	}
	multiTally, err := answers.MultiChoiceTally(multiIDs)
	if err != nil {
		return nil, fmt.Errorf("tally multiple-choice answers: %w", err)
	}
	counts := make(map[uint]int64, len(singleTally)+len(multiTally))
	for _, row := range append(singleTally, multiTally...) {
		counts[row.OptionID] += row.Count
	}

	report := &SurveyReport{SurveyID: survey.ID, Title: survey.Title, GeneratedAt: s.now()}
	for _, q := range survey.Questions {
		qr := QuestionResult{
			QuestionID: q.ID,
			Text:       q.Text,
			Kind:       q.Kind,
			Active:     q.Active,
			Answers:    totals[q.ID],
			Options:    make([]OptionResult, 0, len(q.Options)),
		}
		var chosen, weighted int64
		for _, o := range q.Options {
			or := OptionResult{OptionID: o.ID, Text: o.Text, Weight: o.Weight, Count: counts[o.ID]}
			if qr.Answers > 0 {
				or.Percentage = float64(or.Count) / float64(qr.Answers) * 100
			}
			chosen += or.Count
			weighted += or.Count * int64(o.Weight)
			qr.Options = append(qr.Options, or)
		}
		if chosen > 0 {
			qr.WeightedAverage = float64(weighted) / float64(chosen)
		}
		report.Questions = append(report.Questions, qr)
	}

	if s.generation(surveyID) != gen {
		return report, nil
	}
	if data, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, surveyID, data); err != nil {
			utilities.Warn("cache report of survey %d: %v", surveyID, err)
		}
	}
	return report, nil
}

// RenderPDF lays the report out as a printable document.
func (s *reportService) RenderPDF(report *SurveyReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(report.Title), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(report.Title), "", "L", false)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, "Gerado em "+report.GeneratedAt.Format("02/01/2006 15:04"))
	pdf.Ln(10)

	for _, q := range report.Questions {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 6, tr(q.Text), "", "L", false)
		pdf.SetFont("Arial", "", 9)
		pdf.Cell(0, 5, fmt.Sprintf("%d respostas, media ponderada %.2f", q.Answers, q.WeightedAverage))
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 10)
		for _, o := range q.Options {
			pdf.CellFormat(110, 6, tr(o.Text), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", o.Count), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.1f%%", o.Percentage), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *reportService) RespondentSummary(ctx context.Context, account *model.Account) (*RespondentSummary, error) {
	if account == nil {
		return nil, fmt.Errorf("anonymous caller: %w", ErrNotFound)
	}
	conn := s.db.WithContext(ctx)
	respondent, err := repository.NewRespondentRepository(conn).GetByAccount(account.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("respondent for account %d: %w", account.ID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	answers := repository.NewAnswerRepository(conn)
	total, err := answers.CountForRespondent(respondent.ID)
	if err != nil {
		return nil, err
	}
	surveys, err := answers.SurveysForRespondent(respondent.ID)
	if err != nil {
		return nil, err
	}
	return &RespondentSummary{Respondent: respondent, TotalAnswers: total, SurveysAnswered: surveys}, nil
}
