package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"enquete-backend/internal/model"
	"enquete-backend/internal/service"
	"enquete-backend/utilities"
)

const requiredAnswer = "this question requires an answer"

type formPage struct {
	Survey   *model.Survey
	Errors   map[uint]string
	Selected map[uint]map[uint]bool
	General  string
}

// WebController serves the HTML pages used by respondents.
type WebController struct {
	SurveyService     service.SurveyService
	SubmissionService service.SubmissionService
}

func NewWebController(surveyService service.SurveyService, submissionService service.SubmissionService) *WebController {
	return &WebController{SurveyService: surveyService, SubmissionService: submissionService}
}

func (wc *WebController) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{"Message": "The survey does not exist or is no longer open."})
}

func (wc *WebController) failure(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": genericError})
}

func (wc *WebController) loadForm(c *gin.Context) (*model.Survey, bool) {
	id, ok := parseID(c)
	if !ok {
		wc.notFound(c)
		return nil, false
	}
	survey, err := wc.SurveyService.GetForm(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		wc.notFound(c)
		return nil, false
	}
	if err != nil {
		utilities.Error("load form of survey %d: %v", id, err)
		wc.failure(c)
		return nil, false
	}
	return survey, true
}

func (wc *WebController) ListSurveys(c *gin.Context) {
	surveys, err := wc.SurveyService.ListOpen(c.Request.Context())
	if err != nil {
		utilities.Error("list open surveys: %v", err)
		wc.failure(c)
		return
	}
	c.HTML(http.StatusOK, "enquetes.html", gin.H{"Surveys": surveys})
}

func (wc *WebController) ShowForm(c *gin.Context) {
	survey, ok := wc.loadForm(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "responder.html", formPage{
		Survey:   survey,
		Errors:   map[uint]string{},
		Selected: map[uint]map[uint]bool{},
	})
}

// SubmitForm reads one answer[<question id>] field per rendered question.
// Every question is required.
func (wc *WebController) SubmitForm(c *gin.Context) {
	survey, ok := wc.loadForm(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Message": "the form could not be read"})
		return
	}

	page := formPage{Survey: survey, Errors: map[uint]string{}, Selected: map[uint]map[uint]bool{}}
	answers := make([]service.AnswerInput, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		values := c.Request.PostForm[fmt.Sprintf("answer[%d]", q.ID)]
		if len(values) == 0 {
			page.Errors[q.ID] = requiredAnswer
			continue
		}
		page.Selected[q.ID] = map[uint]bool{}
		ids := make([]uint, 0, len(values))
		for _, v := range values {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				page.Errors[q.ID] = "invalid option"
				break
			}
			ids = append(ids, uint(id))
			page.Selected[q.ID][uint(id)] = true
		}
		sel := service.Multiple(ids...)
		if q.Kind == model.SingleChoice && len(ids) == 1 {
			sel = service.Single(ids[0])
		}
		answers = append(answers, service.AnswerInput{QuestionID: q.ID, Selection: sel})
	}
	if len(page.Errors) > 0 {
		c.HTML(http.StatusUnprocessableEntity, "responder.html", page)
		return
	}

	_, err := wc.SubmissionService.Submit(c.Request.Context(), service.SubmissionRequest{
		SurveyID: survey.ID,
		Answers:  answers,
		Account:  utilities.CurrentAccount(c),
	})
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/enquetes/%d/obrigado", survey.ID))
	case errors.Is(err, service.ErrValidation):
		var subErr *service.SubmissionError
		if errors.As(err, &subErr) && subErr.QuestionID != 0 {
			page.Errors[subErr.QuestionID] = subErr.Reason
		} else {
			page.General = err.Error()
		}
		c.HTML(http.StatusUnprocessableEntity, "responder.html", page)
	case errors.Is(err, service.ErrNotFound):
		wc.notFound(c)
	default:
		if !errors.Is(err, service.ErrIntegrity) {
			utilities.Error("web submission to survey %d: %v", survey.ID, err)
		}
		wc.failure(c)
	}
}

func (wc *WebController) ThankYou(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		wc.notFound(c)
		return
	}
	detail, err := wc.SurveyService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		wc.notFound(c)
		return
	}
	if err != nil {
		utilities.Error("thank-you page of survey %d: %v", id, err)
		wc.failure(c)
		return
	}
	c.HTML(http.StatusOK, "obrigado.html", gin.H{"Survey": detail.Survey})
}
