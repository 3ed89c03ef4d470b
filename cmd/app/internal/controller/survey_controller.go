package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"enquete-backend/internal/dto"
	"enquete-backend/internal/service"
	"enquete-backend/utilities"
)

type SurveyController struct {
	SurveyService     service.SurveyService
	SubmissionService service.SubmissionService
}

func NewSurveyController(surveyService service.SurveyService, submissionService service.SubmissionService) *SurveyController {
	return &SurveyController{SurveyService: surveyService, SubmissionService: submissionService}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetSurveys lists every survey; ?ativas=true keeps only the open ones.
func (sc *SurveyController) GetSurveys(c *gin.Context) {
	list := sc.SurveyService.List
	if c.Query("ativas") == "true" {
		list = sc.SurveyService.ListOpen
	}
	surveys, err := list(c.Request.Context())
	if err != nil {
		utilities.Error("list surveys: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.JSON(http.StatusOK, dto.NewSurveyViews(surveys))
}

func (sc *SurveyController) GetSurvey(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return
	}
	detail, err := sc.SurveyService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return
	}
	if err != nil {
		utilities.Error("get survey %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.JSON(http.StatusOK, dto.NewSurveyDetailView(detail))
}

// Respond stores a batch of answers sent as JSON.
func (sc *SurveyController) Respond(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, dto.SubmissionResponse{Detail: "survey not found"})
		return
	}

	var payload dto.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, dto.SubmissionResponse{Detail: "invalid JSON body"})
		return
	}
	req, err := payload.ToRequest(id, utilities.CurrentAccount(c))
	if err == nil {
		var receipt *service.SubmissionReceipt
		receipt, err = sc.SubmissionService.Submit(c.Request.Context(), req)
		if err == nil {
			c.JSON(http.StatusCreated, dto.SubmissionCreated(receipt))
			return
		}
	}

	status, body, unexpected := dto.SubmissionFailure(err)
	if unexpected {
		utilities.Error("unexpected submission failure: %v", err)
	}
	c.JSON(status, body)
}
