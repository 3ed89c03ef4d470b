package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"enquete-backend/internal/service"
	"enquete-backend/utilities"
)

type RespondentController struct {
	ReportService service.ReportService
}

func NewRespondentController(reportService service.ReportService) *RespondentController {
	return &RespondentController{ReportService: reportService}
}

// GetMe returns the caller's respondent profile.
func (rc *RespondentController) GetMe(c *gin.Context) {
	account := utilities.CurrentAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	summary, err := rc.ReportService.RespondentSummary(c.Request.Context(), account)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no respondent profile yet, answer a survey first"})
		return
	}
	if err != nil {
		utilities.Error("respondent summary for account %d: %v", account.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.JSON(http.StatusOK, summary)
}
