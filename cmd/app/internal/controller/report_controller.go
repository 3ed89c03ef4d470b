package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"enquete-backend/internal/service"
	"enquete-backend/utilities"
)

type ReportController struct {
	ReportService service.ReportService
}

func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

func (rc *ReportController) results(c *gin.Context) (*service.SurveyReport, bool) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return nil, false
	}
	report, err := rc.ReportService.SurveyResults(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return nil, false
	}
	if err != nil {
		utilities.Error("results of survey %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return nil, false
	}
	return report, true
}

func (rc *ReportController) GetResults(c *gin.Context) {
	if report, ok := rc.results(c); ok {
		c.JSON(http.StatusOK, report)
	}
}

func (rc *ReportController) DownloadResults(c *gin.Context) {
	report, ok := rc.results(c)
	if !ok {
		return
	}
	data, err := rc.ReportService.RenderPDF(report)
	if err != nil {
		utilities.Error("render results of survey %d: %v", report.SurveyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="enquete-%d-resultados.pdf"`, report.SurveyID))
	c.Data(http.StatusOK, "application/pdf", data)
}
