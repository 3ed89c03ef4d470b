package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"enquete-backend/internal/dto"
	"enquete-backend/internal/service"
	"enquete-backend/pkg/middleware"
	"enquete-backend/utilities"
)

const genericError = dto.GenericError

// Services groups what the routes delegate to.
type Services struct {
	Surveys     service.SurveyService
	Submissions service.SubmissionService
	Reports     service.ReportService
}

// Security configures identity and submission throttling.
type Security struct {
	Tokens     *utilities.TokenIssuer
	CookieName string
	Limiter    *middleware.IPRateLimiter
}

func RegisterRoutes(r *gin.Engine, svc Services, sec Security) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/enquetes")
	})

	throttle := middleware.RateLimitMiddleware(sec.Limiter)

	// Web routes.
	webCtrl := NewWebController(svc.Surveys, svc.Submissions)
	webRoutes := r.Group("/enquetes", utilities.WebAuthMiddleware(sec.Tokens, sec.CookieName))
	{
		webRoutes.GET("", webCtrl.ListSurveys)
		webRoutes.GET("/:id/responder", webCtrl.ShowForm)
		webRoutes.POST("/:id/responder", throttle, webCtrl.SubmitForm)
		webRoutes.GET("/:id/obrigado", webCtrl.ThankYou)
	}

	// REST routes.
	api := r.Group("/api", utilities.AuthMiddleware(sec.Tokens, ""))
	surveyCtrl := NewSurveyController(svc.Surveys, svc.Submissions)
	reportCtrl := NewReportController(svc.Reports)
	surveyRoutes := api.Group("/enquetes")
	{
		surveyRoutes.GET("", surveyCtrl.GetSurveys)
		surveyRoutes.GET("/:id", surveyCtrl.GetSurvey)
		surveyRoutes.POST("/:id/responder", throttle, surveyCtrl.Respond)
		surveyRoutes.GET("/:id/resultados", reportCtrl.GetResults)
		surveyRoutes.GET("/:id/resultados.pdf", reportCtrl.DownloadResults)
	}

	respondentCtrl := NewRespondentController(svc.Reports)
	api.GET("/alunos/me", respondentCtrl.GetMe)
}
