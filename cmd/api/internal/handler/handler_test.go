package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/gorm"

	"enquete-backend/internal/db/dbtest"
	"enquete-backend/internal/model"
	"enquete-backend/internal/service"
	"enquete-backend/pkg/middleware"
	"enquete-backend/utilities"
)

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB, *utilities.TokenIssuer) {
	t.Helper()
	conn := dbtest.Open(t)
	dbtest.Seed(t, conn)
	tokens := utilities.NewTokenIssuer("secret", "")
	h := NewSurveyHandler(service.NewSurveyService(conn), service.NewSubmissionService(conn, nil))
	return NewRouter(h, Options{Tokens: tokens, Limiter: middleware.NewIPRateLimiter(600, 100)}), conn, tokens
}

func post(r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHomeAndList(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "message") {
		t.Fatalf("home = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/enquetes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var surveys []struct {
		ID        uint `json:"id"`
		Perguntas []struct {
			ID     uint `json:"id"`
			Opcoes []struct {
				ID uint `json:"id"`
			} `json:"opcoes"`
		} `json:"perguntas"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &surveys); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(surveys) != 1 || len(surveys[0].Perguntas) != 2 || len(surveys[0].Perguntas[1].Opcoes) != 3 {
		t.Fatalf("surveys = %+v", surveys)
	}
}

func TestRespond(t *testing.T) {
	r, conn, tokens := newTestRouter(t)
	token, err := tokens.GenerateToken(model.Account{ID: 2, Username: "davi"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := post(r, "/enquetes/1/responder", `{"respostas":[{"pergunta_id":10,"opcoes_ids":100},{"pergunta_id":11,"opcoes_ids":[200,202]}]}`, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["aluno_id"] == nil || created["submission_id"] == nil {
		t.Fatalf("body = %v", created)
	}

	var respondent model.Respondent
	if err := conn.Where("account_id = ?", 2).First(&respondent).Error; err != nil {
		t.Fatalf("respondent not created for the token account: %v", err)
	}
	if respondent.Name != "davi" {
		t.Fatalf("respondent = %+v", respondent)
	}
}

func TestRespondStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"shape mismatch", "/enquetes/1/responder", `{"respostas":[{"pergunta_id":10,"opcoes_ids":[100]}]}`, http.StatusBadRequest},
		{"unknown option", "/enquetes/1/responder", `{"respostas":[{"pergunta_id":10,"opcoes_ids":999}]}`, http.StatusBadRequest},
		{"bad json", "/enquetes/1/responder", `not json`, http.StatusBadRequest},
		{"missing survey", "/enquetes/8/responder", `{"respostas":[{"pergunta_id":10,"opcoes_ids":100}]}`, http.StatusNotFound},
		{"non numeric id", "/enquetes/x/responder", `{}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, conn, _ := newTestRouter(t)
			w := post(r, tc.path, tc.body, "")
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			var n int64
			if err := conn.Model(&model.SingleChoiceAnswer{}).Count(&n).Error; err != nil || n != 0 {
				t.Fatalf("single rows = %d (%v), want 0", n, err)
			}
		})
	}
}

func TestRespondRejectsBadToken(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if w := post(r, "/enquetes/1/responder", `{}`, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
