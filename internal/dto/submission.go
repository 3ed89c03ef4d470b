package dto

import (
	"bytes"
	"encoding/json"

	"enquete-backend/internal/model"
	"enquete-backend/internal/service"
)

// SubmissionPayload is the JSON body of the respond endpoints:
// {"respostas": [{"pergunta_id": 10, "opcoes_ids": 100}, ...]}.
type SubmissionPayload struct {
	Respostas []AnswerItem `json:"respostas"`
}

// AnswerItem carries opcoes_ids untouched so that an integer and a list of
// integers can be told apart.
type AnswerItem struct {
	PerguntaID uint            `json:"pergunta_id"`
	OpcoesIDs  json.RawMessage `json:"opcoes_ids"`
}

// ToRequest converts the payload into a workflow request. An integer
// selects one option and a list of integers selects several.
func (p SubmissionPayload) ToRequest(surveyID uint, account *model.Account) (service.SubmissionRequest, error) {
	req := service.SubmissionRequest{SurveyID: surveyID, Account: account}
	if len(p.Respostas) == 0 {
		return req, &service.SubmissionError{Kind: service.ErrValidation, Reason: "no answers provided"}
	}

	for _, item := range p.Respostas {
		raw := bytes.TrimSpace(item.OpcoesIDs)
		if item.PerguntaID == 0 || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return req, &service.SubmissionError{Kind: service.ErrValidation, QuestionID: item.PerguntaID, Reason: "incomplete answer data"}
		}

		var sel service.Selection
		if raw[0] == '[' {
			var ids []uint
			if err := json.Unmarshal(raw, &ids); err != nil {
				return req, invalidOptions(item.PerguntaID)
			}
			sel = service.Multiple(ids...)
		} else {
			var id uint
			if err := json.Unmarshal(raw, &id); err != nil {
				return req, invalidOptions(item.PerguntaID)
			}
			sel = service.Single(id)
		}
		req.Answers = append(req.Answers, service.AnswerInput{QuestionID: item.PerguntaID, Selection: sel})
	}
	return req, nil
}

func invalidOptions(questionID uint) error {
	return &service.SubmissionError{
		Kind:       service.ErrValidation,
		QuestionID: questionID,
		Reason:     "opcoes_ids must be an option id or a list of option ids",
	}
}
