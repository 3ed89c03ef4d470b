package dto

import (
	"errors"
	"net/http"

	"enquete-backend/internal/service"
)

// GenericError is shown for failures the caller cannot act on.
const GenericError = "an unexpected error occurred, please try again later"

// SubmissionResponse is the body returned by the respond endpoints.
type SubmissionResponse struct {
	Detail       string `json:"detail"`
	SubmissionID string `json:"submission_id,omitempty"`
	AlunoID      *uint  `json:"aluno_id,omitempty"`
	PerguntaID   uint   `json:"pergunta_id,omitempty"`
}

func SubmissionCreated(receipt *service.SubmissionReceipt) SubmissionResponse {
	return SubmissionResponse{
		Detail:       "answers recorded successfully",
		SubmissionID: receipt.SubmissionID,
		AlunoID:      receipt.RespondentID,
	}
}

// SubmissionFailure maps a workflow error to its HTTP status and body.
// unexpected is true when the error is none of the known kinds.
func SubmissionFailure(err error) (status int, body SubmissionResponse, unexpected bool) {
	var subErr *service.SubmissionError
	hasSub := errors.As(err, &subErr)
	switch {
	case hasSub && errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, SubmissionResponse{Detail: subErr.Error(), PerguntaID: subErr.QuestionID}, false
	case hasSub && errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, SubmissionResponse{Detail: subErr.Error(), PerguntaID: subErr.QuestionID}, false
	case errors.Is(err, service.ErrIntegrity):
		return http.StatusConflict, SubmissionResponse{Detail: "the submission conflicts with another request, please retry"}, false
	default:
		return http.StatusInternalServerError, SubmissionResponse{Detail: GenericError}, true
	}
}
