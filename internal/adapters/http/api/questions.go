package api

import (
	"net/http"

	"github.com/inforum/diagnostico/internal/domain/questionnaire"
)

// QuestionsDependencies defines the interface for catalog reads.
type QuestionsDependencies interface {
	Questions() []questionnaire.Question
}

// QuestionsHandler serves the questionnaire to the wizard.
type QuestionsHandler struct {
	deps QuestionsDependencies
}

// NewQuestionsHandler creates a new questions handler.
func NewQuestionsHandler(deps QuestionsDependencies) *QuestionsHandler {
	return &QuestionsHandler{deps: deps}
}

type questionsResponse struct {
	Questions []questionnaire.Question `json:"questions"`
}

// HandleQuestions handles GET /questions requests.
func (h *QuestionsHandler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, questionsResponse{Questions: h.deps.Questions()})
}
