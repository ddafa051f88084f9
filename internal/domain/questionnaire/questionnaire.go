// Package questionnaire contains the static qualification questions and the
// answer shape submitted by the wizard.
package questionnaire

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the cardinality of a question.
type Kind string

// Question kinds.
const (
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
)

// Choice is one selectable option of a question.
type Choice struct {
	Value        string `json:"value"`
	Label        string `json:"label"`
	Score        int    `json:"score"` // 1 or 2
	RequiresText bool   `json:"requiresText,omitempty"`
}

// Question is an immutable questionnaire entry.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"label"`
	Kind          Kind     `json:"type"`
	Required      bool     `json:"required"`
	MaxSelections int      `json:"maxSelections,omitempty"` // multi only
	Summary       string   `json:"-"`                       // short label used in CRM notes
	Choices       []Choice `json:"options"`
}

// Choice returns the choice with the given value.
func (q Question) Choice(value string) (Choice, bool) {
	for _, c := range q.Choices {
		if c.Value == value {
			return c, true
		}
	}
	return Choice{}, false
}

// Answer is a single recorded selection. For multi-select questions the
// ID has the form "questionId:choiceValue", one Answer per selection.
type Answer struct {
	ID        string `json:"id"`
	Value     string `json:"value"`
	Score     int    `json:"score"`
	ExtraText string `json:"extraText,omitempty"`
}

// QuestionID returns the question part of the answer id.
func (a Answer) QuestionID() string {
	id, _, _ := strings.Cut(a.ID, ":")
	return id
}

// AnswerID builds the answer key for a selection.
func AnswerID(q Question, choiceValue string) string {
	if q.Kind == KindMulti {
		return q.ID + ":" + choiceValue
	}
	return q.ID
}

// Catalog is a read-only set of questions.
type Catalog struct {
	questions []Question
	byID      map[string]int
}

// NewCatalog builds a catalog from questions. Question ids must be unique.
func NewCatalog(questions []Question) (*Catalog, error) {
	c := &Catalog{
		questions: make([]Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidCatalog, q.ID)
		}
		if q.Kind == KindMulti && q.MaxSelections < 1 {
			return nil, fmt.Errorf("%w: multi question %q needs maxSelections", ErrInvalidCatalog, q.ID)
		}
		for _, ch := range q.Choices {
			if ch.Score != 1 && ch.Score != 2 {
				return nil, fmt.Errorf("%w: %s/%s score must be 1 or 2", ErrInvalidCatalog, q.ID, ch.Value)
			}
		}
		q.Choices = append([]Choice(nil), q.Choices...)
		c.questions[i] = q
		c.byID[q.ID] = i
	}
	return c, nil
}

// Questions returns a copy of the questions in display order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	for i, q := range c.questions {
		out[i] = q.clone()
	}
	return out
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i].clone(), true
}

func (q Question) clone() Question {
	q.Choices = slices.Clone(q.Choices)
	return q
}

// Label returns the short summary label for an answer id, falling back to
// the raw question id when the question is unknown.
func (c *Catalog) Label(answerID string) string {
	qid, _, _ := strings.Cut(answerID, ":")
	if q, ok := c.Question(qid); ok && q.Summary != "" {
		return q.Summary
	}
	return qid
}

// Validate reports every problem found in answers. It never modifies the
// input; callers decide whether problems are fatal.
func (c *Catalog) Validate(answers []Answer) []error {
	var problems []error
	selections := make(map[string]int)
	for _, a := range answers {
		qid := a.QuestionID()
		q, ok := c.Question(qid)
		if !ok {
			problems = append(problems, fmt.Errorf("%w: %q", ErrUnknownQuestion, qid))
			continue
		}
		selections[qid]++
		ch, ok := q.Choice(a.Value)
		if !ok {
			problems = append(problems, fmt.Errorf("%w: %s=%q", ErrUnknownChoice, qid, a.Value))
			continue
		}
		if ch.Score != a.Score {
			problems = append(problems, fmt.Errorf("%w: %s=%s sent %d, catalog %d", ErrScoreMismatch, qid, a.Value, a.Score, ch.Score))
		}
		if ch.RequiresText && strings.TrimSpace(a.ExtraText) == "" {
			problems = append(problems, fmt.Errorf("%w: %s=%s", ErrMissingText, qid, a.Value))
		}
	}
	for _, q := range c.questions {
		n := selections[q.ID]
		if q.Required && n == 0 {
			problems = append(problems, fmt.Errorf("%w: %q", ErrUnanswered, q.ID))
		}
		if q.Kind == KindMulti && n > q.MaxSelections {
			problems = append(problems, fmt.Errorf("%w: %q has %d, max %d", ErrTooManySelections, q.ID, n, q.MaxSelections))
		}
		if q.Kind == KindSingle && n > 1 {
			problems = append(problems, fmt.Errorf("%w: %q has %d, max 1", ErrTooManySelections, q.ID, n))
		}
	}
	return problems
}
