package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inforum/diagnostico/internal/domain/questionnaire"
)

// NoteHeader is the first line of every note.
const NoteHeader = "Formulario diagnóstico (InCloud)"

// NoteInput describes a new note attached to the deal.
type NoteInput struct {
	Content  string
	DealID   int64
	PersonID int64
	OrgID    int64
}

type noteBody struct {
	Content  string `json:"content"`
	DealID   int64  `json:"deal_id,omitempty"`
	PersonID int64  `json:"person_id,omitempty"`
	OrgID    int64  `json:"org_id,omitempty"`
}

// CreateNote creates a note.
func (c *Client) CreateNote(ctx context.Context, in NoteInput) (int64, error) {
	id, err := c.create(ctx, "notes", noteBody(in))
	if err != nil {
		return 0, fmt.Errorf("create note: %w", err)
	}
	return id, nil
}

// NoteFields is the audit content of a note. Nil pointers mark values the
// submission did not carry; those lines are left out.
type NoteFields struct {
	Name        string
	Company     string
	Role        string
	Email       string
	Country     string
	Phone       string
	Qualifies   *bool
	ResultText  *string
	Score1Count *int
	Score2Count *int
	Items       []questionnaire.Answer
	// RawAnswers is dumped verbatim, indented, when present.
	RawAnswers json.RawMessage
	// Catalog resolves summary labels. Unknown ids print as sent.
	Catalog *questionnaire.Catalog
}

// NoteContent renders the note text.
func NoteContent(f NoteFields) string {
	var b strings.Builder
	b.WriteString(NoteHeader + "\n")
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "• %s: %s\n", label, v)
		}
	}
	line("Nombre", f.Name)
	line("Empresa", f.Company)
	line("Cargo", f.Role)
	line("Email", f.Email)
	line("País", f.Country)
	line("Teléfono", f.Phone)
	if f.Qualifies != nil {
		verdict := "❌ No califica"
		if *f.Qualifies {
			verdict = "✅ Sí califica"
		}
		line("Resultado", verdict)
	}
	if f.ResultText != nil {
		fmt.Fprintf(&b, "• Evaluación: %s\n", *f.ResultText)
	}
	if f.Score1Count != nil {
		fmt.Fprintf(&b, "• # de respuestas score=1: %d\n", *f.Score1Count)
	}
	if f.Score2Count != nil {
		fmt.Fprintf(&b, "• # de respuestas score=2: %d\n", *f.Score2Count)
	}

	if len(f.Items) > 0 {
		b.WriteString("\nResumen:\n")
		for _, a := range f.Items {
			label := a.QuestionID()
			if f.Catalog != nil {
				label = f.Catalog.Label(a.ID)
			}
			extra := ""
			if a.ExtraText != "" {
				extra = " (" + a.ExtraText + ")"
			}
			fmt.Fprintf(&b, "- %s: %s%s [score=%d]\n", label, a.Value, extra, a.Score)
		}
	}

	if raw := bytes.TrimSpace(f.RawAnswers); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			out.Reset()
			out.Write(raw)
		}
		b.WriteString("\nRespuestas (JSON):\n")
		b.Write(out.Bytes())
	}
	return b.String()
}
