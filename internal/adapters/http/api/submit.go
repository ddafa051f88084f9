package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/inforum/diagnostico/internal/app"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/pkg/logger"
)

// DefaultOrigin is used for asset links when a request carries no host.
const DefaultOrigin = "https://cuestionario-incloud.vercel.app"

const (
	maxSubmitBytes = 1 << 20
	// fallbackError is returned when a failure carries no message.
	fallbackError = "No se logró enviar"
	malformedBody = "Cuerpo JSON inválido"
)

// submitRequest mirrors the OpenAPI schema for POST /submit. Every field
// decodes leniently: a value of the wrong JSON type is coerced or dropped,
// never a reason to reject the whole body.
type submitRequest struct {
	Name        looseString     `json:"name"`
	Company     looseString     `json:"company"`
	Role        looseString     `json:"role"`
	Email       looseString     `json:"email"`
	Country     looseString     `json:"country"`
	Phone       looseString     `json:"phone"`
	Answers     json.RawMessage `json:"answers"`
	Score1Count looseInt        `json:"score1Count"`
	Qualifies   looseBool       `json:"qualifies"`
	ResultText  looseOptString  `json:"resultText"`
}

// looseString accepts strings, numbers and booleans as text. Anything else
// decodes to "".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v any
	if json.Unmarshal(b, &v) != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		*s = looseString(t)
	case float64, bool:
		*s = looseString(bytes.TrimSpace(b))
	default:
		*s = ""
	}
	return nil
}

// looseOptString is a looseString that remembers whether a value was sent.
type looseOptString struct{ v *string }

func (s *looseOptString) UnmarshalJSON(b []byte) error {
	var ls looseString
	_ = ls.UnmarshalJSON(b)
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		s.v = nil
		return nil
	}
	str := string(ls)
	s.v = &str
	return nil
}

// looseInt accepts a JSON number or a numeric string. Anything else leaves
// it unset.
type looseInt struct{ v *int }

func (n *looseInt) UnmarshalJSON(b []byte) error {
	var v any
	if json.Unmarshal(b, &v) != nil {
		return nil
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	i := int(f)
	n.v = &i
	return nil
}

// looseBool accepts a JSON boolean or a "true"/"false" string. Anything
// else leaves it unset.
type looseBool struct{ v *bool }

func (p *looseBool) UnmarshalJSON(b []byte) error {
	var v any
	if json.Unmarshal(b, &v) != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		p.v = &t
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			p.v = &parsed
		}
	}
	return nil
}

// answersEnvelope is decoded field by field so a malformed utms map does not
// cost the items, and vice versa.
type answersEnvelope struct {
	UTMs  json.RawMessage `json:"utms"`
	Items json.RawMessage `json:"items"`
}

func (req submitRequest) submission() service.Submission {
	sub := service.Submission{
		Name:              string(req.Name),
		Email:             string(req.Email),
		Company:           string(req.Company),
		Role:              string(req.Role),
		Country:           string(req.Country),
		Phone:             string(req.Phone),
		ClientScore1Count: req.Score1Count.v,
		ClientQualifies:   req.Qualifies.v,
		ClientResultText:  req.ResultText.v,
	}
	raw := bytes.TrimSpace(req.Answers)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return sub
	}
	sub.RawAnswers = raw

	var env answersEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return sub
	}
	var items []questionnaire.Answer
	if len(env.Items) > 0 && json.Unmarshal(env.Items, &items) == nil {
		sub.Answers = items
	}
	var utms map[string]string
	if len(env.UTMs) > 0 && json.Unmarshal(env.UTMs, &utms) == nil {
		sub.UTMs = utms
	}
	return sub
}

type submitResponse struct {
	OK           bool              `json:"ok"`
	Message      string            `json:"message"`
	Qualifies    bool              `json:"qualifies"`
	UI           service.UI        `json:"ui"`
	SubmissionID string            `json:"submissionId"`
	Warnings     []service.Warning `json:"warnings"`
}

// SubmitHandler handles questionnaire submissions.
type SubmitHandler struct {
	deps          Dependencies
	defaultOrigin string
	logger        logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies, defaultOrigin string, l logger.Logger) *SubmitHandler {
	if defaultOrigin == "" {
		defaultOrigin = DefaultOrigin
	}
	if l == nil {
		l = logger.Nop()
	}
	return &SubmitHandler{deps: deps, defaultOrigin: defaultOrigin, logger: l}
}

// HandleSubmit handles POST /submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBytes)).Decode(&req); err != nil {
		h.logger.Info(ctx, "malformed submission", logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, malformedBody)
		return
	}

	out, err := h.deps.Submit(ctx, req.submission(), RequestOrigin(r, h.defaultOrigin))
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		h.logger.Error(ctx, "submission failed",
			logger.String("submissionID", out.SubmissionID),
			logger.Error(WrapKind(op, ErrSubmit, err)))
		msg := err.Error()
		if msg == "" {
			msg = fallbackError
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	warnings := out.Warnings
	if warnings == nil {
		warnings = []service.Warning{}
	}
	writeJSON(w, http.StatusOK, submitResponse{
		OK:           true,
		Message:      out.Message,
		Qualifies:    out.Qualifies,
		UI:           out.UI,
		SubmissionID: out.SubmissionID,
		Warnings:     warnings,
	})
}

// RequestOrigin returns the public scheme://host of r, honoring the first
// X-Forwarded-Proto and X-Forwarded-Host values. fallback is returned when
// no host is known.
func RequestOrigin(r *http.Request, fallback string) string {
	proto := firstValue(r.Header.Get("X-Forwarded-Proto"))
	if proto == "" {
		proto = "https"
	}
	host := firstValue(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = firstValue(r.Host)
	}
	if host == "" {
		return fallback
	}
	return proto + "://" + host
}

func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}
