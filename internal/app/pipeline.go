package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inforum/diagnostico/internal/adapters/crm"
	"github.com/inforum/diagnostico/internal/adapters/mailer"
	"github.com/inforum/diagnostico/internal/domain/notify"
	"github.com/inforum/diagnostico/internal/domain/region"
	"github.com/inforum/diagnostico/internal/domain/scoring"
	"github.com/inforum/diagnostico/pkg/logger"
	"github.com/inforum/diagnostico/pkg/metrics"
)

// SuccessMessage is returned with every completed submission.
const SuccessMessage = "Deal creado, persona actualizada, nota agregada y correo enviado"

// CtaLabel is the result screen button text.
const CtaLabel = "Visitar nuestro website"

// Each stage consumes the previous one, so a step cannot run before the
// data it needs exists.

type received struct {
	id  string
	sub Submission
	log logger.Logger
	// warnings is shared by every stage of one run.
	warnings *[]Warning
}

type verdict struct {
	qualifies  bool
	branch     scoring.Branch
	resultText *string
	score1     *int
	score2     *int
	// known is false when neither items nor a client verdict were sent.
	known bool
}

type routed struct {
	received
	verdict verdict
	code    region.Code
	target  region.Target
	phone   string
}

type personResolved struct {
	routed
	personID int64
}

type orgResolved struct {
	personResolved
	orgID int64
}

type dealCreated struct {
	orgResolved
	dealID int64
}

type noteAttempted struct {
	dealCreated
	noteID int64
}

// Submit runs the pipeline for one submission. origin is the public
// scheme://host the request arrived on, used for email asset links. Only a
// *ValidationError or a deal failure is returned as an error; every other
// problem is reported in Outcome.Warnings.
func (s *Service) Submit(ctx context.Context, sub Submission, origin string) (Outcome, error) {
	start := time.Now()
	id := s.newID()
	log := s.logger.With(logger.String("submissionID", id))

	r, err := s.receive(ctx, id, sub, log)
	if err != nil {
		metrics.RecordSubmissionError("validation")
		return Outcome{SubmissionID: id}, err
	}
	if s.crm == nil {
		metrics.RecordSubmissionError("deal")
		return Outcome{SubmissionID: id}, fmt.Errorf("%w: %w", ErrDealFailed, ErrNoCRM)
	}

	rt := s.route(ctx, r)
	p := s.resolvePerson(ctx, rt)
	o := s.resolveOrganization(ctx, p)
	d, err := s.createDeal(ctx, o)
	if err != nil {
		metrics.RecordSubmissionError("deal")
		metrics.RecordPipelineLatency(sinceMs(start))
		return Outcome{SubmissionID: id, Warnings: *r.warnings}, err
	}
	n := s.attachNote(ctx, d)
	s.sendConfirmation(ctx, n, origin)

	out := s.respond(ctx, n)
	metrics.RecordSubmission(string(out.Branch))
	metrics.RecordPipelineLatency(sinceMs(start))
	return out, nil
}

func (s *Service) receive(ctx context.Context, id string, sub Submission, log logger.Logger) (received, error) {
	var missing []string
	if strings.TrimSpace(sub.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(sub.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		log.Info(ctx, "submission rejected", logger.Any("missing", missing))
		return received{}, &ValidationError{Fields: missing, Message: MissingIdentityMessage}
	}
	warnings := make([]Warning, 0, 4)
	r := received{id: id, sub: sub, log: log, warnings: &warnings}
	s.transition(ctx, r, StateReceived)
	return r, nil
}

// route settles verdict, region, deal target and phone. It never fails.
func (s *Service) route(ctx context.Context, r received) routed {
	if len(r.sub.Answers) > 0 {
		for _, problem := range s.catalog.Validate(r.sub.Answers) {
			r.warn(ctx, StepAnswers, problem.Error())
		}
	}

	v := s.decide(ctx, r)

	code, known := s.resolver.Lookup(r.sub.Country)
	if !known && strings.TrimSpace(r.sub.Country) != "" {
		metrics.RecordRegionFallback()
		r.warn(ctx, StepRegion, fmt.Sprintf("país %q no reconocido, se usa %s", r.sub.Country, code))
	}
	target := s.resolver.Route(code)

	phone, ok := s.resolver.FormatPhone(code, r.sub.Phone)
	if !ok {
		r.warn(ctx, StepPhone, fmt.Sprintf("teléfono %q tiene menos de %d dígitos", r.sub.Phone, s.resolver.PhoneRule(code).MinDigits))
	}

	r.log.Debug(ctx, "submission routed",
		logger.String("region", string(code)),
		logger.Int64("pipelineID", target.PipelineID),
		logger.Int64("stageID", target.StageID),
		logger.Bool("qualifies", v.qualifies),
		logger.String("branch", string(v.branch)))
	return routed{received: r, verdict: v, code: code, target: target, phone: phone}
}

// decide re-scores the items when present; the client verdict is only used
// when no items were sent.
func (s *Service) decide(ctx context.Context, r received) verdict {
	sub := r.sub
	if len(sub.Answers) == 0 {
		v := verdict{
			resultText: sub.ClientResultText,
			score1:     sub.ClientScore1Count,
			branch:     scoring.BranchInconclusive,
			known:      sub.ClientQualifies != nil,
		}
		if sub.ClientQualifies != nil && *sub.ClientQualifies {
			v.qualifies = true
			v.branch = scoring.BranchQualified
		}
		return v
	}

	res := s.rules.Evaluate(sub.Answers)
	if sub.ClientQualifies != nil && *sub.ClientQualifies != res.Qualifies {
		metrics.RecordVerdictMismatch()
		r.warn(ctx, StepVerdict, fmt.Sprintf("el cliente envió qualifies=%t, el servidor calculó %t", *sub.ClientQualifies, res.Qualifies))
	}
	text := res.ResultText
	s1, s2 := res.Score1Count, res.Score2Count
	return verdict{
		qualifies:  res.Qualifies,
		branch:     res.Branch,
		resultText: &text,
		score1:     &s1,
		score2:     &s2,
		known:      true,
	}
}

func (s *Service) resolvePerson(ctx context.Context, rt routed) personResolved {
	id, err := s.crm.UpsertPerson(ctx, crm.PersonInput{
		Name:  strings.TrimSpace(rt.sub.Name),
		Email: strings.TrimSpace(rt.sub.Email),
		Phone: rt.phone,
		Role:  rt.sub.Role,
	})
	if err != nil {
		rt.fail(ctx, StepPerson, err)
	}
	p := personResolved{routed: rt, personID: id}
	s.transition(ctx, p.received, StatePersonResolved, logger.Int64("personID", id))
	return p
}

func (s *Service) resolveOrganization(ctx context.Context, p personResolved) orgResolved {
	o := orgResolved{personResolved: p}
	if company := strings.TrimSpace(p.sub.Company); company != "" {
		id, err := s.crm.UpsertOrganization(ctx, company)
		if err != nil {
			p.fail(ctx, StepOrganization, err)
		}
		o.orgID = id
	}
	s.transition(ctx, o.received, StateOrganizationResolved, logger.Int64("orgID", o.orgID))
	return o
}

func (s *Service) createDeal(ctx context.Context, o orgResolved) (dealCreated, error) {
	id, err := s.crm.CreateDeal(ctx, crm.DealInput{
		Title:    crm.DealTitle(strings.TrimSpace(o.sub.Name)),
		PersonID: o.personID,
		OrgID:    o.orgID,
		Target:   o.target,
	})
	if err != nil {
		metrics.RecordStepFailure("deal")
		o.log.Error(ctx, "deal creation failed", logger.Error(err))
		return dealCreated{}, fmt.Errorf("%w: %w", ErrDealFailed, err)
	}
	d := dealCreated{orgResolved: o, dealID: id}
	s.transition(ctx, d.received, StateDealCreated, logger.Int64("dealID", id))
	return d, nil
}

func (s *Service) attachNote(ctx context.Context, d dealCreated) noteAttempted {
	sub := d.sub
	fields := crm.NoteFields{
		Name:        strings.TrimSpace(sub.Name),
		Company:     sub.Company,
		Role:        sub.Role,
		Email:       strings.TrimSpace(sub.Email),
		Country:     sub.Country,
		Phone:       d.phone,
		ResultText:  d.verdict.resultText,
		Score1Count: d.verdict.score1,
		Score2Count: d.verdict.score2,
		Items:       sub.Answers,
		RawAnswers:  sub.RawAnswers,
		Catalog:     s.catalog,
	}
	if d.verdict.known {
		q := d.verdict.qualifies
		fields.Qualifies = &q
	}

	id, err := s.crm.CreateNote(ctx, crm.NoteInput{
		Content:  crm.NoteContent(fields),
		DealID:   d.dealID,
		PersonID: d.personID,
		OrgID:    d.orgID,
	})
	if err != nil {
		d.fail(ctx, StepNote, err)
	}
	n := noteAttempted{dealCreated: d, noteID: id}
	s.transition(ctx, n.received, StateNoteAttempted)
	return n
}

// sendConfirmation is attempted whatever happened in the CRM steps.
func (s *Service) sendConfirmation(ctx context.Context, n noteAttempted, origin string) {
	defer s.transition(ctx, n.received, StateNotificationAttempted)
	if s.mailer == nil {
		n.warn(ctx, StepNotification, "confirmación deshabilitada")
		return
	}
	msg := s.composer.Compose(n.verdict.qualifies, origin)
	err := s.mailer.Send(ctx, strings.TrimSpace(n.sub.Email), msg)
	switch {
	case err == nil:
	case errors.Is(err, mailer.ErrDisabled):
		n.warn(ctx, StepNotification, "confirmación deshabilitada")
	default:
		n.fail(ctx, StepNotification, err)
	}
}

func (s *Service) respond(ctx context.Context, n noteAttempted) Outcome {
	q := n.verdict.qualifies
	out := Outcome{
		SubmissionID: n.id,
		Message:      SuccessMessage,
		Qualifies:    q,
		Branch:       n.verdict.branch,
		ResultText:   scoring.Text(q),
		UI: UI{
			Title:    notify.Subject,
			Body:     notify.Copy(q),
			CtaLabel: CtaLabel,
			CtaHref:  s.siteURL,
		},
		Region:   n.code,
		PersonID: n.personID,
		OrgID:    n.orgID,
		DealID:   n.dealID,
		NoteID:   n.noteID,
		Warnings: *n.warnings,
	}
	s.transition(ctx, n.received, StateResponded,
		logger.Bool("qualifies", q),
		logger.Int("warnings", len(out.Warnings)))
	return out
}

func (s *Service) transition(ctx context.Context, r received, st State, fields ...logger.Field) {
	r.log.Debug(ctx, "submission state", append([]logger.Field{logger.String("state", string(st))}, fields...)...)
}

func (r received) warn(ctx context.Context, step Step, msg string) {
	*r.warnings = append(*r.warnings, Warning{Step: step, Message: msg})
	r.log.Warn(ctx, "submission warning", logger.String("step", string(step)), logger.String("message", msg))
}

func (r received) fail(ctx context.Context, step Step, err error) {
	metrics.RecordStepFailure(string(step))
	r.warn(ctx, step, err.Error())
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Nanoseconds()) / 1e6
}
