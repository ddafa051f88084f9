package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/inforum/diagnostico/internal/adapters/crm"
	"github.com/inforum/diagnostico/internal/adapters/mailer"
	service "github.com/inforum/diagnostico/internal/app"
	"github.com/inforum/diagnostico/internal/domain/notify"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/region"
	"github.com/inforum/diagnostico/internal/domain/scoring"
	"github.com/inforum/diagnostico/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errDown = errors.New("crm down")

// fakeCRM records calls and fails the steps listed in failing.
type fakeCRM struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool
	deals   []crm.DealInput
	persons []crm.PersonInput
	notes   []crm.NoteInput
}

func newFakeCRM(failing ...string) *fakeCRM {
	f := &fakeCRM{failing: map[string]bool{}}
	for _, s := range failing {
		f.failing[s] = true
	}
	return f
}

func (f *fakeCRM) record(step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
	if f.failing[step] {
		return errDown
	}
	return nil
}

func (f *fakeCRM) UpsertPerson(_ context.Context, in crm.PersonInput) (int64, error) {
	f.persons = append(f.persons, in)
	if err := f.record("person"); err != nil {
		return 0, err
	}
	return 42, nil
}

func (f *fakeCRM) UpsertOrganization(_ context.Context, _ string) (int64, error) {
	if err := f.record("organization"); err != nil {
		return 0, err
	}
	return 8, nil
}

func (f *fakeCRM) CreateDeal(_ context.Context, in crm.DealInput) (int64, error) {
	f.deals = append(f.deals, in)
	if err := f.record("deal"); err != nil {
		return 0, err
	}
	return 300, nil
}

func (f *fakeCRM) CreateNote(_ context.Context, in crm.NoteInput) (int64, error) {
	f.notes = append(f.notes, in)
	if err := f.record("note"); err != nil {
		return 0, err
	}
	return 77, nil
}

type fakeMailer struct {
	err  error
	sent []string
	msgs []notify.Message
}

func (m *fakeMailer) Send(_ context.Context, to string, msg notify.Message) error {
	m.sent = append(m.sent, to)
	m.msgs = append(m.msgs, msg)
	return m.err
}

func answers(scores ...int) []questionnaire.Answer {
	ids := []string{"usa_sapb1", "admin_servidores", "donde_erp", "objetivo_iaas"}
	out := make([]questionnaire.Answer, 0, len(scores))
	for i, sc := range scores {
		out = append(out, questionnaire.Answer{ID: ids[i%len(ids)], Value: "v", Score: sc})
	}
	return out
}

// completeAnswers is a valid answer set with three score=2 answers.
func completeAnswers() []questionnaire.Answer {
	return []questionnaire.Answer{
		{ID: "usa_sapb1", Value: "onprem", Score: 2},
		{ID: "admin_servidores", Value: "proveedor_externo", Score: 1},
		{ID: "problemas_infra:lentitud_caidas", Value: "lentitud_caidas", Score: 2},
		{ID: "donde_erp", Value: "nube", Score: 1},
		{ID: "objetivo_iaas", Value: "optimizar_costos", Score: 2},
	}
}

func validSubmission() service.Submission {
	return service.Submission{
		Name:    "Ana",
		Email:   "ana@example.com",
		Company: "Acme",
		Role:    "CTO",
		Country: "Honduras",
		Phone:   "99998888",
	}
}

func hasStep(ws []service.Warning, step service.Step) bool {
	for _, w := range ws {
		if w.Step == step {
			return true
		}
	}
	return false
}

func newService(c service.CRM, m service.Mailer, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithCRM(c),
		service.WithMailer(m),
		service.WithIDGenerator(func() string { return "sub-1" }),
	}
	return service.New(append(base, opts...)...)
}

func TestSubmitValidation(t *testing.T) {
	Convey("Given a submission missing identity fields", t, func() {
		fc := newFakeCRM()
		fm := &fakeMailer{}
		svc := newService(fc, fm)

		cases := []struct {
			name string
			sub  service.Submission
		}{
			{"email", service.Submission{Name: "Ana"}},
			{"name", service.Submission{Email: "ana@example.com"}},
			{"blank", service.Submission{Name: "   ", Email: "\t"}},
		}
		for _, tc := range cases {
			sub := tc.sub
			Convey("When "+tc.name+" is missing it is rejected before any call", func() {
				_, err := svc.Submit(context.Background(), sub, "https://example.test")
				So(errors.Is(err, service.ErrInvalidSubmission), ShouldBeTrue)
				var ve *service.ValidationError
				So(errors.As(err, &ve), ShouldBeTrue)
				So(ve.Error(), ShouldEqual, "Faltan nombre o email")
				So(fc.calls, ShouldBeEmpty)
				So(fm.sent, ShouldBeEmpty)
			})
		}
	})
}

func TestSubmitHappyPath(t *testing.T) {
	Convey("Given a qualifying submission", t, func() {
		fc := newFakeCRM()
		fm := &fakeMailer{}
		svc := newService(fc, fm)
		sub := validSubmission()
		sub.Answers = completeAnswers()
		sub.RawAnswers = json.RawMessage(`{"items":[]}`)
		yes := true
		sub.ClientQualifies = &yes

		out, err := svc.Submit(context.Background(), sub, "https://example.test")

		Convey("Then every step runs in order", func() {
			So(err, ShouldBeNil)
			So(fc.calls, ShouldResemble, []string{"person", "organization", "deal", "note"})
			So(fm.sent, ShouldResemble, []string{"ana@example.com"})
		})

		Convey("And the outcome carries the verdict and ids", func() {
			So(out.SubmissionID, ShouldEqual, "sub-1")
			So(out.Message, ShouldEqual, service.SuccessMessage)
			So(out.Qualifies, ShouldBeTrue)
			So(out.Branch, ShouldEqual, scoring.BranchQualified)
			So(out.ResultText, ShouldEqual, "Sí califica")
			So(out.PersonID, ShouldEqual, 42)
			So(out.OrgID, ShouldEqual, 8)
			So(out.DealID, ShouldEqual, 300)
			So(out.NoteID, ShouldEqual, 77)
			So(out.Warnings, ShouldBeEmpty)
			So(out.UI, ShouldResemble, service.UI{
				Title:    notify.Subject,
				Body:     notify.CopyQualifies,
				CtaLabel: "Visitar nuestro website",
				CtaHref:  notify.DefaultSiteURL,
			})
		})

		Convey("And the deal is routed by region with the formatted phone", func() {
			So(out.Region, ShouldEqual, region.HN)
			So(fc.deals[0].Target, ShouldResemble, region.Target{PipelineID: 3, StageID: 13})
			So(fc.deals[0].Title, ShouldEqual, "Diagnóstico de Infraestructura de Servidores – Ana")
			So(fc.deals[0].PersonID, ShouldEqual, 42)
			So(fc.deals[0].OrgID, ShouldEqual, 8)
			So(fc.persons[0].Phone, ShouldEqual, "+504 99998888")
		})

		Convey("And the note links all records and carries the server verdict", func() {
			note := fc.notes[0]
			So(note.DealID, ShouldEqual, 300)
			So(note.PersonID, ShouldEqual, 42)
			So(note.OrgID, ShouldEqual, 8)
			So(note.Content, ShouldContainSubstring, "• Resultado: ✅ Sí califica")
			So(note.Content, ShouldContainSubstring, "• # de respuestas score=2: 3")
			So(note.Content, ShouldContainSubstring, "- Uso de SAP Business One: onprem [score=2]")
		})

		Convey("And the email uses the thumbnail from the request origin", func() {
			So(fm.msgs[0].HTML, ShouldContainSubstring, "https://example.test/video.png")
		})
	})
}

func TestSubmitDegradedCRM(t *testing.T) {
	Convey("Given a CRM where everything but the deal fails", t, func() {
		fc := newFakeCRM("person", "organization", "note")
		fm := &fakeMailer{}
		svc := newService(fc, fm)

		out, err := svc.Submit(context.Background(), validSubmission(), "https://example.test")

		Convey("Then the submission still completes with warnings", func() {
			So(err, ShouldBeNil)
			So(out.UI.Title, ShouldNotBeBlank)
			So(out.DealID, ShouldEqual, 300)
			So(out.PersonID, ShouldEqual, 0)
			So(hasStep(out.Warnings, service.StepPerson), ShouldBeTrue)
			So(hasStep(out.Warnings, service.StepOrganization), ShouldBeTrue)
			So(hasStep(out.Warnings, service.StepNote), ShouldBeTrue)
			So(fm.sent, ShouldHaveLength, 1)
		})
	})

	Convey("Given a CRM where the deal fails", t, func() {
		fc := newFakeCRM("deal")
		fm := &fakeMailer{}
		svc := newService(fc, fm)

		_, err := svc.Submit(context.Background(), validSubmission(), "https://example.test")

		Convey("Then the error propagates even though the person was resolved", func() {
			So(errors.Is(err, service.ErrDealFailed), ShouldBeTrue)
			So(errors.Is(err, errDown), ShouldBeTrue)
			So(fc.calls, ShouldResemble, []string{"person", "organization", "deal"})
			So(fm.sent, ShouldBeEmpty)
		})
	})

	Convey("Given no CRM client at all", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		_, err := svc.Submit(context.Background(), validSubmission(), "")
		So(errors.Is(err, service.ErrDealFailed), ShouldBeTrue)
		So(errors.Is(err, service.ErrNoCRM), ShouldBeTrue)
	})
}

func TestSubmitNotification(t *testing.T) {
	Convey("Given transport problems", t, func() {
		fc := newFakeCRM()

		Convey("A disabled mailer is a confirmation warning", func() {
			fm := &fakeMailer{err: mailer.ErrDisabled}
			out, err := newService(fc, fm).Submit(context.Background(), validSubmission(), "")
			So(err, ShouldBeNil)
			So(out.Warnings, ShouldContain, service.Warning{Step: service.StepNotification, Message: "confirmación deshabilitada"})
		})

		Convey("No mailer at all is the same warning", func() {
			svc := service.New(service.WithLogger(logger.Nop()), service.WithCRM(fc))
			out, err := svc.Submit(context.Background(), validSubmission(), "")
			So(err, ShouldBeNil)
			So(hasStep(out.Warnings, service.StepNotification), ShouldBeTrue)
		})

		Convey("A send failure is a warning and the CRM work stands", func() {
			fm := &fakeMailer{err: errors.New("smtp 421")}
			out, err := newService(fc, fm).Submit(context.Background(), validSubmission(), "")
			So(err, ShouldBeNil)
			So(out.DealID, ShouldEqual, 300)
			So(hasStep(out.Warnings, service.StepNotification), ShouldBeTrue)
		})
	})
}

func TestSubmitVerdict(t *testing.T) {
	Convey("Given answer sets", t, func() {
		fc := newFakeCRM()
		svc := newService(fc, &fakeMailer{})
		run := func(sub service.Submission) service.Outcome {
			out, err := svc.Submit(context.Background(), sub, "")
			So(err, ShouldBeNil)
			return out
		}

		Convey("Two score=2 and one score=1 do not qualify", func() {
			sub := validSubmission()
			sub.Answers = answers(2, 2, 1)
			out := run(sub)
			So(out.Qualifies, ShouldBeFalse)
			So(out.Branch, ShouldEqual, scoring.BranchInconclusive)
			So(out.UI.Body, ShouldEqual, notify.CopyDoesNotQualify)
		})

		Convey("Three score=1 and one score=2 are disqualified", func() {
			sub := validSubmission()
			sub.Answers = answers(1, 1, 1, 2)
			out := run(sub)
			So(out.Qualifies, ShouldBeFalse)
			So(out.Branch, ShouldEqual, scoring.BranchDisqualified)
			So(out.ResultText, ShouldEqual, "No califica")
		})

		Convey("A client verdict that disagrees is overridden with a warning", func() {
			sub := validSubmission()
			sub.Answers = answers(1, 1, 1)
			yes := true
			sub.ClientQualifies = &yes
			out := run(sub)
			So(out.Qualifies, ShouldBeFalse)
			So(hasStep(out.Warnings, service.StepVerdict), ShouldBeTrue)
		})

		Convey("Without items the client verdict is used", func() {
			sub := validSubmission()
			yes := true
			sub.ClientQualifies = &yes
			out := run(sub)
			So(out.Qualifies, ShouldBeTrue)
			So(out.Warnings, ShouldBeEmpty)
		})

		Convey("Without items or client verdict the respondent does not qualify", func() {
			out := run(validSubmission())
			So(out.Qualifies, ShouldBeFalse)
			So(fc.notes[len(fc.notes)-1].Content, ShouldNotContainSubstring, "Resultado")
		})

		Convey("Too many multi selections are reported but scored", func() {
			sub := validSubmission()
			sub.Answers = []questionnaire.Answer{
				{ID: "problemas_infra:a", Value: "a", Score: 2},
				{ID: "problemas_infra:b", Value: "b", Score: 2},
				{ID: "problemas_infra:c", Value: "c", Score: 2},
			}
			out := run(sub)
			So(hasStep(out.Warnings, service.StepAnswers), ShouldBeTrue)
			So(out.Qualifies, ShouldBeTrue)
		})
	})
}

func TestSubmitRegion(t *testing.T) {
	Convey("Given region inputs", t, func() {
		fc := newFakeCRM()
		svc := newService(fc, &fakeMailer{})
		submit := func(country, phone string) service.Outcome {
			sub := validSubmission()
			sub.Country, sub.Phone = country, phone
			out, err := svc.Submit(context.Background(), sub, "")
			So(err, ShouldBeNil)
			return out
		}

		Convey("Aliases resolve like their code", func() {
			So(submit("PANAMÁ", "").Region, ShouldEqual, region.PA)
			So(submit("panama", "").Region, ShouldEqual, region.PA)
			So(submit("PA", "").Region, ShouldEqual, region.PA)
		})

		Convey("An empty country falls back silently", func() {
			out := submit("", "")
			So(out.Region, ShouldEqual, region.GT)
			So(hasStep(out.Warnings, service.StepRegion), ShouldBeFalse)
		})

		Convey("An unknown country falls back with a warning", func() {
			out := submit("México", "")
			So(out.Region, ShouldEqual, region.GT)
			So(hasStep(out.Warnings, service.StepRegion), ShouldBeTrue)
			So(fc.deals[len(fc.deals)-1].Target, ShouldResemble, region.Target{PipelineID: 1, StageID: 6})
		})

		Convey("A short phone is sent with a warning", func() {
			out := submit("Ecuador", "1234")
			So(hasStep(out.Warnings, service.StepPhone), ShouldBeTrue)
			So(fc.persons[len(fc.persons)-1].Phone, ShouldEqual, "+593 1234")
		})

		Convey("Alternate region tables are honored", func() {
			tables := region.DefaultTables()
			tables.Pipelines[region.GT] = 90
			tables.Stages[region.GT] = 91
			r, err := region.NewResolver(tables)
			So(err, ShouldBeNil)
			alt := newService(fc, &fakeMailer{}, service.WithResolver(r))
			_, err = alt.Submit(context.Background(), validSubmissionIn("Guatemala"), "")
			So(err, ShouldBeNil)
			So(fc.deals[len(fc.deals)-1].Target, ShouldResemble, region.Target{PipelineID: 90, StageID: 91})
		})
	})
}

func validSubmissionIn(country string) service.Submission {
	sub := validSubmission()
	sub.Country = country
	return sub
}

func TestSubmitConcurrent(t *testing.T) {
	Convey("Given many concurrent submissions", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()), service.WithCRM(&syncCRM{}), service.WithMailer(&syncMailer{}))

		var wg sync.WaitGroup
		ids := make([]string, 20)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out, err := svc.Submit(context.Background(), validSubmission(), "")
				if err == nil {
					ids[i] = out.SubmissionID
				}
			}(i)
		}
		wg.Wait()

		Convey("Each gets a distinct id", func() {
			seen := map[string]bool{}
			for _, id := range ids {
				So(strings.TrimSpace(id), ShouldNotBeEmpty)
				seen[id] = true
			}
			So(seen, ShouldHaveLength, len(ids))
		})
	})
}

// syncCRM and syncMailer are stateless so they can be shared across goroutines.
type syncCRM struct{}

func (syncCRM) UpsertPerson(context.Context, crm.PersonInput) (int64, error)  { return 1, nil }
func (syncCRM) UpsertOrganization(context.Context, string) (int64, error)     { return 2, nil }
func (syncCRM) CreateDeal(context.Context, crm.DealInput) (int64, error)      { return 3, nil }
func (syncCRM) CreateNote(context.Context, crm.NoteInput) (int64, error)      { return 4, nil }

type syncMailer struct{}

func (syncMailer) Send(context.Context, string, notify.Message) error { return nil }
