package smoketest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/inforum/diagnostico/internal/app"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/scoring"
	"github.com/inforum/diagnostico/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard, logger.FormatText); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeService answers like the intake service. When flip is set it
// returns the opposite verdict.
func fakeService(flip bool, submits *atomic.Int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})
	mux.HandleFunc("/questions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": questionnaire.Default().Questions()})
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		n := submits.Add(1)
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"ok":false,"error":"Cuerpo JSON inválido"}`)
			return
		}
		res := scoring.Evaluate(p.Answers.Items)
		_ = json.NewEncoder(w).Encode(Response{
			OK:           true,
			Message:      service.SuccessMessage,
			Qualifies:    res.Qualifies != flip,
			SubmissionID: "sub-" + string(rune('a'+n)),
			Warnings:     []service.Warning{},
		})
	})
	return httptest.NewServer(mux)
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator over the default catalog", t, func() {
		gen, err := NewGenerator(questionnaire.Default().Questions(), 42)
		So(err, ShouldBeNil)

		Convey("Every generated answer set passes catalog validation", func() {
			for range 200 {
				So(gen.Catalog().Validate(gen.Answers()), ShouldBeEmpty)
			}
		})

		Convey("Client verdict fields agree with the scoring rules", func() {
			for range 50 {
				c := gen.Case()
				want := scoring.Evaluate(c.Payload.Answers.Items)
				So(c.Payload.Qualifies, ShouldEqual, want.Qualifies)
				So(c.Payload.Score1Count, ShouldEqual, want.Score1Count)
				So(c.Payload.ResultText, ShouldEqual, want.ResultText)
				So(c.Payload.Email, ShouldStartWith, "smoke+")
				So(c.Payload.Phone, ShouldHaveLength, phoneDigits)
			}
		})

		Convey("The same seed yields the same answers", func() {
			other, err := NewGenerator(questionnaire.Default().Questions(), 42)
			So(err, ShouldBeNil)
			So(other.Answers(), ShouldResemble, gen.Answers())
		})
	})

	Convey("Given duplicate question ids", t, func() {
		q := questionnaire.Default().Questions()
		_, err := NewGenerator(append(q, q[0]), 1)
		So(err, ShouldNotBeNil)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a service that scores like the rules", t, func() {
		var submits atomic.Int32
		srv := fakeService(false, &submits)
		defer srv.Close()

		out := filepath.Join(t.TempDir(), "out", "cases.json")
		cfg := &Config{BaseURL: srv.URL, Count: 12, Workers: 3, Timeout: 5 * time.Second, Seed: 7, OutputFile: out}

		stats, err := Run(context.Background(), cfg)

		So(err, ShouldBeNil)
		So(submits.Load(), ShouldEqual, 12)
		So(stats.Generated, ShouldEqual, 12)
		So(stats.Submitted, ShouldEqual, 12)
		So(stats.Succeeded, ShouldEqual, 12)
		So(stats.Mismatched, ShouldEqual, 0)

		data, readErr := os.ReadFile(out)
		So(readErr, ShouldBeNil)
		var saved []Case
		So(json.Unmarshal(data, &saved), ShouldBeNil)
		So(saved, ShouldHaveLength, 12)
	})

	Convey("Given a service that flips every verdict", t, func() {
		var submits atomic.Int32
		srv := fakeService(true, &submits)
		defer srv.Close()

		cfg := &Config{BaseURL: srv.URL, Count: 5, Workers: 2, Timeout: 5 * time.Second, Seed: 3}
		stats, err := Run(context.Background(), cfg)

		So(errors.Is(err, ErrMismatch), ShouldBeTrue)
		So(stats.Mismatched, ShouldEqual, 5)
		So(stats.Succeeded, ShouldEqual, 0)
	})

	Convey("Given a service that is down", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Count: 1, Workers: 1, Timeout: time.Second})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})
}

func TestCheckResult(t *testing.T) {
	Convey("Given observed results", t, func() {
		expected := scoring.Result{Qualifies: true}
		ok := Result{Case: Case{Expected: expected}, Status: http.StatusOK,
			Response: Response{OK: true, Qualifies: true, SubmissionID: "s1"}}

		So(checkResult(ok), ShouldBeNil)

		bad := ok
		bad.Response.Qualifies = false
		So(errors.Is(checkResult(bad), ErrMismatch), ShouldBeTrue)

		noID := ok
		noID.Response.SubmissionID = ""
		So(errors.Is(checkResult(noID), ErrMismatch), ShouldBeTrue)

		failed := Result{Status: http.StatusInternalServerError, Response: Response{Error: "deal creation failed"}}
		So(checkResult(failed).Error(), ShouldContainSubstring, "deal creation failed")
	})
}
