package scoring_test

import (
	"math/rand"
	"testing"

	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func answers(scores ...int) []questionnaire.Answer {
	out := make([]questionnaire.Answer, len(scores))
	for i, s := range scores {
		out[i] = questionnaire.Answer{ID: "q", Value: "v", Score: s}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	Convey("Given the default rules", t, func() {
		Convey("When two answers score 2 and one scores 1", func() {
			res := scoring.Evaluate(answers(2, 2, 1))

			Convey("Then it should not qualify and stay inconclusive", func() {
				So(res.Score1Count, ShouldEqual, 1)
				So(res.Score2Count, ShouldEqual, 2)
				So(res.Qualifies, ShouldBeFalse)
				So(res.Branch, ShouldEqual, scoring.BranchInconclusive)
				So(res.ResultText, ShouldEqual, scoring.TextDoesNotQualify)
			})
		})

		Convey("When three answers score 2", func() {
			res := scoring.Evaluate(answers(2, 2, 2))

			Convey("Then it should qualify", func() {
				So(res.Qualifies, ShouldBeTrue)
				So(res.Branch, ShouldEqual, scoring.BranchQualified)
				So(res.ResultText, ShouldEqual, scoring.TextQualifies)
			})
		})

		Convey("When three answers score 1 and one scores 2", func() {
			res := scoring.Evaluate(answers(1, 1, 1, 2))

			Convey("Then it should take the explicit disqualify branch", func() {
				So(res.Score1Count, ShouldEqual, 3)
				So(res.Score2Count, ShouldEqual, 1)
				So(res.Qualifies, ShouldBeFalse)
				So(res.Branch, ShouldEqual, scoring.BranchDisqualified)
			})
		})

		Convey("When both thresholds are met", func() {
			res := scoring.Evaluate(answers(1, 1, 1, 2, 2, 2))

			Convey("Then the score=2 rule should win", func() {
				So(res.Qualifies, ShouldBeTrue)
				So(res.Branch, ShouldEqual, scoring.BranchQualified)
			})
		})

		Convey("When there are no answers", func() {
			res := scoring.Evaluate(nil)

			Convey("Then it should be inconclusive", func() {
				So(res.Qualifies, ShouldBeFalse)
				So(res.Branch, ShouldEqual, scoring.BranchInconclusive)
				So(res.Score1Count+res.Score2Count, ShouldEqual, 0)
			})
		})

		Convey("When the same multiset is shuffled", func() {
			base := answers(2, 1, 2, 1, 1, 2, 1)
			want := scoring.Evaluate(base)
			rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic shuffle

			Convey("Then the verdict should never change", func() {
				for i := 0; i < 50; i++ {
					shuffled := append([]questionnaire.Answer(nil), base...)
					rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
					So(scoring.Evaluate(shuffled), ShouldResemble, want)
				}
			})
		})
	})
}

func TestRulesOptions(t *testing.T) {
	Convey("Given custom thresholds", t, func() {
		rules := scoring.New(scoring.WithQualifyAt(2), scoring.WithDisqualifyAt(4))

		Convey("Then the thresholds should apply", func() {
			So(rules.Evaluate(answers(2, 2)).Qualifies, ShouldBeTrue)
			So(rules.Evaluate(answers(1, 1, 1)).Branch, ShouldEqual, scoring.BranchInconclusive)
			So(rules.Evaluate(answers(1, 1, 1, 1)).Branch, ShouldEqual, scoring.BranchDisqualified)
		})

		Convey("And non-positive thresholds should be ignored", func() {
			r := scoring.New(scoring.WithQualifyAt(0), scoring.WithDisqualifyAt(-1))
			So(r, ShouldResemble, scoring.New())
		})
	})
}
