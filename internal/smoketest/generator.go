package smoketest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/scoring"
	"github.com/inforum/diagnostico/pkg/logger"
)

// Country labels the wizard dropdown sends, one per supported region plus
// one that is not routed anywhere.
var countryLabels = []string{ //nolint:gochecknoglobals // fixed fixture set
	"Guatemala", "El Salvador", "Honduras", "Panamá", "República Dominicana", "Ecuador", "México",
}

var roles = []string{"CTO", "Gerente de TI", "CFO", "Administrador de sistemas", ""} //nolint:gochecknoglobals // fixed fixture set

const (
	phoneDigits       = 8
	utmCampaignPrefix = "smoke-"
)

// Generator builds random but valid submissions for a catalog.
type Generator struct {
	rnd     *rand.Rand
	catalog *questionnaire.Catalog
}

// NewGenerator returns a generator over questions. A zero seed picks one
// from the clock.
func NewGenerator(questions []questionnaire.Question, seed uint64) (*Generator, error) {
	catalog, err := questionnaire.NewCatalog(questions)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative clock value
	}
	return &Generator{
		rnd:     rand.New(rand.NewPCG(seed, seed>>1|1)), //nolint:gosec // fixtures, not secrets
		catalog: catalog,
	}, nil
}

// Catalog returns the catalog the generator draws from.
func (g *Generator) Catalog() *questionnaire.Catalog { return g.catalog }

// Answers picks one valid answer set: one choice per single question and
// 1..MaxSelections distinct choices per multi question.
func (g *Generator) Answers() []questionnaire.Answer {
	var out []questionnaire.Answer
	for _, q := range g.catalog.Questions() {
		switch q.Kind {
		case questionnaire.KindMulti:
			limit := q.MaxSelections
			if limit <= 0 || limit > len(q.Choices) {
				limit = len(q.Choices)
			}
			n := 1 + g.rnd.IntN(limit)
			for _, idx := range g.rnd.Perm(len(q.Choices))[:n] {
				out = append(out, g.answer(q, q.Choices[idx]))
			}
		default:
			out = append(out, g.answer(q, q.Choices[g.rnd.IntN(len(q.Choices))]))
		}
	}
	return out
}

func (g *Generator) answer(q questionnaire.Question, c questionnaire.Choice) questionnaire.Answer {
	a := questionnaire.Answer{ID: questionnaire.AnswerID(q, c.Value), Value: c.Value, Score: c.Score}
	if c.RequiresText {
		a.ExtraText = "detalle " + strconv.Itoa(g.rnd.IntN(1000))
	}
	return a
}

// Case builds one submission whose client verdict agrees with the server
// rules, so any mismatch reported back is the service's fault.
func (g *Generator) Case() Case {
	answers := g.Answers()
	expected := scoring.Evaluate(answers)
	id := uuid.NewString()
	return Case{
		Payload: Payload{
			Name:    "Smoke " + id[:8],
			Company: "Smoke Co " + id[:4],
			Role:    roles[g.rnd.IntN(len(roles))],
			Email:   "smoke+" + id + "@example.test",
			Country: countryLabels[g.rnd.IntN(len(countryLabels))],
			Phone:   g.phone(),
			Answers: Answers{
				UTMs:  map[string]string{"utm_source": "smoketest", "utm_campaign": utmCampaignPrefix + id[:8]},
				Items: answers,
			},
			Score1Count: expected.Score1Count,
			Qualifies:   expected.Qualifies,
			ResultText:  expected.ResultText,
		},
		Expected: expected,
	}
}

func (g *Generator) phone() string {
	b := make([]byte, phoneDigits)
	for i := range b {
		b[i] = byte('0' + g.rnd.IntN(10))
	}
	return string(b)
}

// generateCases builds config.Count cases.
func generateCases(ctx context.Context, config *Config, questions []questionnaire.Question, stats *Stats) ([]Case, error) {
	gen, err := NewGenerator(questions, config.Seed)
	if err != nil {
		return nil, err
	}
	cases := make([]Case, 0, config.Count)
	for range config.Count {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cases = append(cases, gen.Case())
	}
	stats.Generated = len(cases)

	logger.Get().Info(ctx, "submissions generated",
		logger.Int("count", len(cases)),
		logger.Int("questions", len(questions)))
	return cases, nil
}
