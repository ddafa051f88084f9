package service

import (
	"encoding/json"

	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/region"
	"github.com/inforum/diagnostico/internal/domain/scoring"
)

// Submission is one completed questionnaire as received. The pipeline never
// modifies it. Client* fields are what the wizard computed; nil means the
// field was absent from the request.
type Submission struct {
	Name    string
	Email   string
	Company string
	Role    string
	Country string
	Phone   string

	Answers []questionnaire.Answer
	UTMs    map[string]string
	// RawAnswers is the answers object exactly as sent, kept for the audit note.
	RawAnswers json.RawMessage

	ClientScore1Count *int
	ClientQualifies   *bool
	ClientResultText  *string
}

// Step names a pipeline step in warnings and metrics.
type Step string

// Pipeline steps that can produce warnings.
const (
	StepAnswers      Step = "answers"
	StepVerdict      Step = "verdict"
	StepRegion       Step = "region"
	StepPhone        Step = "phone"
	StepPerson       Step = "person"
	StepOrganization Step = "organization"
	StepNote         Step = "note"
	StepNotification Step = "notification"
)

// Warning is a non-fatal problem recorded while processing a submission.
type Warning struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
}

// State is the pipeline position of a submission.
type State string

// Pipeline states in order.
const (
	StateReceived              State = "received"
	StatePersonResolved        State = "person_resolved"
	StateOrganizationResolved  State = "organization_resolved"
	StateDealCreated           State = "deal_created"
	StateNoteAttempted         State = "note_attempted"
	StateNotificationAttempted State = "notification_attempted"
	StateResponded             State = "responded"
)

// UI tells the wizard what to show on the final screen.
type UI struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	CtaLabel string `json:"ctaLabel"`
	CtaHref  string `json:"ctaHref"`
}

// Outcome is the result of a successful pipeline run. The CRM ids are zero
// when the matching step failed or was skipped.
type Outcome struct {
	SubmissionID string
	Message      string
	Qualifies    bool
	Branch       scoring.Branch
	ResultText   string
	UI           UI
	Region       region.Code
	PersonID     int64
	OrgID        int64
	DealID       int64
	NoteID       int64
	Warnings     []Warning
}
