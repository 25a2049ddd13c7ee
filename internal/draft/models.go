package draft

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a receipt inside a draft.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusAnalyzing  Status = "analyzing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
	StatusEditing    Status = "editing"
)

var allStatuses = []Status{
	StatusUploading,
	StatusProcessing,
	StatusAnalyzing,
	StatusReady,
	StatusError,
	StatusEditing,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var inFlightStatuses = map[Status]struct{}{
	StatusUploading:  {},
	StatusProcessing: {},
	StatusAnalyzing:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsInFlightStatus reports whether a status reflects an in-flight ingestion step.
func IsInFlightStatus(status Status) bool {
	_, ok := inFlightStatuses[status]
	return ok
}

// Phase represents the submission lifecycle of a draft.
type Phase string

const (
	PhaseDraft      Phase = "draft"
	PhaseSubmitting Phase = "submitting"
	PhaseComplete   Phase = "complete"
)

// FileIdentity describes the uploaded document behind a receipt.
type FileIdentity struct {
	LocalPath    string
	RemoteFileID string
	FileName     string
	MimeType     string
}

// Assignment ties a draft to a campus and department. Both halves are always
// set together so a half-selected state is never observable.
type Assignment struct {
	CampusID       string
	CampusName     string
	DepartmentID   string
	DepartmentName string
}

// Complete reports whether both campus and department have been chosen.
func (a Assignment) Complete() bool {
	return a.CampusID != "" && a.DepartmentID != ""
}

// Profile is the submitter snapshot relevant to reimbursement.
type Profile struct {
	Name        string
	BankAccount string
}

// Receipt represents one uploaded document and its extracted financial data.
type Receipt struct {
	ID   string
	File FileIdentity

	Status   Status
	Progress int

	Description string
	Vendor      string
	Date        string

	// Amount is denominated in the settlement currency and is the
	// authoritative value for totals and submission.
	Amount decimal.Decimal

	// OriginalAmount, CurrencyCode, and ExchangeRate are set when the
	// source document is in a foreign currency; Amount is then derived as
	// OriginalAmount x ExchangeRate unless a settlement-currency figure
	// was supplied directly.
	OriginalAmount decimal.Decimal
	CurrencyCode   string
	ExchangeRate   decimal.Decimal

	// Estimated marks Amount as a rate-derived estimate rather than a
	// figure read off the document.
	Estimated bool

	// StatementRequired is set when a corroborating bank statement should
	// be attached before submission is advisable. Whether one is attached
	// is derived from the presence of a child receipt, never stored here.
	StatementRequired bool

	// Confidence is the extraction trust score (0-1). Display only; it
	// never gates submission.
	Confidence float64

	// ParentID links a bank-statement receipt to the foreign-currency
	// receipt it substantiates.
	ParentID string

	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsStatement reports whether the receipt substantiates another receipt.
func (r Receipt) IsStatement() bool {
	return r.ParentID != ""
}

// IsInFlight reports whether the receipt is still being ingested.
func (r Receipt) IsInFlight() bool {
	return IsInFlightStatus(r.Status)
}

// SetProgress raises the upload progress. Progress is monotone while
// uploading; a lower value is ignored.
func (r *Receipt) SetProgress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > r.Progress {
		r.Progress = percent
	}
}

// SetError marks the receipt as terminally failed with the given message.
func (r *Receipt) SetError(message string) {
	r.Status = StatusError
	r.ErrorMessage = message
}
