package domain

// TemplateKey identifies one of the configured artifact templates.
type TemplateKey string

const (
	TemplatePBI         TemplateKey = "pbi"
	TemplateProductGoal TemplateKey = "product_goal"
	TemplatePOReview    TemplateKey = "po_review"

	// DefaultTemplateKey is used when the caller supplies an unknown key
	DefaultTemplateKey = TemplatePBI
)

// KnownTemplateKeys lists the keys a caller may select explicitly.
var KnownTemplateKeys = []TemplateKey{TemplatePBI, TemplateProductGoal, TemplatePOReview}

// GenerationRequest captures one caller request. Created at request entry,
// immutable, discarded when the response stream completes.
type GenerationRequest struct {
	Prompt   string
	Template TemplateKey
}

// UpstreamEvent is one decoded unit from the backend's NDJSON stream.
// Raw holds the original line so metric fields on the terminal event can
// be extracted without a second full decode.
type UpstreamEvent struct {
	Fragment  string
	Raw       []byte
	DecodeErr error
	Final     bool
	Malformed bool
}
