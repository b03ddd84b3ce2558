package rag

// Chunk of a document
type Chunk struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Content string `json:"content"`
	Source  string `json:"source"` // filename or doc ID
}

// LoadStatus tags the outcome of loading a document.
type LoadStatus string

const (
	StatusOK          LoadStatus = "ok"
	StatusUnsupported LoadStatus = "unsupported"
)

// LoadResult is the text extracted from a document, or the reason none could be.
type LoadResult struct {
	Path   string
	Status LoadStatus
	Text   string
	Reason string
}

// OK reports whether the result carries usable text.
func (r LoadResult) OK() bool {
	return r.Status == StatusOK
}

// String returns the text, or the diagnostic sentinel for unsupported results.
func (r LoadResult) String() string {
	if r.OK() {
		return r.Text
	}
	return diagnostic(r.Reason)
}

// AnswerOptions controls generation for a single LLM call.
type AnswerOptions struct {
	MaxTokens   int
	Temperature float64
}

// DefaultAnswerOptions returns the generation defaults.
func DefaultAnswerOptions() AnswerOptions {
	return AnswerOptions{
		MaxTokens:   500,
		Temperature: 0.7,
	}
}
