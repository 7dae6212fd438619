package model

// VerifierStatus is the terminal state of a single verification task.
type VerifierStatus string

const (
	StatusOK      VerifierStatus = "ok"
	StatusTimeout VerifierStatus = "timeout"
	StatusError   VerifierStatus = "error"
)

// EvidenceRef points at an external source consulted by a verifier,
// with the weight that source carried in the verifier's score.
type EvidenceRef struct {
	SourceRef string  `json:"source_ref"`
	Weight    float64 `json:"weight"`
}

// VerifierResult is the partial outcome one verifier produced for one claim.
// Score is nil unless Status is ok. Produced exactly once per task.
type VerifierResult struct {
	VerifierName string         `json:"verifier_name"`
	Status       VerifierStatus `json:"status"`
	Score        *float64       `json:"score,omitempty"`
	Evidence     []EvidenceRef  `json:"evidence,omitempty"`
	Confidence   float64        `json:"confidence"`
	Detail       string         `json:"detail,omitempty"`
}

// Usable reports whether the result carries a score the synthesizer may use.
func (r VerifierResult) Usable() bool {
	return r.Status == StatusOK && r.Score != nil
}

// OKResult builds a usable result.
func OKResult(name string, score, confidence float64, evidence []EvidenceRef) VerifierResult {
	s := score
	return VerifierResult{
		VerifierName: name,
		Status:       StatusOK,
		Score:        &s,
		Confidence:   confidence,
		Evidence:     evidence,
	}
}

// TimeoutResult records a task that missed its deadline; it carries no score.
func TimeoutResult(name string) VerifierResult {
	return VerifierResult{VerifierName: name, Status: StatusTimeout}
}

// ErrorResult records a task that failed or misbehaved; it carries no score.
func ErrorResult(name, detail string) VerifierResult {
	return VerifierResult{VerifierName: name, Status: StatusError, Detail: detail}
}
