package diagnose

// DisclaimerUA is appended to every completed diagnosis.
const DisclaimerUA = "Це попередня діагностика. Для остаточного висновку зверніться до агронома або фітопатолога."

// VisionFeatures maps feature names to confidence values in [0, 1].
// An empty map means feature extraction produced nothing usable.
type VisionFeatures map[string]float64

// KBRef points at a knowledge-base entry that supported a candidate.
type KBRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Candidate is one ranked diagnosis hypothesis.
type Candidate struct {
	DiseaseID string  `json:"disease_id"`
	Disease   string  `json:"disease"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
	KBRefs    []KBRef `json:"kb_refs"`
}

// Plan groups the recommended actions for the leading candidates.
type Plan struct {
	Diagnostics []string `json:"diagnostics"`
	Agronomy    []string `json:"agronomy"`
	Chemical    []string `json:"chemical"`
	Bio         []string `json:"bio"`
}

// Debug carries per-stage timings and component identities. It is
// attached to every response so callers can always account for latency.
type Debug struct {
	Timings    map[string]float64 `json:"timings"`
	Components map[string]string  `json:"components,omitempty"`
}

// Response is the assembled result of a diagnosis run.
type Response struct {
	CaseID         string         `json:"case_id"`
	Candidates     []Candidate    `json:"candidates"`
	Plan           Plan           `json:"plan"`
	VisualFeatures VisionFeatures `json:"visual_features"`
	Disclaimers    []string       `json:"disclaimers"`
	Debug          *Debug         `json:"debug,omitempty"`
}
