package bookgen

// HeadingResult records what happened to one heading during a content run.
type HeadingResult struct {
	HeadingNumber int    `json:"heading_number"`
	HeadingTitle  string `json:"heading_title"`
	OK            bool   `json:"ok"`
	// Phase and Error are set when OK is false. Phase names the step that
	// exhausted its attempts: "content", "summary", or "persist".
	Phase    string `json:"phase,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunReport aggregates per-heading outcomes of a content generation run.
// A failed heading never aborts the run; it is recorded here so the caller
// can resume from its heading number.
type RunReport struct {
	BookTitle    string          `json:"book_title"`
	StartHeading int             `json:"start_heading"`
	Results      []HeadingResult `json:"results"`
}

func (r *RunReport) add(res HeadingResult) {
	r.Results = append(r.Results, res)
}

// Failed returns the results for headings that did not complete.
func (r *RunReport) Failed() []HeadingResult {
	var failed []HeadingResult
	for _, res := range r.Results {
		if !res.OK {
			failed = append(failed, res)
		}
	}
	return failed
}

// AllOK reports whether every heading in the run completed.
func (r *RunReport) AllOK() bool {
	return len(r.Failed()) == 0
}
