package rank

import (
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
)

// Query is the persona/job pair with its keyword sets extracted once, so
// per-section scoring does not re-tokenize the persona.
type Query struct {
	Role      string
	Job       string
	RoleTerms map[string]struct{}
	JobTerms  map[string]struct{}
}

// BuildQuery normalizes the persona inputs and extracts their keyword
// sets.
func BuildQuery(p doc.PersonaQuery, topK int) Query {
	return Query{
		Role:      strings.TrimSpace(p.Role),
		Job:       strings.TrimSpace(p.Job),
		RoleTerms: Keywords(p.Role, topK),
		JobTerms:  Keywords(p.Job, topK),
	}
}

// Text renders the provider-facing query string: role and job followed
// by their key terms, deduplicated, in stable order.
func (q Query) Text() string {
	union := make(map[string]struct{}, len(q.RoleTerms)+len(q.JobTerms))
	for t := range q.RoleTerms {
		union[t] = struct{}{}
	}
	for t := range q.JobTerms {
		union[t] = struct{}{}
	}

	parts := make([]string, 0, 2+len(union))
	if q.Role != "" {
		parts = append(parts, q.Role)
	}
	if q.Job != "" {
		parts = append(parts, q.Job)
	}
	parts = append(parts, sortedTerms(union)...)
	return strings.Join(parts, " ")
}
