package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
)

// MaxDocuments caps how many documents one request may carry.
const MaxDocuments = 50

// ValidationError reports a malformed analysis request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Msg
	}
	return e.Msg
}

// IsValidationError checks whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DocumentRef names one input document. Name is the display name used
// in results; Path is where the bytes live.
type DocumentRef struct {
	Name string
	Path string
}

// Request is a normalized analysis request.
type Request struct {
	Documents []DocumentRef
	Persona   doc.PersonaQuery
}

// Wire forms accepted for a single document:
//
//	"reports/annual.pdf"
//	{"name": "guide", "path": "g.pdf"}
//	{"filename": "a.pdf", "title": "A"}
//
// The filename/title pair is the legacy challenge format, where the
// filename doubles as the path.
type rawDocument struct {
	Name string
	Path string
}

func (d *rawDocument) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: "documents", Msg: "document path must not be empty"}
		}
		d.Path = s
		d.Name = filepath.Base(s)
		return nil
	}

	var obj struct {
		Name     string `json:"name"`
		Path     string `json:"path"`
		Filename string `json:"filename"`
		Title    string `json:"title"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return &ValidationError{Field: "documents", Msg: "each document must be a path string or an object"}
	}

	switch {
	case obj.Path != "":
		d.Path = obj.Path
		d.Name = obj.Name
	case obj.Filename != "":
		d.Path = obj.Filename
		d.Name = obj.Title
	default:
		return &ValidationError{Field: "documents", Msg: `document object needs a "path" or "filename"`}
	}
	if d.Name == "" {
		d.Name = filepath.Base(d.Path)
	}
	return nil
}

type rawRequest struct {
	Documents     []rawDocument   `json:"documents"`
	Persona       json.RawMessage `json:"persona"`
	Job           json.RawMessage `json:"job_to_be_done"`
	ChallengeInfo json.RawMessage `json:"challenge_info"` // accepted and ignored
}

// textOrField reads either a bare JSON string or an object carrying the
// text under the given key.
func textOrField(data []byte, field string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("must be a string or an object with %q", field)
	}
	raw, ok := obj[field]
	if !ok {
		return "", nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%q must be a string", field)
	}
	return s, nil
}

// ParseRequest decodes and validates a request body. Relative document
// paths are resolved against baseDir when it is non-empty, so a request
// file can name its neighbors.
func ParseRequest(data []byte, baseDir string) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return Request{}, ve
		}
		return Request{}, &ValidationError{Msg: "invalid JSON: " + err.Error()}
	}

	role, err := textOrField(raw.Persona, "role")
	if err != nil {
		return Request{}, &ValidationError{Field: "persona", Msg: err.Error()}
	}
	job, err := textOrField(raw.Job, "task")
	if err != nil {
		return Request{}, &ValidationError{Field: "job_to_be_done", Msg: err.Error()}
	}

	req := Request{
		Persona: doc.PersonaQuery{
			Role: strings.TrimSpace(role),
			Job:  strings.TrimSpace(job),
		},
	}
	for _, d := range raw.Documents {
		path := d.Path
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		req.Documents = append(req.Documents, DocumentRef{Name: d.Name, Path: path})
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate enforces the request limits.
func (r Request) Validate() error {
	if len(r.Documents) == 0 {
		return &ValidationError{Field: "documents", Msg: "at least one document is required"}
	}
	if len(r.Documents) > MaxDocuments {
		return &ValidationError{Field: "documents", Msg: fmt.Sprintf("at most %d documents per request, got %d", MaxDocuments, len(r.Documents))}
	}
	if r.Persona.Role == "" {
		return &ValidationError{Field: "persona", Msg: "persona role is required"}
	}
	if r.Persona.Job == "" {
		return &ValidationError{Field: "job_to_be_done", Msg: "job task is required"}
	}
	return nil
}
