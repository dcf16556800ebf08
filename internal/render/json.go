package render

import (
	"encoding/json"
	"io"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/pipeline"
)

// SchemaVersion is the version of the --json output contract.
const SchemaVersion = "1.0"

// ResultJSON is the stable JSON form of a scaffold run.
type ResultJSON struct {
	ProjectName string        `json:"project_name"`
	Dest        string        `json:"dest"`
	Template    string        `json:"template"`
	Language    string        `json:"language"`
	Auth        string        `json:"auth"`
	Port        int           `json:"port"`
	Files       []string      `json:"files"`
	PostProcess []OutcomeJSON `json:"post_process"`
}

// OutcomeJSON is one post-processing task outcome.
type OutcomeJSON struct {
	Task       string `json:"task"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// ErrorJSON describes a failed run.
type ErrorJSON struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// JSONEnvelope is the stable JSON output format for --json.
// Exactly one of Data and Error is set.
type JSONEnvelope struct {
	SchemaVersion string      `json:"schema_version"`
	Data          *ResultJSON `json:"data"`
	Error         *ErrorJSON  `json:"error,omitempty"`
}

// NewResultJSON converts a run result for JSON output.
func NewResultJSON(req pipeline.Request, res pipeline.Result) *ResultJSON {
	out := &ResultJSON{
		ProjectName: req.ProjectName,
		Dest:        res.Dest,
		Template:    res.Template,
		Language:    req.Language,
		Auth:        req.Auth,
		Port:        req.Port,
		Files:       res.Files,
		PostProcess: make([]OutcomeJSON, 0, len(res.Report.Outcomes)),
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	for _, o := range res.Report.Outcomes {
		out.PostProcess = append(out.PostProcess, OutcomeJSON{
			Task:       o.Task,
			Status:     string(o.Status),
			Reason:     o.Reason,
			DurationMS: o.Duration.Milliseconds(),
		})
	}
	return out
}

// NewErrorJSON converts an error for JSON output.
func NewErrorJSON(err error) *ErrorJSON {
	if te, ok := errors.AsTinError(err); ok {
		return &ErrorJSON{Code: string(te.Code), Message: te.Msg, Details: te.Details}
	}
	return &ErrorJSON{Code: string(errors.EInternal), Message: err.Error()}
}

// WriteJSON writes the envelope to w.
func WriteJSON(w io.Writer, data *ResultJSON, runErr error) error {
	env := JSONEnvelope{SchemaVersion: SchemaVersion, Data: data}
	if runErr != nil {
		env.Data = nil
		env.Error = NewErrorJSON(runErr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
