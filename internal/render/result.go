package render

import (
	"fmt"
	"io"

	"github.com/NielsdaWheelz/tin/internal/pipeline"
	"github.com/NielsdaWheelz/tin/internal/postprocess"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// labelWidth aligns the summary values.
const labelWidth = 10

var languageNames = map[string]string{
	tmpl.LangTS: "TypeScript",
	tmpl.LangJS: "JavaScript",
}

var authNames = map[string]string{
	tmpl.AuthJWT:     "JWT (header-based)",
	tmpl.AuthCookies: "JWT in cookies",
}

// WriteResult writes the human summary of a delivered project.
func WriteResult(w io.Writer, req pipeline.Request, res pipeline.Result) error {
	s := NewStyles(w)
	p := &printer{w: w}

	p.line(s.Title.Render("created " + req.ProjectName))
	p.field(s, "path", res.Dest)
	p.field(s, "template", res.Template)
	p.field(s, "language", languageNames[req.Language])
	p.field(s, "auth", authNames[req.Auth])
	p.field(s, "port", fmt.Sprintf("%d", req.Port)+s.Muted.Render(" (configurable in .env)"))
	p.field(s, "database", "MongoDB"+s.Muted.Render(" (configurable in .env)"))
	p.field(s, "docker", yesNo(req.Docker))
	p.field(s, "api docs", yesNo(req.APIDocs))

	if len(res.Report.Outcomes) > 0 {
		p.line(s.Label.Render("post-processing:"))
		for _, o := range res.Report.Outcomes {
			p.line("  " + outcomeLine(s, o))
		}
	}

	p.line(s.Label.Render("next:"))
	p.line("  " + s.Command.Render("cd "+req.ProjectName))
	if _, failed := failedInstall(res.Report); failed {
		p.line("  " + s.Command.Render("npm install"))
	}
	p.line("  " + s.Command.Render("npm run dev"))
	return p.err
}

func outcomeLine(s Styles, o postprocess.Outcome) string {
	switch o.Status {
	case postprocess.StatusSuccess:
		return s.StatusOK.String() + " " + o.Task
	case postprocess.StatusSkipped:
		return s.StatusSkipped.String() + " " + o.Task + s.Muted.Render(": "+o.Reason)
	default:
		return s.StatusFailed.String() + " " + o.Task + ": " + o.Reason
	}
}

func failedInstall(r postprocess.Report) (postprocess.Outcome, bool) {
	o, ok := r.Outcome(postprocess.TaskInstall)
	return o, ok && o.Status == postprocess.StatusFailed
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) field(s Styles, label, value string) {
	p.line(fmt.Sprintf("  %-*s %s", labelWidth, label+":", s.Value.Render(value)))
}
