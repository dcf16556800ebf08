package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/NielsdaWheelz/tin/internal/errors"
)

// Option is one choice of a Select prompt.
type Option struct {
	Label string
	Value string
}

// Prompter asks for choices that were not given as flags.
type Prompter interface {
	// Select returns the Value of the chosen option. def is a Value.
	Select(message string, options []Option, def string) (string, error)
	Confirm(message string, def bool) (bool, error)
	Port(message string, def int) (int, error)
}

// surveyPrompter prompts on the terminal. Prompts are drawn on stderr so
// stdout stays clean for --json.
type surveyPrompter struct {
	stdio survey.AskOpt
}

func newSurveyPrompter() *surveyPrompter {
	return &surveyPrompter{stdio: survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)}
}

func (p *surveyPrompter) Select(message string, options []Option, def string) (string, error) {
	labels := make([]string, len(options))
	prompt := &survey.Select{Message: message}
	for i, o := range options {
		labels[i] = o.Label
		if o.Value == def {
			prompt.Default = o.Label
		}
	}
	prompt.Options = labels

	var idx int
	if err := survey.AskOne(prompt, &idx, p.stdio); err != nil {
		return "", translateSurveyErr(err)
	}
	return options[idx].Value, nil
}

func (p *surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out, p.stdio); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Port(message string, def int) (int, error) {
	var out string
	prompt := &survey.Input{Message: message, Default: strconv.Itoa(def)}
	if err := survey.AskOne(prompt, &out, p.stdio, survey.WithValidator(validatePort)); err != nil {
		return 0, translateSurveyErr(err)
	}
	return strconv.Atoi(out)
}

func validatePort(ans any) error {
	s, _ := ans.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("please enter a valid port number (0-65535)")
	}
	return nil
}

func translateSurveyErr(err error) error {
	if stderrors.Is(err, terminal.InterruptErr) {
		return errors.New(errors.EUsage, "aborted")
	}
	return errors.Wrap(errors.EInternal, "prompt failed", err)
}
