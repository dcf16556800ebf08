// Package pipeline runs the scaffold stages in a fixed order, short-circuits
// on the first fatal error, and preserves TinError codes.
package pipeline

import (
	"context"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/postprocess"
)

// State accumulates values as steps execute.
type State struct {
	Request Request

	// Populated by ResolveTemplate
	TemplateDir string

	// Populated by CheckDestination
	Dest string

	// Release drops the destination claim taken by CheckDestination. The
	// pipeline calls it once Publish has finished or a step has failed.
	Release func() error

	// Populated by CopyTemplate; empty once published
	StagingDir string

	// Project-relative paths written by WriteEnv and ComposeFeatures
	Files []string

	// Populated by PostProcess
	Report postprocess.Report
}

// ScaffoldService defines the step implementations of a scaffold run.
// Each method corresponds to a pipeline step executed in order.
// Implementations are injected so tests can run without npm or git.
type ScaffoldService interface {
	// ResolveTemplate locates the template directory for the request.
	ResolveTemplate(ctx context.Context, st *State) error

	// CheckDestination fails with E_DEST_EXISTS if the project directory exists.
	CheckDestination(ctx context.Context, st *State) error

	// CopyTemplate copies the template into a staging directory and verifies it.
	CopyTemplate(ctx context.Context, st *State) error

	// RewriteManifest sets the project name in package.json.
	RewriteManifest(ctx context.Context, st *State) error

	// WriteEnv writes .env and .env.example.
	WriteEnv(ctx context.Context, st *State) error

	// ComposeFeatures applies the optional features.
	ComposeFeatures(ctx context.Context, st *State) error

	// Publish renames the staging directory to the project directory.
	Publish(ctx context.Context, st *State) error

	// PostProcess runs install and repository init. It cannot fail the run.
	PostProcess(ctx context.Context, st *State)
}

// Result describes a delivered project.
type Result struct {
	Dest     string
	Template string
	Files    []string
	Report   postprocess.Report
}

// Pipeline orchestrates the execution of scaffold steps in a fixed order.
type Pipeline struct {
	svc ScaffoldService
}

// NewPipeline creates a pipeline with the given service implementation.
func NewPipeline(svc ScaffoldService) *Pipeline {
	return &Pipeline{svc: svc}
}

type step struct {
	name string
	fn   func(context.Context, *State) error
}

// Run validates req and executes the steps in fixed order:
//  1. ResolveTemplate
//  2. CheckDestination
//  3. CopyTemplate
//  4. RewriteManifest
//  5. WriteEnv
//  6. ComposeFeatures
//  7. Publish
//  8. PostProcess
//
// Behavior:
//   - Short-circuits on the first error from steps 1-7
//   - *TinError codes, messages and details are preserved exactly
//   - Other errors become E_INTERNAL with the step name in details
//   - While a staging directory exists, errors carry it as staging_dir
//   - State.Release runs before PostProcess, on success and on failure
//   - Post-processing failures never fail the run; they are in Result.Report
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	st := &State{Request: req}

	steps := []step{
		{StepResolveTemplate, p.svc.ResolveTemplate},
		{StepCheckDestination, p.svc.CheckDestination},
		{StepCopyTemplate, p.svc.CopyTemplate},
		{StepRewriteManifest, p.svc.RewriteManifest},
		{StepWriteEnv, p.svc.WriteEnv},
		{StepComposeFeatures, p.svc.ComposeFeatures},
		{StepPublish, p.svc.Publish},
	}
	for _, s := range steps {
		if err := s.fn(ctx, st); err != nil {
			release(st)
			err = wrapStepError(err, s.name)
			if st.StagingDir != "" {
				err = errors.WithDetail(err, "staging_dir", st.StagingDir)
			}
			return resultOf(st), err
		}
	}
	release(st)

	p.svc.PostProcess(ctx, st)
	return resultOf(st), nil
}

// release drops the destination claim. A failed release leaves a lock file
// that the next run treats as stale, so the error is not surfaced.
func release(st *State) {
	if st.Release == nil {
		return
	}
	_ = st.Release()
	st.Release = nil
}

func resultOf(st *State) Result {
	return Result{
		Dest:     st.Dest,
		Template: st.TemplateDir,
		Files:    st.Files,
		Report:   st.Report,
	}
}

// wrapStepError ensures the error is a *TinError.
// If already *TinError, returns it unchanged.
// Otherwise wraps it with E_INTERNAL and step name in details.
func wrapStepError(err error, stepName string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsTinError(err); ok {
		return err
	}
	return errors.WrapWithDetails(
		errors.EInternal,
		"internal error",
		err,
		map[string]string{"step": stepName},
	)
}

// Step name constants.
const (
	StepResolveTemplate  = "ResolveTemplate"
	StepCheckDestination = "CheckDestination"
	StepCopyTemplate     = "CopyTemplate"
	StepRewriteManifest  = "RewriteManifest"
	StepWriteEnv         = "WriteEnv"
	StepComposeFeatures  = "ComposeFeatures"
	StepPublish          = "Publish"
	StepPostProcess      = "PostProcess"
)
