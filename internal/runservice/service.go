// Package runservice provides the concrete implementation of pipeline.ScaffoldService.
// It wires the template resolver, copy engine, env materializer, feature
// composer and post-processing orchestrator into the scaffold pipeline.
package runservice

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"

	"github.com/NielsdaWheelz/tin/internal/core"
	"github.com/NielsdaWheelz/tin/internal/envfile"
	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/feature"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/lock"
	"github.com/NielsdaWheelz/tin/internal/paths"
	"github.com/NielsdaWheelz/tin/internal/pipeline"
	"github.com/NielsdaWheelz/tin/internal/postprocess"
	"github.com/NielsdaWheelz/tin/internal/scaffold"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// Service is the production implementation of pipeline.ScaffoldService.
type Service struct {
	fsys   fs.FS
	layout paths.Layout
	post   *postprocess.Orchestrator
	lock   lock.ProjectLock
	log    *slog.Logger
}

// NewWithDeps creates a Service. Projects are created under layout.Cwd.
func NewWithDeps(cr exec.CommandRunner, fsys fs.FS, layout paths.Layout, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		fsys:   fsys,
		layout: layout,
		post:   postprocess.New(cr, fsys, log),
		lock:   lock.New(),
		log:    log,
	}
}

// Orchestrator exposes the post-processing orchestrator so callers can adjust
// its platform or environment.
func (s *Service) Orchestrator() *postprocess.Orchestrator {
	return s.post
}

// ResolveTemplate finds the template directory for the request's language and auth.
func (s *Service) ResolveTemplate(_ context.Context, st *pipeline.State) error {
	id := st.Request.TemplateID()
	dir, err := tmpl.Resolve(s.fsys, id, tmpl.Candidates(s.layout, id))
	if err != nil {
		return err
	}
	s.log.Debug("template resolved", "template", id.String(), "dir", dir)
	st.TemplateDir = dir
	return nil
}

// CheckDestination fails if the project directory already exists, then
// claims the name with a lock file next to the destination. The pipeline
// releases the claim after Publish. The existence check runs again once the
// lock is held.
func (s *Service) CheckDestination(_ context.Context, st *pipeline.State) error {
	dest := filepath.Join(s.layout.Cwd, st.Request.ProjectName)
	if err := s.ensureAbsent(dest); err != nil {
		return err
	}
	unlock, err := s.lock.Acquire(dest)
	if err != nil {
		var locked *lock.ErrLocked
		if stderrors.As(err, &locked) {
			return errors.WrapWithDetails(errors.EDestLocked, locked.Error(), err,
				map[string]string{"dest": dest, "lock_file": locked.Path})
		}
		return errors.WrapWithDetails(errors.EInternal, "cannot lock destination", err,
			map[string]string{"dest": dest})
	}
	if err := s.ensureAbsent(dest); err != nil {
		unlock()
		return err
	}
	st.Dest = dest
	st.Release = unlock
	return nil
}

// CopyTemplate copies the template into a hidden sibling of the destination
// and verifies the copy.
func (s *Service) CopyTemplate(_ context.Context, st *pipeline.State) error {
	staging := filepath.Join(filepath.Dir(st.Dest), core.StagingName(st.Request.ProjectName))
	if err := scaffold.CopyTree(st.TemplateDir, staging); err != nil {
		if ok, _ := fs.Exists(s.fsys, staging); ok {
			st.StagingDir = staging
		}
		return err
	}
	st.StagingDir = staging
	s.log.Debug("template copied", "staging_dir", staging)
	return scaffold.Verify(st.TemplateDir, staging)
}

// RewriteManifest sets package.json's name to the project name.
func (s *Service) RewriteManifest(_ context.Context, st *pipeline.State) error {
	return scaffold.RewriteManifest(s.fsys, st.StagingDir, st.Request.ProjectName)
}

// WriteEnv writes .env and .env.example with a fresh signing secret.
func (s *Service) WriteEnv(_ context.Context, st *pipeline.State) error {
	files, err := envfile.Write(s.fsys, st.StagingDir, st.Request.EnvInput())
	st.Files = append(st.Files, files...)
	return err
}

// ComposeFeatures applies the enabled optional features.
func (s *Service) ComposeFeatures(ctx context.Context, st *pipeline.State) error {
	files, err := feature.Compose(ctx, s.fsys, st.StagingDir, st.Request.FeatureOptions(), s.log)
	st.Files = append(st.Files, files...)
	return err
}

// Publish renames the staging directory to the project directory. The
// destination is checked again first: the lock only excludes other tin runs.
func (s *Service) Publish(_ context.Context, st *pipeline.State) error {
	if err := s.ensureAbsent(st.Dest); err != nil {
		return err
	}
	if err := s.fsys.Rename(st.StagingDir, st.Dest); err != nil {
		return errors.WrapWithDetails(errors.EPublishFailed, "failed to move project into place", err,
			map[string]string{"dest": st.Dest})
	}
	s.log.Debug("project published", "dest", st.Dest)
	st.StagingDir = ""
	return nil
}

// PostProcess runs dependency install and, when requested, repository init.
func (s *Service) PostProcess(ctx context.Context, st *pipeline.State) {
	st.Report = s.post.Run(ctx, st.Dest, postprocess.Plan{Git: st.Request.Git})
}

func (s *Service) ensureAbsent(dest string) error {
	exists, err := fs.Exists(s.fsys, dest)
	if err != nil {
		return errors.WrapWithDetails(errors.EInternal, "cannot inspect destination", err,
			map[string]string{"dest": dest})
	}
	if exists {
		return errors.NewWithDetails(errors.EDestExists, "directory "+dest+" already exists",
			map[string]string{"dest": dest})
	}
	return nil
}
