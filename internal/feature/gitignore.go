package feature

import (
	"context"
	"path/filepath"

	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/scaffold"
)

// GitignoreName is the ignore file every project receives.
const GitignoreName = ".gitignore"

func applyGitignore(_ context.Context, fsys fs.FS, dir string, _ Options) ([]string, error) {
	result, err := scaffold.EnsureGitignore(fsys, filepath.Join(dir, GitignoreName), scaffold.ProjectIgnoreEntries)
	if err != nil {
		return nil, err
	}
	if result == scaffold.GitignoreUnchanged {
		return nil, nil
	}
	return []string{GitignoreName}, nil
}
