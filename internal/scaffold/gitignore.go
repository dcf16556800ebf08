package scaffold

import (
	"os"
	"strings"

	"github.com/NielsdaWheelz/tin/internal/fs"
)

// ProjectIgnoreEntries are the entries every generated project ignores.
var ProjectIgnoreEntries = []string{
	"node_modules/",
	"dist/",
	".env",
	"npm-debug.log*",
	"coverage/",
}

// GitignoreResult indicates what happened to .gitignore.
type GitignoreResult string

const (
	GitignoreCreated   GitignoreResult = "created"
	GitignoreUpdated   GitignoreResult = "updated"
	GitignoreUnchanged GitignoreResult = "unchanged"
)

// EnsureGitignore ensures every entry is present in the file at path.
// Creates the file if missing. Does not add duplicate entries; "dir" and
// "dir/" count as the same entry. The file always ends with a newline.
func EnsureGitignore(fsys fs.FS, path string, entries []string) (GitignoreResult, error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		if err := fsys.WriteFile(path, []byte(strings.Join(entries, "\n")+"\n"), 0o644); err != nil {
			return "", err
		}
		return GitignoreCreated, nil
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[normalizeEntry(line)] = true
	}

	newContent := string(content)
	if len(newContent) > 0 && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	for _, e := range entries {
		key := normalizeEntry(e)
		if present[key] {
			continue
		}
		present[key] = true
		newContent += e + "\n"
	}

	if newContent == string(content) {
		return GitignoreUnchanged, nil
	}
	if err := fsys.WriteFile(path, []byte(newContent), 0o644); err != nil {
		return "", err
	}
	return GitignoreUpdated, nil
}

func normalizeEntry(line string) string {
	return strings.TrimSuffix(strings.TrimSpace(line), "/")
}
