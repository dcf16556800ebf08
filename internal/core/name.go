package core

import (
	"fmt"
	"strings"
)

// DefaultProjectName is used when no name is given.
const DefaultProjectName = "my-express-app"

// ValidateProjectName reports whether name can be used as a single directory
// name in the current working directory.
func ValidateProjectName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("project name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("project name %q is reserved", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("project name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("project name contains a NUL byte")
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("project name %q starts with '-'", name)
	}
	return nil
}

// SanitizeDBName derives a database name from a project name: lowercase,
// with every character outside [a-z0-9] replaced by '-'. Runs of '-' are
// kept as-is, so SanitizeDBName(SanitizeDBName(s)) == SanitizeDBName(s).
func SanitizeDBName(projectName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(projectName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
