// Package scaffold copies a template tree into a new project directory and
// edits the package metadata it contains.
package scaffold

import (
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NielsdaWheelz/tin/internal/errors"
)

// ExcludedNames are skipped at any depth when copying a template.
var ExcludedNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
}

// CopyTree copies src into dest, recreating directories, regular files
// (with their permission bits) and symlinks. Entries named in ExcludedNames
// are skipped together with their contents. dest must not exist.
func CopyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(errors.ECopyFailed, "cannot read template directory", err)
	}
	if !info.IsDir() {
		return errors.NewWithDetails(errors.ECopyFailed, "template path is not a directory",
			map[string]string{"source": src})
	}
	if err := os.Mkdir(dest, info.Mode().Perm()|0o700); err != nil {
		return errors.WrapWithDetails(errors.ECopyFailed, "failed to create project directory", err,
			map[string]string{"dest": dest})
	}

	err = filepath.WalkDir(src, func(path string, d iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == src {
			return nil
		}
		if ExcludedNames[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.Type()&iofs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return os.Mkdir(target, fi.Mode().Perm()|0o700)
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, fi.Mode().Perm())
		default:
			// sockets, devices and pipes have no place in a template
			return nil
		}
	})
	if err != nil {
		return errors.WrapWithDetails(errors.ECopyFailed, "failed to copy template", err,
			map[string]string{"source": src, "dest": dest})
	}
	return nil
}

func copyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile honors umask; restore the template's bits.
	return os.Chmod(dest, perm)
}

// Verify checks the copy postconditions: dest is non-empty and contains
// package.json. A violation returns E_COPY_VERIFICATION with sorted listings
// of both directories so an empty source can be told apart from a copy that
// produced nothing.
func Verify(src, dest string) error {
	destEntries, destErr := listDir(dest)
	var problem string
	switch {
	case destErr != nil:
		problem = fmt.Sprintf("project directory is unreadable: %v", destErr)
	case len(destEntries) == 0:
		problem = "project directory is empty after copy"
	default:
		if _, err := os.Stat(filepath.Join(dest, ManifestFile)); err != nil {
			problem = ManifestFile + " missing after copy"
		}
	}
	if problem == "" {
		return nil
	}

	srcEntries, _ := listDir(src)
	return errors.NewWithDetails(errors.ECopyVerification, problem, map[string]string{
		"source":         src,
		"dest":           dest,
		"source_entries": strings.Join(srcEntries, ","),
		"dest_entries":   strings.Join(destEntries, ","),
	})
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
