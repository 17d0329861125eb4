package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mercator-hq/thinout/pkg/thinout"
)

// File is a regular file found by a FileSource.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Name returns the base name of the file.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// FileSource lists the files of a directory as retention items.
type FileSource struct {
	// Dir is the directory to scan.
	Dir string

	// Pattern is a glob matched against base names. Empty matches all.
	Pattern string

	// Recursive descends into subdirectories.
	Recursive bool

	// Location is the time zone defining the civil date of a modification
	// time. Nil means time.Local.
	Location *time.Location
}

// List returns the matching regular files sorted by modification time.
// Hidden files and directories are skipped. Symbolic links are not followed.
func (s *FileSource) List(ctx context.Context) ([]File, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	info, err := os.Stat(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", s.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", s.Dir)
	}

	var files []File
	err = filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == s.Dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !s.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, Size: fi.Size(), ModTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", s.Dir, err)
	}

	slices.SortStableFunc(files, func(a, b File) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

// Items converts files into retention items dated by the civil date of their
// modification time in the source's location. Every item uses weigher.
func (s *FileSource) Items(files []File, weigher thinout.Weigher) []thinout.Item {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	items := make([]thinout.Item, len(files))
	for i, f := range files {
		items[i] = thinout.NewItem(f.Path, f.ModTime.In(loc))
		items[i].Weight = weigher
	}
	return items
}
