// Package resolver decides which directory the agent watches.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("no watch directory found")

type Resolver interface {
	Resolve() (string, error)
}

type Func func() (string, error)

func (f Func) Resolve() (string, error) {
	return f()
}

// Static resolves to a configured path. An empty path never resolves.
func Static(path string) Resolver {
	return Func(func() (string, error) {
		if strings.TrimSpace(path) == "" {
			return "", ErrNotFound
		}

		return filepath.Abs(path)
	})
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".heic": {},
	".heif": {},
	".dng":  {},
}

func IsImage(path string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LatestImage resolves to the directory holding the most recently modified
// image under root, the same way a camera roll is usually found.
func LatestImage(root string) Resolver {
	return Func(func() (string, error) {
		if strings.TrimSpace(root) == "" {
			return "", ErrNotFound
		}

		var (
			latestDir  string
			latestTime time.Time
		)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				return nil
			}

			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}

			if !IsImage(path) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			if info.ModTime().After(latestTime) {
				latestTime = info.ModTime()
				latestDir = filepath.Dir(path)
			}

			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to scan %s: %w", root, err)
		}

		if latestDir == "" {
			return "", fmt.Errorf("%w: no images under %s", ErrNotFound, root)
		}

		return filepath.Abs(latestDir)
	})
}

// Chain returns the first successful resolution.
func Chain(resolvers ...Resolver) Resolver {
	return Func(func() (string, error) {
		var errs []error
		for _, r := range resolvers {
			path, err := r.Resolve()
			if err == nil {
				return path, nil
			}
			errs = append(errs, err)
		}

		if len(errs) == 0 {
			return "", ErrNotFound
		}
		return "", errors.Join(errs...)
	})
}
