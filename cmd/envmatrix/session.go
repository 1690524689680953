// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arpitjain799/envmatrix/internal/config"
	"github.com/arpitjain799/envmatrix/internal/issue"
	"github.com/arpitjain799/envmatrix/pkg/envfile"
)

// MatrixFileName is the configuration file envmatrix searches for.
const MatrixFileName = "envmatrix.ini"

// session binds one loaded matrix configuration to the run inputs
// derived from it: the project root, the workroot, and the default
// parallelism after layering tool settings and [matrix] overrides.
type session struct {
	file     *envfile.File
	path     string
	root     string
	workroot string
	parallel int
}

// loadSession locates and parses the matrix configuration. The --file
// flag wins; otherwise the file is searched upward from the current
// directory.
func loadSession() (*session, error) {
	path := matrixFile
	if path == "" {
		found, err := findMatrixFile()
		if err != nil {
			return nil, err
		}
		path = found
	}

	f, err := envfile.Load(path)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving configuration directory: %w", err)
	}

	s := &session{file: f, path: path, root: root}
	if err := s.applySettings(); err != nil {
		return nil, err
	}
	return s, nil
}

// applySettings layers the workroot and parallelism defaults: tool
// settings first, then the [matrix] section.
func (s *session) applySettings() error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	s.workroot = cfg.WorkRoot
	s.parallel = cfg.Parallel

	if matrix := s.file.Section(envfile.MatrixSection); matrix != nil {
		if v := strings.TrimSpace(matrix.GetRaw("workroot")); v != "" {
			s.workroot = v
		}
		if v := strings.TrimSpace(matrix.GetRaw("parallel")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return &envfile.ParseError{Path: s.path, Msg: fmt.Sprintf("[matrix] parallel must be a positive integer, got %q", v)}
			}
			s.parallel = n
		}
	}

	if s.workroot == "" {
		s.workroot = filepath.Join(s.root, ".envmatrix")
	} else if !filepath.IsAbs(s.workroot) {
		s.workroot = filepath.Join(s.root, s.workroot)
	}
	return nil
}

// findMatrixFile walks from the working directory toward the
// filesystem root looking for an envmatrix.ini.
func findMatrixFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, MatrixFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", issue.NewErrorContext().
		WithOperation("locate configuration").
		WithResource(MatrixFileName).
		WithSuggestion("Create an envmatrix.ini with a [matrix] envlist").
		WithSuggestion("Or pass an explicit path via --file").
		Wrap(fmt.Errorf("no %s found in the current directory or any parent", MatrixFileName)).
		BuildError()
}
