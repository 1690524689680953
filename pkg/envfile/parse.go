// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration: %w", err)
	}
	defer fh.Close() //nolint:errcheck // read-only descriptor

	return Parse(fh, path)
}

// Parse parses configuration text from r. The path argument is used in
// error messages only.
func Parse(r io.Reader, path string) (*File, error) {
	f := &File{
		Path:     path,
		sections: make(map[string]*Section),
	}

	var (
		current *Section
		curKey  string
		curVal  *strings.Builder
		curLine int
	)

	flush := func() {
		if current == nil || curKey == "" {
			return
		}
		current.set(curKey, Value{
			Raw:     strings.TrimRight(curVal.String(), "\n"),
			Section: current.Name,
			Line:    curLine,
		})
		curKey = ""
		curVal = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue

		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";"):
			continue

		case strings.HasPrefix(line, "["):
			flush()
			if !strings.HasSuffix(trimmed, "]") {
				return nil, parseErrorf(path, lineNo, "unterminated section header %q", trimmed)
			}
			name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			if name == "" {
				return nil, parseErrorf(path, lineNo, "empty section name")
			}
			if _, dup := f.sections[name]; dup {
				return nil, parseErrorf(path, lineNo, "duplicate section [%s]", name)
			}
			current = &Section{Name: name, Line: lineNo, settings: make(map[string]Value)}
			f.sections[name] = current
			f.order = append(f.order, name)

		case line[0] == ' ' || line[0] == '\t':
			// Indented: continuation of the current multi-line value.
			if current == nil || curKey == "" {
				return nil, parseErrorf(path, lineNo, "continuation line outside a setting")
			}
			curVal.WriteString("\n")
			curVal.WriteString(trimmed)

		default:
			if current == nil {
				return nil, parseErrorf(path, lineNo, "setting before any section header")
			}
			key, val, ok := strings.Cut(line, "=")
			if !ok {
				return nil, parseErrorf(path, lineNo, "expected `key = value`, got %q", trimmed)
			}
			flush()
			curKey = strings.TrimSpace(key)
			if curKey == "" {
				return nil, parseErrorf(path, lineNo, "empty setting name")
			}
			curLine = lineNo
			curVal = &strings.Builder{}
			curVal.WriteString(strings.TrimSpace(val))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	flush()

	if err := f.checkBases(); err != nil {
		return nil, err
	}
	return f, nil
}

// checkBases validates every `base` reference up front so inheritance
// problems surface at load time, not at first use.
func (f *File) checkBases() error {
	for _, name := range f.order {
		sec := f.sections[name]
		ref, ok := sec.Get(BaseKey)
		if !ok {
			continue
		}
		target := strings.TrimSpace(ref.Raw)
		if !f.Has(target) {
			return parseErrorf(f.Path, ref.Line, "section [%s] inherits from unknown section [%s]", name, target)
		}
		if target == name {
			return parseErrorf(f.Path, ref.Line, "section [%s] inherits from itself", name)
		}
	}

	// Reject cycles across the whole file, not just self-references.
	for _, name := range f.order {
		if _, err := f.chain(name); err != nil {
			return err
		}
	}
	return nil
}
