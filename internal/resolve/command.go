// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// compileCommand splits a fully substituted command line into program
// and argument vector using shell field-splitting rules (quoting and
// escapes honored). Commands are executed directly, never through a
// live shell, so this is the only place shell syntax is interpreted.
// `$VAR` references expand against the given environment map; unknown
// variables expand to nothing.
//
// The boolean is false when the line splits to zero fields (e.g. a
// trailing {posargs} that resolved to nothing was the whole line).
func compileCommand(env, line string, vars map[string]string) (Command, bool, error) {
	if strings.TrimSpace(line) == "" {
		return Command{}, false, nil
	}

	if _, err := syntax.NewParser().Parse(strings.NewReader(line), "command"); err != nil {
		return Command{}, false, substErrorf(env, keyCommands, "invalid command syntax %q: %v", line, err)
	}

	fields, err := shell.Fields(line, func(name string) string {
		return vars[name]
	})
	if err != nil {
		return Command{}, false, substErrorf(env, keyCommands, "cannot split command %q: %v", line, err)
	}
	if len(fields) == 0 {
		return Command{}, false, nil
	}

	return Command{
		Program: fields[0],
		Args:    fields[1:],
		Raw:     strings.TrimSpace(line),
	}, true, nil
}
