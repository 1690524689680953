// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigParseErrorId
	EnvironmentNotFoundId
	SubstitutionFailedId
	ProvisioningFailedId
	CommandFailedId
	CommandTimeoutId
	AggregationIncompleteId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No envmatrix.ini found!

We searched for an envmatrix.ini but couldn't find one in the expected
locations.

## Search locations (in order of precedence):
1. The path given via --file
2. Current directory
3. Parent directories up to the repository root

## Things you can try:
- Create a minimal envmatrix.ini in your project directory:
~~~ini
[matrix]
envlist = py{311,312}

[env]
commands = pytest {posargs}
~~~

- Or point at an explicit file:
~~~
$ envmatrix run --file ci/envmatrix.ini
~~~`,
	}

	configParseErrorIssue = &Issue{
		id: ConfigParseErrorId,
		mdMsg: `
# Failed to parse envmatrix.ini!

Your configuration contains a syntax error or an invalid section layout.

## Common issues:
- A section header declared twice
- A 'base =' reference to a section that does not exist
- A cyclic 'base =' inheritance chain
- An unbalanced brace group in a section name or envlist

## Things you can try:
- Check the error message for the exact file and line
- Expand the envlist by hand to spot a malformed brace group:
~~~
$ envmatrix list
~~~`,
	}

	environmentNotFoundIssue = &Issue{
		id: EnvironmentNotFoundId,
		mdMsg: `
# No such environment!

A selector on the command line matched no known environment.

## Things you can try:
- List every concrete environment name:
~~~
$ envmatrix list
~~~

- Selectors support globs, quoted to survive your shell:
~~~
$ envmatrix run 'func-*'
~~~

- Remember that factor-expanded names come from the envlist, e.g.
  'py{311,312}' declares 'py311' and 'py312', not 'py{311,312}'.`,
	}

	substitutionFailedIssue = &Issue{
		id: SubstitutionFailedId,
		mdMsg: `
# Substitution failed!

A setting references a token that cannot be resolved for this
environment.

## Common causes:
- A typo in a token name ('{envdir}', '{envname}', '{posargs}', ...)
- '{deps}' used outside install_command
- A '{[section]key}' reference to a missing section or key
- Two settings that reference each other in a cycle

## Things you can try:
- Literal braces must be doubled: '{{' and '}}'
- Check the named token against the settings of the failing
  environment's section and its base chain`,
	}

	provisioningFailedIssue = &Issue{
		id: ProvisioningFailedId,
		mdMsg: `
# Provisioning failed!

The environment's working directory or its dependency install step
could not be completed. Its commands never ran; other environments
continue unaffected.

## Things you can try:
- Check that the workroot is writable
- Re-run the install command by hand inside the environment directory:
~~~
$ envmatrix exec <envname> -- <install command>
~~~

- Check the install log under the environment's log directory`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# A command failed!

A command exited non-zero; the remaining commands of that environment
were skipped.

## Things you can try:
- Read the captured output under '{workroot}/<envname>/log/'
- Re-run just the failing environment:
~~~
$ envmatrix run <envname>
~~~

- For flaky commands, configure bounded retries:
~~~ini
[env]
retries = 2
retry_delay = 5s
~~~`,
	}

	commandTimeoutIssue = &Issue{
		id: CommandTimeoutId,
		mdMsg: `
# A command timed out!

The command exceeded its configured timeout and its whole process
group was killed. Timeouts are never retried.

## Things you can try:
- Raise or remove the limit:
~~~ini
[env]
command_timeout = 30m
~~~

- Check the command log for where it hung
- Shard the test run across environments so each shard fits the
  budget`,
	}

	aggregationIncompleteIssue = &Issue{
		id: AggregationIncompleteId,
		mdMsg: `
# Aggregation incomplete!

A group report was written, but at least one member's artifact was
missing, unreadable, or the member never ran to completion. The
report is flagged 'complete: false' and the surviving members were
still merged.

## Things you can try:
- Check the per-member errors recorded in the report
- Confirm the failing member actually writes its artifact to
  '{covfile}' (exported via setenv, e.g. COVERAGE_FILE)
- Re-run only the failing member and aggregate again`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load tool configuration!

The envmatrix settings file (config.toml) could not be read. Built-in
defaults are used for this run.

## Things you can try:
- Show the effective configuration and its source:
~~~
$ envmatrix config show
~~~

- Regenerate a fresh settings file:
~~~
$ envmatrix config init
~~~`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():        configNotFoundIssue,
		configParseErrorIssue.Id():      configParseErrorIssue,
		environmentNotFoundIssue.Id():   environmentNotFoundIssue,
		substitutionFailedIssue.Id():    substitutionFailedIssue,
		provisioningFailedIssue.Id():    provisioningFailedIssue,
		commandFailedIssue.Id():         commandFailedIssue,
		commandTimeoutIssue.Id():        commandTimeoutIssue,
		aggregationIncompleteIssue.Id(): aggregationIncompleteIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
