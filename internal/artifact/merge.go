// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ReadUnits reads a line-based artifact file: one covered-unit
// identifier per line, blank lines ignored. A file containing NUL
// bytes is rejected as corrupt rather than merged as garbage.
func ReadUnits(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("artifact %s is not line-based text", path)
	}

	var units []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		units = append(units, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return units, nil
}

// union merges unit lists without double counting, returning a sorted
// slice so reports are byte-stable across member completion order.
func union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, u := range list {
			seen[u] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
