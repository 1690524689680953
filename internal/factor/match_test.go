// SPDX-License-Identifier: MPL-2.0

package factor

import "testing"

func TestGuardMatches(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		fs     Set
		want   bool
	}{
		{
			name:   "single token present",
			prefix: "py36",
			fs:     FromName("py36-func"),
			want:   true,
		},
		{
			name:   "single token absent",
			prefix: "py38",
			fs:     FromName("py36-func"),
			want:   false,
		},
		{
			name:   "OR across alternatives, first alone matches",
			prefix: "shardA,shardB-v37",
			fs:     NewSet("shardA", "v39"),
			want:   true,
		},
		{
			name:   "no alternative fully contained",
			prefix: "shardA,shardB-v37",
			fs:     NewSet("shardC", "v37"),
			want:   false,
		},
		{
			name:   "AND within an alternative",
			prefix: "shardB-v37",
			fs:     NewSet("shardB", "v37", "extra"),
			want:   true,
		},
		{
			name:   "AND within an alternative, partial",
			prefix: "shardB-v37",
			fs:     NewSet("shardB", "v38"),
			want:   false,
		},
		{
			name:   "colon-joined conjunction",
			prefix: "py36:func",
			fs:     FromName("py36-func"),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseGuard(tt.prefix).Matches(tt.fs); got != tt.want {
				t.Errorf("ParseGuard(%q).Matches(%v) = %v, want %v", tt.prefix, tt.fs, got, tt.want)
			}
		})
	}
}

func TestCutGuard(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantPrefix  string
		wantContent string
		wantGuarded bool
	}{
		{
			name:        "guarded command",
			line:        "py36: run-tests --legacy",
			wantPrefix:  "py36",
			wantContent: "run-tests --legacy",
			wantGuarded: true,
		},
		{
			name:        "guarded with alternatives",
			line:        "py36,py37-func: run-tests",
			wantPrefix:  "py36,py37-func",
			wantContent: "run-tests",
			wantGuarded: true,
		},
		{
			name:        "colon conjunction picks longest valid prefix",
			line:        "a:b: cmd",
			wantPrefix:  "a:b",
			wantContent: "cmd",
			wantGuarded: true,
		},
		{
			name:        "plain command",
			line:        "mkdir -p out",
			wantGuarded: false,
		},
		{
			name:        "URL is not a guard",
			line:        "pip install https://example.com/pkg.tar.gz",
			wantGuarded: false,
		},
		{
			name:        "env assignment is not a guard",
			line:        "PYTHONPATH = a:b",
			wantGuarded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, content, guarded := CutGuard(tt.line)
			if guarded != tt.wantGuarded {
				t.Fatalf("CutGuard(%q) guarded = %v, want %v", tt.line, guarded, tt.wantGuarded)
			}
			if !guarded {
				return
			}
			if prefix != tt.wantPrefix || content != tt.wantContent {
				t.Errorf("CutGuard(%q) = %q, %q; want %q, %q",
					tt.line, prefix, content, tt.wantPrefix, tt.wantContent)
			}
		})
	}
}

func TestFilterLines(t *testing.T) {
	raw := "\nmkdir -p out\npy36: legacy-step\npy37,func: modern-step\nrun-tests"

	got := FilterLines(raw, FromName("py36"))
	want := []string{"mkdir -p out", "legacy-step", "run-tests"}
	if len(got) != len(want) {
		t.Fatalf("FilterLines() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FilterLines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Declaration order is preserved for a set matching several guards.
	got = FilterLines(raw, NewSet("py37", "func"))
	want = []string{"mkdir -p out", "modern-step", "run-tests"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FilterLines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
