package rules

import (
	"testing"

	"github.com/tidalwm/tidal/internal/backend"
)

func TestFirstMatchWins(t *testing.T) {
	m, err := NewMatcher([]RuleSpec{
		{AppName: "firefox", Workspace: "web"},
		{AppName: "fire", Workspace: "hot"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := m.FindWorkspace(backend.WindowInfo{AppName: "Firefox"}, "fallback")
	if got != "web" {
		t.Errorf("expected first rule to win, got %q", got)
	}
}

func TestPredicates(t *testing.T) {
	m, err := NewMatcher([]RuleSpec{
		{BundleID: "org.mozilla.firefox", Workspace: "web"},
		{TitleExpr: `\[scratch\]`, Workspace: "scratch"},
		{AppName: "term", TitleExpr: `ssh`, Workspace: "remote"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		info backend.WindowInfo
		want string
	}{
		{"bundle exact", backend.WindowInfo{BundleID: "org.mozilla.firefox"}, "web"},
		{"bundle prefix does not match", backend.WindowInfo{BundleID: "org.mozilla.firefox.beta"}, "fallback"},
		{"title regex", backend.WindowInfo{Title: "notes [scratch]"}, "scratch"},
		{"anded predicates", backend.WindowInfo{AppName: "xterm", Title: "ssh host"}, "remote"},
		{"anded predicates partial", backend.WindowInfo{AppName: "xterm", Title: "local"}, "fallback"},
		{"no match falls back", backend.WindowInfo{AppName: "gimp"}, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.FindWorkspace(tt.info, "fallback"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSkipPrecedesWorkspaceRules(t *testing.T) {
	m, err := NewMatcher(
		[]RuleSpec{{AppName: "picker", Workspace: "tools"}},
		[]Skip{{AppName: "picker"}, {BundleID: "com.example.osd"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !m.ShouldSkip(backend.WindowInfo{AppName: "Color Picker"}) {
		t.Error("expected app-name skip to match")
	}
	if !m.ShouldSkip(backend.WindowInfo{BundleID: "com.example.osd"}) {
		t.Error("expected bundle-id skip to match")
	}
	if m.ShouldSkip(backend.WindowInfo{AppName: "editor"}) {
		t.Error("unexpected skip for unlisted app")
	}
}

func TestCatchAllRule(t *testing.T) {
	m, err := NewMatcher([]RuleSpec{{Workspace: "everything"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.FindWorkspace(backend.WindowInfo{AppName: "anything"}, "fallback"); got != "everything" {
		t.Errorf("empty predicate must match any window, got %q", got)
	}
}

func TestInvalidRules(t *testing.T) {
	if _, err := NewMatcher([]RuleSpec{{AppName: "x"}}, nil); err == nil {
		t.Error("expected error for rule without workspace")
	}
	if _, err := NewMatcher([]RuleSpec{{TitleExpr: "([", Workspace: "w"}}, nil); err == nil {
		t.Error("expected error for invalid title regexp")
	}
}
