// Package rules decides which workspace a newly observed window belongs
// to. Rules come from configuration and are evaluated in declaration
// order; the first matching predicate wins. A window matching the skip
// list is never tiled at all, regardless of workspace rules.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidalwm/tidal/internal/backend"
)

// Rule is one ordered workspace-assignment rule. Predicates are ANDed
// within a rule; an empty predicate always matches, so a rule with only
// a Workspace acts as a catch-all.
type Rule struct {
	// AppName matches as a case-insensitive substring of the app name.
	AppName string
	// BundleID matches the bundle/app identifier exactly.
	BundleID string
	// titlePattern matches the window title as a regular expression.
	titlePattern *regexp.Regexp
	// Workspace is the target workspace name.
	Workspace string
}

// Skip identifies applications that must never be tiled.
type Skip struct {
	AppName  string
	BundleID string
}

// Matcher holds the compiled rule set.
type Matcher struct {
	rules []Rule
	skips []Skip
}

// RuleSpec is the uncompiled form of a rule as it appears in config.
type RuleSpec struct {
	AppName   string
	BundleID  string
	TitleExpr string
	Workspace string
}

// NewMatcher compiles rule specs in declaration order. A rule with an
// invalid title regexp is rejected with an error naming its position so
// the config loader can report it.
func NewMatcher(specs []RuleSpec, skips []Skip) (*Matcher, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		if spec.Workspace == "" {
			return nil, fmt.Errorf("rule %d: missing workspace", i+1)
		}
		rule := Rule{
			AppName:   spec.AppName,
			BundleID:  spec.BundleID,
			Workspace: spec.Workspace,
		}
		if spec.TitleExpr != "" {
			re, err := regexp.Compile(spec.TitleExpr)
			if err != nil {
				return nil, fmt.Errorf("rule %d: bad title pattern: %w", i+1, err)
			}
			rule.titlePattern = re
		}
		rules = append(rules, rule)
	}
	return &Matcher{rules: rules, skips: skips}, nil
}

// ShouldSkip reports whether the window matches the skip list. This is
// checked before workspace matching: a skipped window is left floating
// and untracked no matter what the rules say.
func (m *Matcher) ShouldSkip(info backend.WindowInfo) bool {
	for _, s := range m.skips {
		if s.BundleID != "" && s.BundleID == info.BundleID {
			return true
		}
		if s.AppName != "" && containsFold(info.AppName, s.AppName) {
			return true
		}
	}
	return false
}

// FindWorkspace returns the workspace name for a new window: the first
// rule whose predicates all match, or fallback (the currently focused
// workspace) when nothing matches.
func (m *Matcher) FindWorkspace(info backend.WindowInfo, fallback string) string {
	for _, r := range m.rules {
		if r.matches(info) {
			return r.Workspace
		}
	}
	return fallback
}

func (r Rule) matches(info backend.WindowInfo) bool {
	if r.AppName != "" && !containsFold(info.AppName, r.AppName) {
		return false
	}
	if r.BundleID != "" && r.BundleID != info.BundleID {
		return false
	}
	if r.titlePattern != nil && !r.titlePattern.MatchString(info.Title) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
