// Package plan provides plan-quality analysis: vagueness detection in
// requirements and clarifying-question generation for anything too vague
// to act on.
package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// vaguePatterns match statements too imprecise to implement directly.
var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(maybe|perhaps|possibly|might|could|should)\b`),
	regexp.MustCompile(`(?i)\b(some|few|many|several|various)\b`),
	regexp.MustCompile(`(?i)\b(etc|and so on)\b`),
	regexp.MustCompile(`(?i)\b(TBD|TODO|FIXME)\b`),
	regexp.MustCompile(`(?i)\b(approximately|around|about)\b`),
	regexp.MustCompile(`\?\?`),
}

// CheckVagueness returns the vague statements found in text, one entry per
// offending line, prefixed with its 1-based line number.
func CheckVagueness(text string) []string {
	var items []string
	for i, line := range strings.Split(text, "\n") {
		for _, pattern := range vaguePatterns {
			if pattern.MatchString(line) {
				items = append(items, fmt.Sprintf("Line %d: %s", i+1, strings.TrimSpace(line)))
				break
			}
		}
	}
	return items
}

// SuggestClarifications generates a clarifying question for each vague item.
func SuggestClarifications(vagueItems []string) []string {
	questions := make([]string, 0, len(vagueItems))
	for _, item := range vagueItems {
		lower := strings.ToLower(item)
		switch {
		case containsAny(lower, "maybe", "might", "could"):
			questions = append(questions, fmt.Sprintf("Please confirm: %s - Is this required or optional?", item))
		case containsAny(lower, "some", "few", "many", "several"):
			questions = append(questions, fmt.Sprintf("Please specify exact quantity: %s", item))
		case containsAny(lower, "tbd", "todo"):
			questions = append(questions, fmt.Sprintf("Please provide details for: %s", item))
		default:
			questions = append(questions, fmt.Sprintf("Please clarify: %s", item))
		}
	}
	return questions
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
