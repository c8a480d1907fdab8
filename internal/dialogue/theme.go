package dialogue

import (
	"regexp"
	"strings"
)

// aspiration is one trigger rule of the central-theme heuristic.
type aspiration struct {
	pattern *regexp.Regexp
	suffix  string
}

// captureClass takes the 5 to 20 characters right before a trigger.
const captureClass = `(.{5,20})`

// aspirations are ordered by priority.
var aspirations = []aspiration{
	{regexp.MustCompile(captureClass + `になりたい`), "になること"},
	{regexp.MustCompile(captureClass + `を目指`), "を目指すこと"},
	{regexp.MustCompile(captureClass + `したい`), "すること"},
}

const fallbackThemeRunes = 30

// ExtractCentralTheme derives a short central-theme phrase from the user's
// turns in history. This is a best-effort heuristic, not language
// understanding: each user turn is matched against the aspiration triggers in
// priority order, and a match in a later turn replaces an earlier one. When
// nothing matches, the first 30 runes of message are used.
func ExtractCentralTheme(message string, history []Turn) string {
	theme := ""
	for _, t := range history {
		if t.Role != RoleUser {
			continue
		}
		if found, ok := matchAspiration(t.Content); ok {
			theme = found
		}
	}
	if theme != "" {
		return theme
	}

	fallback := []rune(strings.TrimSpace(message))
	if len(fallback) > fallbackThemeRunes {
		fallback = fallback[:fallbackThemeRunes]
	}
	return strings.TrimSpace(string(fallback))
}

func matchAspiration(text string) (string, bool) {
	for _, a := range aspirations {
		matches := a.pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1]
		return strings.TrimSpace(last[1]) + a.suffix, true
	}
	return "", false
}
