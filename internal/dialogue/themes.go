package dialogue

import (
	"fmt"
	"regexp"
	"strings"
)

var numberedLine = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)

// ParseThemes reads a numbered list out of a theme-generation response and
// always returns exactly ThemeCount labels. The first ThemeCount numbered
// lines win; missing slots are filled with "要素<n>" placeholders.
func ParseThemes(raw string) []string {
	themes := make([]string, 0, ThemeCount)

	for _, line := range strings.Split(afterDelimiter(raw), "\n") {
		if len(themes) == ThemeCount {
			break
		}
		m := numberedLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		label := stripBrackets(strings.TrimSpace(m[1]))
		if label == "" {
			label = placeholderTheme(len(themes) + 1)
		}
		themes = append(themes, label)
	}

	for len(themes) < ThemeCount {
		themes = append(themes, placeholderTheme(len(themes)+1))
	}
	return themes
}

func placeholderTheme(slot int) string {
	return fmt.Sprintf("要素%d", slot)
}

// stripBrackets removes one enclosing pair of square brackets.
func stripBrackets(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
