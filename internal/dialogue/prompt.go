package dialogue

import (
	"fmt"
	"strings"
)

// InstructionDelimiter closes the instruction block; generated text follows it.
const InstructionDelimiter = "[/INST]"

// BuildPrompt renders the phase instructions, the most recent ContextWindow
// turns of history (oldest first) and the instruction wrapper around
// userMessage into a single completion request.
func BuildPrompt(instructions string, history []Turn, userMessage string) string {
	var b strings.Builder
	b.WriteString(instructions)

	recent := recentTurns(history)
	if len(recent) > 0 {
		b.WriteString("\n\n# これまでの会話:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "%s: %s\n", t.Role.Label(), t.Content)
		}
	}

	b.WriteString("\n\n[INST]\n")
	b.WriteString("ユーザーの最新の入力は以下の通りです。\n")
	b.WriteString("「" + userMessage + "」\n\n")
	b.WriteString("上記のルールに従って、コーチとして応答してください。\n")
	b.WriteString(InstructionDelimiter)
	return b.String()
}

// RenderInstructions substitutes {central_theme} and, when themes is non-nil,
// {themes_list} in an instruction template.
func RenderInstructions(template, centralTheme string, themes []string) string {
	out := strings.ReplaceAll(template, placeholderCentralTheme, centralTheme)
	if themes != nil {
		out = strings.ReplaceAll(out, placeholderThemesList, FormatThemes(themes))
	}
	return out
}

// FormatThemes renders themes as "1. X\n2. Y\n...".
func FormatThemes(themes []string) string {
	lines := make([]string, len(themes))
	for i, t := range themes {
		lines[i] = fmt.Sprintf("%d. %s", i+1, t)
	}
	return strings.Join(lines, "\n")
}

func recentTurns(history []Turn) []Turn {
	if len(history) <= ContextWindow {
		return history
	}
	return history[len(history)-ContextWindow:]
}
