package dialogue

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FallbackResponse replaces generations that are empty or too short to use.
const FallbackResponse = "すみません、うまく応答を生成できませんでした。別の言い方で教えていただけますか?"

// minResponseRunes is the length floor below which FallbackResponse is used.
const minResponseRunes = 10

var leadingSeparator = regexp.MustCompile(`^[\s:：]*[:：]\s*`)

// ExtractResponse isolates the model's continuation after the last
// instruction delimiter and cleans it. The result is always trimmed and
// non-empty.
func ExtractResponse(raw string) string {
	text := afterDelimiter(raw)
	text = strings.TrimSpace(leadingSeparator.ReplaceAllString(text, ""))

	if utf8.RuneCountInString(text) < minResponseRunes {
		return FallbackResponse
	}
	return text
}

// afterDelimiter returns the trimmed text following the last
// InstructionDelimiter, or the whole input when there is none.
func afterDelimiter(raw string) string {
	if i := strings.LastIndex(raw, InstructionDelimiter); i != -1 {
		raw = raw[i+len(InstructionDelimiter):]
	}
	return strings.TrimSpace(raw)
}
