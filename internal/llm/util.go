package llm

import "strings"

const fence = "```"

// StripCodeFence returns the body of a markdown code block that opens the text.
// The opening fence may carry a language tag (```json). Anything after the closing
// fence is dropped. ok is false when text does not start with a complete fenced block,
// in which case text is returned trimmed but otherwise untouched.
func StripCodeFence(text string) (body string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text, false
	}

	rest := text[len(fence):]
	// Skip a language identifier on the opening line
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(rest[:idx])
		if !strings.ContainsAny(firstLine, " {[") {
			rest = rest[idx+1:]
		}
	}

	end := strings.Index(rest, fence)
	if end < 0 {
		return text, false
	}
	return strings.TrimSpace(rest[:end]), true
}
