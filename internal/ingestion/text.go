package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`\s+`)
	blankLines  = regexp.MustCompile(`\n\n\n+`)
	bulletMarks = []string{"- ", "* ", "• ", "· "}
)

// CleanText normalizes extracted document text while preserving its structure:
// line endings become LF, runs of spaces collapse, bullets and indentation survive,
// and blank lines are capped at one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmed)

	if isBulletLine(trimmed) {
		// keep the bullet marker, normalize spacing after it
		marker, rest := splitBullet(trimmed)
		return strings.Repeat(" ", indent) + marker + innerSpace.ReplaceAllString(strings.TrimSpace(rest), " ")
	}

	return strings.Repeat(" ", indent) + innerSpace.ReplaceAllString(trimmed, " ")
}

func isBulletLine(trimmed string) bool {
	for _, mark := range bulletMarks {
		if strings.HasPrefix(trimmed, mark) {
			return true
		}
	}
	return false
}

func splitBullet(trimmed string) (marker, rest string) {
	for _, mark := range bulletMarks {
		if strings.HasPrefix(trimmed, mark) {
			return mark, trimmed[len(mark):]
		}
	}
	return "", trimmed
}
