package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTargetSize is used when no positive target size is configured.
	DefaultTargetSize = 1000
	// MinTargetSize is the smallest target size Split will pack to.
	MinTargetSize = 200

	blockSeparator = "\n\n"
)

var (
	lineBreak = regexp.MustCompile(`\r?\n`)

	// A type label opening the line: "单选题：", "Multiple choice question.", ...
	labelledStart = regexp.MustCompile(
		`(?i)^(单选题?|多选题?|判断题?|填空题?|简答题?|single[ -]choice|multiple[ -]choice|true ?/ ?false|fill[ -]in[ -]the[ -]blanks?|short[ -]answer)(\s*(question|题))?[：:．.、\s]`)

	// A numbered line mentioning a type somewhere: "3. (多选) ...", "12) Single choice: ...".
	numberedStart = regexp.MustCompile(`^\d+[．.、)\s]`)
	typeKeyword   = regexp.MustCompile(
		`(?i)(单选|多选|判断|填空|简答|single[ -]choice|multiple[ -]choice|true ?/ ?false|fill[ -]in[ -]the[ -]blank|short[ -]answer)`)
)

// ClampTargetSize applies the default and the floor to a configured size.
func ClampTargetSize(n int) int {
	if n <= 0 {
		return DefaultTargetSize
	}
	if n < MinTargetSize {
		return MinTargetSize
	}
	return n
}

// IsQuestionStart reports whether line looks like the first line of a question.
func IsQuestionStart(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if labelledStart.MatchString(line + " ") {
		return true
	}
	return numberedStart.MatchString(line) && typeKeyword.MatchString(line)
}

// Split divides content into chunks of at most targetSize runes, except that
// a single block larger than targetSize is emitted on its own. Every
// non-blank line of content appears in exactly one chunk, in order. Blank
// content yields no chunks.
func Split(content string, targetSize int) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	size := ClampTargetSize(targetSize)
	lines := lineBreak.Split(content, -1)

	blocks := questionBlocks(lines)
	if len(blocks) <= 1 && utf8.RuneCountInString(content) > size {
		blocks = paragraphBlocks(lines)
	}

	chunks := pack(blocks, size)
	if len(chunks) == 0 {
		return []string{content}
	}
	return chunks
}

func questionBlocks(lines []string) []string {
	var blocks []string
	var current []string
	for _, line := range lines {
		if IsQuestionStart(line) && hasText(current) {
			blocks = appendBlock(blocks, current)
			current = nil
		}
		current = append(current, line)
	}
	return appendBlock(blocks, current)
}

func paragraphBlocks(lines []string) []string {
	var blocks []string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if hasText(current) {
				blocks = appendBlock(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	return appendBlock(blocks, current)
}

func pack(blocks []string, size int) []string {
	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, blockSeparator))
			current = nil
			currentSize = 0
		}
	}

	for _, block := range blocks {
		blockSize := utf8.RuneCountInString(block)
		if blockSize > size {
			flush()
			chunks = append(chunks, block)
			continue
		}

		added := blockSize
		if len(current) > 0 {
			added += len(blockSeparator)
		}
		if currentSize+added > size {
			flush()
			added = blockSize
		}
		current = append(current, block)
		currentSize += added
	}
	flush()
	return chunks
}

// appendBlock joins lines into a block, trimming surrounding blank lines.
// Blocks with no text are dropped.
func appendBlock(blocks []string, lines []string) []string {
	block := strings.Trim(strings.Join(lines, "\n"), "\n\r\t ")
	if block == "" {
		return blocks
	}
	return append(blocks, block)
}

func hasText(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
