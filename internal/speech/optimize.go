package speech

import (
	"regexp"
	"strings"
)

var (
	directivePattern = regexp.MustCompile(`\[[A-Z_]+:[^\]]*\]`)
	markdownPattern  = regexp.MustCompile("[*_~`#]+")
	bulletPattern    = regexp.MustCompile(`(?m)^\s*[-•]\s+`)
	urlPattern       = regexp.MustCompile(`https?://\S+`)
	spacePattern     = regexp.MustCompile(`[ \t]+`)
	newlinePattern   = regexp.MustCompile(`\n{2,}`)
)

// OptimizeForSpeech strips formatting that sounds wrong when read aloud:
// markdown markers, bullets, emoji, URLs and inline control directives.
// Paragraph breaks become sentence pauses.
func OptimizeForSpeech(text string) string {
	s := directivePattern.ReplaceAllString(text, "")
	s = urlPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "")
	s = markdownPattern.ReplaceAllString(s, "")
	s = stripEmoji(s)
	s = newlinePattern.ReplaceAllString(s, ". ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripEmoji drops symbols outside the ranges TTS handles well, keeping
// letters, digits, punctuation and CJK text.
func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF: // pictographs
		case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		case r == 0x200D: // zero-width joiner
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
