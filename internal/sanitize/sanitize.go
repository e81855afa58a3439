// Package sanitize prepares chat messages for speech synthesis.
//
// Raw Discord markup reads terribly aloud, so code blocks, URLs, and custom
// emoji are replaced with short spoken placeholders and the result is
// truncated to a configurable rune limit.
package sanitize

import "regexp"

var (
	codeBlockRE = regexp.MustCompile("(?s)```(?:\\w*\\n)?(.*?)```")
	urlRE       = regexp.MustCompile(`https?://\S+`)
	emojiRE     = regexp.MustCompile(`<a?:(\w+):\d+>`)
)

// Message rewrites content for synthesis and truncates it to limit runes.
func Message(content string, limit int) string {
	text := codeBlockRE.ReplaceAllString(content, "code block")
	text = urlRE.ReplaceAllString(text, "URL")
	text = emojiRE.ReplaceAllString(text, "EMOJI")

	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
