// Package textproc cleans raw post text and extracts entities before
// sentiment scoring and location parsing. The raw text stored alongside a
// post is never mutated here, callers work on copies.
package textproc

import (
	"html"
	"regexp"
	"strings"
)

var (
	urlRe      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionRe  = regexp.MustCompile(`@(\w+)`)
	hashtagRe  = regexp.MustCompile(`#(\w+)`)
	cashtagRe  = regexp.MustCompile(`\$(\w+)`)
	rtPrefixRe = regexp.MustCompile(`^RT @\w+: `)
	emojiRe    = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2702}-\x{27B0}\x{24C2}-\x{257F}]`)
)

// Normalize strips URLs, the retweet marker and surplus whitespace and
// unescapes HTML entities. Hashtag and mention tokens survive so they can
// still be extracted afterwards.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(raw)
	text = rtPrefixRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	return collapseWhitespace(text)
}

// ForScoring prepares a copy of the text for the sentiment classifier:
// mentions and emoji are dropped, hashtags and cashtags keep their word
// without the symbol prefix. Punctuation stays, the classifier uses it.
func ForScoring(raw string) string {
	if raw == "" {
		return ""
	}
	text := Normalize(raw)
	text = mentionRe.ReplaceAllString(text, "")
	text = hashtagRe.ReplaceAllString(text, "$1")
	text = cashtagRe.ReplaceAllString(text, "$1")
	text = emojiRe.ReplaceAllString(text, "")
	return collapseWhitespace(text)
}

// Hashtags returns the hashtags in text, lowercased, without the # symbol
// and deduplicated in first-seen order.
func Hashtags(text string) []string {
	return extract(hashtagRe, text, true)
}

// Mentions returns the @-mentioned handles in text without the @ symbol,
// deduplicated in first-seen order.
func Mentions(text string) []string {
	return extract(mentionRe, text, false)
}

func extract(re *regexp.Regexp, text string, lower bool) []string {
	if text == "" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if lower {
			tag = strings.ToLower(tag)
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
