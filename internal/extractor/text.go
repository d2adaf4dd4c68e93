package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest chunk the messages table accepts.
const MaxMessageLength = 1000

type replacement struct {
	re   *regexp.Regexp
	with string
}

var cleanRules = []replacement{
	{regexp.MustCompile(`\s+`), " "},
	{regexp.MustCompile(`\[\s*\]`), ""},
	{regexp.MustCompile(`\(\s*\)`), ""},
	{regexp.MustCompile(`\s+([.,!?])`), "$1"},
	{regexp.MustCompile(`\b(Reply|Comment)\b`), ""},
	{regexp.MustCompile(`Loading\.\.\.`), ""},
	{regexp.MustCompile(`<[^>]*>`), ""},
	{regexp.MustCompile(`(?i)&[a-z]+;`), ""},
	{regexp.MustCompile(`\s{2,}`), " "},
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// CleanText normalises whitespace and strips markup and common blog
// artifacts from scraped text.
func CleanText(text string) string {
	for _, r := range cleanRules {
		text = r.re.ReplaceAllString(text, r.with)
	}
	return strings.TrimSpace(text)
}

// SplitIntoChunks packs whole sentences into chunks of at most maxLength
// characters. A sentence longer than maxLength is broken at word boundaries,
// and a single word longer than maxLength is cut. Trailing text without
// terminal punctuation is kept as a final sentence.
func SplitIntoChunks(text string, maxLength int) []string {
	if maxLength < 1 {
		maxLength = MaxMessageLength
	}

	locs := sentenceRe.FindAllStringIndex(text, -1)
	sentences := make([]string, 0, len(locs)+1)
	end := 0
	for _, loc := range locs {
		sentences = append(sentences, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if rest := text[end:]; strings.TrimSpace(rest) != "" {
		sentences = append(sentences, rest)
	}

	var chunks []string
	var current strings.Builder
	size := 0
	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, c)
		}
		current.Reset()
		size = 0
	}

	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)
		if size+n <= maxLength {
			current.WriteString(sentence)
			size += n
			continue
		}

		flush()
		if n <= maxLength {
			current.WriteString(sentence)
			size = n
			continue
		}

		pieces := splitAtWords(sentence, maxLength)
		if len(pieces) == 0 {
			continue
		}
		chunks = append(chunks, pieces[:len(pieces)-1]...)
		last := pieces[len(pieces)-1]
		current.WriteString(last)
		size = utf8.RuneCountInString(last)
	}
	flush()

	return chunks
}

// splitAtWords breaks s into space-joined runs of words of at most maxLength
// runes each.
func splitAtWords(s string, maxLength int) []string {
	var pieces []string
	var b strings.Builder
	size := 0
	flush := func() {
		if size > 0 {
			pieces = append(pieces, b.String())
		}
		b.Reset()
		size = 0
	}

	for _, word := range strings.Fields(s) {
		runes := []rune(word)
		for len(runes) > maxLength {
			flush()
			pieces = append(pieces, string(runes[:maxLength]))
			runes = runes[maxLength:]
		}
		if len(runes) == 0 {
			continue
		}

		if size > 0 && size+1+len(runes) > maxLength {
			flush()
		}
		if size > 0 {
			b.WriteByte(' ')
			size++
		}
		b.WriteString(string(runes))
		size += len(runes)
	}
	flush()

	return pieces
}

// FilterChunks drops chunks the messages table would reject.
func FilterChunks(chunks []string) []string {
	out := chunks[:0]
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c == "" || utf8.RuneCountInString(c) > MaxMessageLength {
			continue
		}
		out = append(out, c)
	}
	return out
}
