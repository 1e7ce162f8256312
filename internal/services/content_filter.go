package services

import (
	"regexp"
	"sync"
	"unicode"
)

var bannedWords = []string{
	"fuck", "fucking", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch",
	"spam", "scam", "scammer", "phishing", "malware",
}

// ContentFilter screens user-entered text (report descriptions, chat
// messages) before it is stored.
type ContentFilter struct {
	bannedWordRegexps []*regexp.Regexp
	mu                sync.RWMutex
}

func NewContentFilter() *ContentFilter {
	f := &ContentFilter{}
	f.compilePatterns()
	return f
}

func (f *ContentFilter) compilePatterns() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bannedWordRegexps = make([]*regexp.Regexp, 0, len(bannedWords))
	for _, word := range bannedWords {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			f.bannedWordRegexps = append(f.bannedWordRegexps, re)
		}
	}
}

// repeatRunLimit is the number of identical consecutive characters that
// counts as spam.
const repeatRunLimit = 6

// hasCharRun reports a case-insensitive run of the same letter or of
// !, ? or . of repeatRunLimit or more.
func hasCharRun(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		r = unicode.ToLower(r)
		if (r < 'a' || r > 'z') && r != '!' && r != '?' && r != '.' {
			prev, run = 0, 0
			continue
		}
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= repeatRunLimit {
			return true
		}
	}
	return false
}

// Check returns false with a reason code when the text violates the
// content rules.
func (f *ContentFilter) Check(text string) (bool, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if text == "" {
		return true, ""
	}
	for _, re := range f.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if hasCharRun(text) {
		return false, "spam_detected"
	}
	return true, ""
}

func (f *ContentFilter) RejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language": "Your text contains inappropriate language.",
		"spam_detected":          "Your text appears to be spam.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your text does not meet the content guidelines."
}
