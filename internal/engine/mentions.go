package engine

import (
	"regexp"
	"strings"
)

// mentionToken matches a whole whitespace-delimited u/<username> token.
// Splitting on whitespace first enforces the word-boundary rule: a token
// glued to other characters is not a mention.
var mentionToken = regexp.MustCompile(`^[Uu]/[A-Za-z0-9_-]+$`)

// ExtractMentions scans body text for u/<username> tokens and returns the
// distinct mentioned usernames, lowercased, in order of first occurrence.
// Names in exclude are omitted. The result is never nil.
func ExtractMentions(body string, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		if name != "" {
			skip[strings.ToLower(name)] = true
		}
	}

	mentions := []string{}
	seen := make(map[string]bool)
	for _, token := range strings.Fields(body) {
		if !mentionToken.MatchString(token) {
			continue
		}
		name := strings.ToLower(token[2:])
		if seen[name] || skip[name] {
			continue
		}
		seen[name] = true
		mentions = append(mentions, name)
	}

	return mentions
}
