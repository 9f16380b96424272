package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// based on: https://stackoverflow.com/a/48769624, with no trailing period allowed
var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

func ExtractTextURLs(raw string) []string {
	return urlRegex.FindAllString(raw, -1)
}

// user mentions look like <@123> or <@!123>; role mentions like <@&456>
var mentionRegex = regexp.MustCompile(`<@[!&]?(\d+)>`)

// Returns the distinct user/role identifiers mentioned in the message.
func ExtractMentions(raw string) []string {
	var out []string
	for _, m := range mentionRegex.FindAllStringSubmatch(raw, -1) {
		out = append(out, m[1])
	}
	return dedupeStrings(out)
}

// custom emoji tokens look like <:name:123> (or <a:name:123> when animated)
var customEmojiRegex = regexp.MustCompile(`<a?:\w+:\d+>`)

// Counts emoji in the message: custom emoji tokens plus standard unicode
// emoji. Unicode emoji are counted per grapheme cluster, so multi-codepoint
// sequences (skin tones, ZWJ families) count once each.
func CountEmojis(raw string) int {
	count := len(customEmojiRegex.FindAllString(raw, -1))
	stripped := customEmojiRegex.ReplaceAllString(raw, "")

	gr := uniseg.NewGraphemes(stripped)
	for gr.Next() {
		runes := gr.Runes()
		if len(runes) > 0 && isEmojiRune(runes[0]) {
			count++
		}
	}
	return count
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // misc symbols/pictographs, emoticons, transport, supplemental
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x200D: // zero-width joiner
		return true
	}
	return false
}

// NOTE: this function has not been optimized at all!
func ExtractTextTokens(raw string) []string {
	raw = strings.ToLower(raw)
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	}
	return strings.FieldsFunc(raw, f)
}
