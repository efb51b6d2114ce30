// Package postprocess strips common LLM artifacts from raw completion text
// before the candidate is scored: chain-of-thought blocks from
// reasoning-style models, prompt-echo prefixes, and wrapping quotes.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts and returns the trimmed translation text.
func Clean(text string) string {
	text = stripReasoningBlocks(text)
	text = stripEchoPrefix(text)
	text = stripWrappingQuotes(text)
	return strings.TrimSpace(text)
}

// reasoningBlockRe matches complete <think>…</think> style blocks. Each tag
// variant is listed explicitly because Go's RE2 engine has no
// backreferences.
var reasoningBlockRe = regexp.MustCompile(
	`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`,
)

// openReasoningRe matches an opened reasoning tag with no closing tag (the
// model was cut off mid-thought). Everything from the tag onward is junk.
var openReasoningRe = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>).*$`)

func stripReasoningBlocks(text string) string {
	text = reasoningBlockRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoPrefixRe matches introductory phrases some models prepend even when
// instructed not to, e.g. "Here is the translation:". Anchored to the start
// and requiring a colon to avoid eating legitimate content.
var echoPrefixRe = regexp.MustCompile(
	`(?i)^(?:(?:certainly|sure|of course)[,.]?\s*)?(?:here(?:'s| is)(?: the)? )?(?:translated text|translation)\s*:`,
)

func stripEchoPrefix(text string) string {
	if loc := echoPrefixRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// quotePairs are the quote characters stripped when they wrap the entire
// text.
var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
}

func stripWrappingQuotes(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	for _, pair := range quotePairs {
		if runes[0] == pair[0] && runes[len(runes)-1] == pair[1] {
			return strings.TrimSpace(string(runes[1 : len(runes)-1]))
		}
	}
	return text
}
