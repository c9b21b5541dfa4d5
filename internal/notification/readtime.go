package notification

import (
	"time"
	"unicode"

	"github.com/rivo/uniseg"
)

const (
	readWordsPerMinute = 200
	minDisplayTime     = 2 * time.Second
)

// EstimateReadTime returns how long a notification with the given text should
// stay on screen, assuming a reading speed of 200 words per minute. The result
// never goes below a 2 second floor, so even an empty body gets a visible
// display window.
func EstimateReadTime(text string) time.Duration {
	words := 0
	state := -1
	var seg string
	for len(text) > 0 {
		seg, text, state = uniseg.FirstWordInString(text, state)
		if isWord(seg) {
			words++
		}
	}
	d := time.Duration(words) * time.Minute / readWordsPerMinute
	if d < minDisplayTime {
		d = minDisplayTime
	}
	return d
}

// isWord reports whether a segment counts as a word: whitespace and bare
// punctuation do not.
func isWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
