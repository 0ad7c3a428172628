package crawler

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SummaryLimit is the maximum summary length in runes before the ellipsis.
const SummaryLimit = 300

var whitespaceRE = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims the text and collapses runs of whitespace
// (including newlines left behind by stripped markup) into single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// Summarize derives a bounded summary from body text. Text within the limit is
// returned whole; longer text is cut at the last space at or before the limit
// so words are never split, then suffixed with an ellipsis. Korean body text
// frequently has no space inside the first 300 runes; then the cut is a hard
// rune cut. Empty body yields nil.
func Summarize(body string, limit int) *string {
	if body == "" {
		return nil
	}
	runes := []rune(body)
	if len(runes) <= limit {
		return &body
	}

	cut := limit
	for i := limit; i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	s := strings.TrimSpace(string(runes[:cut])) + "..."
	return &s
}

var datetimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})[.-](\d{2})[.-](\d{2})\s*(\d{2}):(\d{2})`),
	regexp.MustCompile(`(\d{4})[.-](\d{2})[.-](\d{2})`),
}

// ParseTimestamp parses a publication time from the source's native date
// formats ("2025-01-27 14:30", "2025.01.27"). Ambiguous or unparseable input
// yields nil rather than an error: a missing date is not fatal to usefulness.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, re := range datetimePatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		nums := make([]int, 0, len(m)-1)
		ok := true
		for _, g := range m[1:] {
			n, err := strconv.Atoi(g)
			if err != nil {
				ok = false
				break
			}
			nums = append(nums, n)
		}
		if !ok {
			continue
		}

		var t time.Time
		if len(nums) >= 5 {
			t = time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], 0, 0, time.Local)
		} else {
			t = time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.Local)
		}
		// time.Date normalizes out-of-range components; reject those.
		if int(t.Month()) != nums[1] || t.Day() != nums[2] {
			continue
		}
		return &t
	}
	return nil
}
