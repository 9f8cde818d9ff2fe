// Package extractor maps free-text user input to a tool parameter map using
// an ordered list of pattern rules. Extraction is a pure function: identical
// input always produces identical output.
package extractor

import (
	"regexp"
	"strings"
)

// Parameter keys produced by Extract.
const (
	KeyContentKey = "contentKey"
	KeyName       = "name"
	KeyStartDate  = "startDate"
	KeyEndDate    = "endDate"
	KeyThreshold  = "threshold"
	KeyCategory   = "category"
)

// Rule 1: content-key patterns, first match wins.
var contentKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:article|item|product|key|id|number|code)\s*#?\s*(\d+)\b`),
	regexp.MustCompile(`#(\d+)\b`),
	// Bare 4-plus-digit number. Digits adjacent to a hyphen are excluded so
	// the year segment of an ISO date is not mistaken for a content key.
	regexp.MustCompile(`(?:^|[^-\d])(\d{4,})(?:[^-\d]|$)`),
}

// Rule 2: name-search patterns, tried only when no content key was found.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`'([^']+)'`),
	regexp.MustCompile(`(?i)\b(?:named|called)\s+([\w-]+)`),
	regexp.MustCompile(`(?i)\bcontaining\s+([\w-]+)`),
	regexp.MustCompile(`(?i)\b(?:search|find|look)(?:ing)?\s+(?:for\s+)?([\w-]+)`),
}

// Candidates equal to a stop word are rejected and the search moves on to
// the next pattern.
var nameStopWords = map[string]struct{}{
	"with": {}, "containing": {}, "named": {}, "called": {}, "by": {},
	"that": {}, "contain": {}, "in": {}, "their": {}, "the": {},
}

// Rules 3-5 fire independently of the content-key/name outcome.
var (
	datePattern      = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	thresholdPattern = regexp.MustCompile(`(?i)\b(?:below|under|less\s+than|threshold(?:\s+of)?)\s+(\d+)\b`)
	categoryPattern  = regexp.MustCompile(`(?i)\bcategory\s*[:=]\s*([\w-]+)`)
)

// Extract applies the numbered rule list to text and returns the extracted
// parameter map. An empty map means no rule matched.
func Extract(text string) map[string]string {
	params := make(map[string]string)
	if strings.TrimSpace(text) == "" {
		return params
	}

	// 1. Content key. The first matching pattern ends the search.
	contentKeyFound := false
	for _, re := range contentKeyPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			params[KeyContentKey] = m[1]
			contentKeyFound = true
			break
		}
	}

	// 2. Name search, only when no content key was found. Stop-word
	// candidates are rejected and the next pattern is tried.
	if !contentKeyFound {
		for _, re := range namePatterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			candidate := strings.TrimSpace(m[1])
			if candidate == "" {
				continue
			}
			if _, stop := nameStopWords[strings.ToLower(candidate)]; stop {
				continue
			}
			params[KeyName] = candidate
			break
		}
	}

	// 3. Date range: first ISO date is the start, second is the end.
	if dates := datePattern.FindAllStringSubmatch(text, 2); len(dates) >= 2 {
		params[KeyStartDate] = dates[0][1]
		params[KeyEndDate] = dates[1][1]
	}

	// 4. Numeric threshold.
	if m := thresholdPattern.FindStringSubmatch(text); m != nil {
		params[KeyThreshold] = m[1]
	}

	// 5. Category.
	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		params[KeyCategory] = m[1]
	}

	return params
}

// ToArguments converts an extracted parameter map to the argument shape the
// dispatcher accepts.
func ToArguments(params map[string]string) map[string]interface{} {
	args := make(map[string]interface{}, len(params))
	for k, v := range params {
		args[k] = v
	}
	return args
}
