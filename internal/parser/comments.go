package parser

import "strings"

// stripComment removes a trailing // comment and right-trims the result.
// A // belongs to a quoted string when an odd number of unescaped quotes
// follows it on the same line, so `"url" = "http://x";` is left intact.
func stripComment(line string) string {
	total := countQuotes(line)
	seen := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++ // skip escaped char
		case '"':
			seen++
		case '/':
			if i+1 < len(line) && line[i+1] == '/' && (total-seen)%2 == 0 {
				return rtrim(line[:i])
			}
		}
	}
	return rtrim(line)
}

// countQuotes counts double quotes not preceded by a backslash escape.
func countQuotes(line string) int {
	n := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			n++
		}
	}
	return n
}

// asciiSpace is the whitespace trimmed from lines and fragments. Non-ASCII
// spaces such as NBSP are content.
const asciiSpace = " \t\r\n\v\f\x00"

func rtrim(s string) string { return strings.TrimRight(s, asciiSpace) }

func ltrim(s string) string { return strings.TrimLeft(s, asciiSpace) }

func trim(s string) string { return strings.Trim(s, asciiSpace) }
