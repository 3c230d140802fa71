package parser

// FormatDotStrings tags every entry produced from a .strings file.
const FormatDotStrings = "localizable.strings"

// Entry is one localization record parsed from a .strings file.
type Entry struct {
	// Identifier is the key on the left of the '='. Escapes are kept as written.
	Identifier string `json:"identifier" yaml:"identifier"`
	// Value is the localized text. Multi-line values are joined with '\n'.
	Value string `json:"value" yaml:"value"`
	// Context is the engineer comment that immediately preceded the entry, if any.
	Context *string `json:"context,omitempty" yaml:"context,omitempty"`
	// Type is always FormatDotStrings.
	Type string `json:"type" yaml:"type"`
	// Source is the path the entry was read from.
	Source string `json:"source" yaml:"source"`
}

// HasContext reports whether a comment was attached to the entry.
func (e Entry) HasContext() bool { return e.Context != nil }

// ParseResult holds parsing output for a single file.
type ParseResult struct {
	// FilePath is the path handed to Parse.
	FilePath string
	// FileType is the format tag (FormatDotStrings).
	FileType string
	// Encoding is the detected source encoding.
	Encoding Encoding
	// Entries are the parsed records in file order.
	Entries []Entry
}

// Parser is the interface for localization file parsers.
type Parser interface {
	// CanParse returns true if this parser handles the given file extension.
	CanParse(ext string) bool
	// Parse reads and parses a single file.
	Parse(filePath string) (*ParseResult, error)
}
