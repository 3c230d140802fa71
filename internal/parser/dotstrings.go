package parser

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// maxLineSize bounds a single line of a .strings file.
const maxLineSize = 1024 * 1024

// idValuePattern matches `"<id>" = "<value>";` with \" escapes kept literally.
var idValuePattern = regexp.MustCompile(`^\s*"((?:[^"\\]|\\.)*)"\s*=\s*"((?:[^"\\]|\\.)*)";$`)

// DotStringsParser parses Apple .strings localization files.
type DotStringsParser struct{}

func NewDotStringsParser() *DotStringsParser { return &DotStringsParser{} }

func (p *DotStringsParser) CanParse(ext string) bool {
	return ext == ".strings"
}

func (p *DotStringsParser) Parse(filePath string) (*ParseResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read strings file: %w", err)
	}

	entries, enc, err := parse(data, filePath)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		FilePath: filePath,
		FileType: FormatDotStrings,
		Encoding: enc,
		Entries:  entries,
	}, nil
}

// ParseFile reads and parses the .strings file at path.
func ParseFile(path string) ([]Entry, error) {
	result, err := NewDotStringsParser().Parse(path)
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// Parse parses raw .strings content. source is recorded on every entry and in
// errors; it is not opened.
func Parse(data []byte, source string) ([]Entry, error) {
	entries, _, err := parse(data, source)
	return entries, err
}

func parse(data []byte, source string) ([]Entry, Encoding, error) {
	text, enc, err := Decode(data)
	if err != nil {
		var encErr *EncodingError
		if errors.As(err, &encErr) {
			encErr.Path = source
		}
		return nil, "", err
	}

	entries, err := classify(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = source
		}
		return nil, "", err
	}

	return finalize(entries, source), enc, nil
}

// classify runs every line of text through the state machine.
func classify(text string) ([]Entry, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	m := &machine{}
	var results []Entry

	lineNum := 0
	for scanner.Scan() {
		entry, err := m.step(lineNum, scanner.Text())
		if err != nil {
			return nil, err
		}
		if entry != nil {
			results = append(results, *entry)
		}
		lineNum++
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: lineNum, Reason: "scan line: " + err.Error()}
	}

	if err := m.finish(); err != nil {
		return nil, err
	}
	return results, nil
}

// finalize stamps the format tag and origin on every entry.
func finalize(entries []Entry, source string) []Entry {
	for i := range entries {
		entries[i].Type = FormatDotStrings
		entries[i].Source = source
	}
	return entries
}

// state is the position of the machine between two lines.
type state int

const (
	stateIdle state = iota
	stateMultilineString
	stateMultilineComment
	stateAwaitingEntry
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateMultilineString:
		return "multi-line value"
	case stateMultilineComment:
		return "multi-line comment"
	case stateAwaitingEntry:
		return "awaiting entry"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// machine holds the scratch state of one parse. It is never shared.
type machine struct {
	state state

	identifier string
	value      string
	context    string
	hasContext bool

	// A fragment may be empty, so presence is tracked apart from the text.
	valueStarted   bool
	contextStarted bool

	// Where the current construct began, for unterminated-input errors.
	startLine int
	startText string
}

// step applies the first matching transition rule to one raw line and returns
// the entry it completed, if any.
func (m *machine) step(lineNum int, raw string) (*Entry, error) {
	line := rtrim(raw)
	if m.state != stateMultilineString {
		line = stripComment(line)
	}

	fail := func(reason string) error {
		return &ParseError{Line: lineNum, Text: raw, Reason: reason}
	}

	switch {
	case line == "" && m.state != stateMultilineString && m.state != stateMultilineComment:
		return nil, nil

	case m.state != stateMultilineString && strings.HasPrefix(line, `"`) && !strings.HasSuffix(line, ";"):
		id, fragment, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fail("multi-line value has no '='")
		}
		id = strings.TrimSuffix(strings.TrimPrefix(trim(id), `"`), `"`)
		if id == "" {
			return nil, fail("empty identifier")
		}
		m.identifier = id
		if fragment = strings.TrimPrefix(trim(fragment), `"`); fragment != "" {
			m.value, m.valueStarted = fragment, true
		}
		m.mark(stateMultilineString, lineNum, raw)
		return nil, nil

	case m.state == stateMultilineString && !strings.HasSuffix(line, ";"):
		appendFragment(&m.value, &m.valueStarted, line)
		return nil, nil

	case m.state == stateMultilineString:
		tail, ok := strings.CutSuffix(line, `";`)
		if !ok {
			return nil, fail(`multi-line value must end with '";'`)
		}
		appendFragment(&m.value, &m.valueStarted, tail)
		return m.emit(m.identifier, m.value), nil

	case m.state != stateAwaitingEntry && strings.HasPrefix(ltrim(line), "/*") && !strings.HasSuffix(line, "*/"):
		if head := trim(strings.TrimPrefix(ltrim(line), "/*")); head != "" {
			m.context, m.contextStarted = head, true
		}
		m.hasContext = true
		m.mark(stateMultilineComment, lineNum, raw)
		return nil, nil

	case m.state == stateMultilineComment && !strings.HasSuffix(line, "*/"):
		appendFragment(&m.context, &m.contextStarted, line)
		return nil, nil

	case m.state == stateMultilineComment:
		if tail := trim(strings.TrimSuffix(line, "*/")); tail != "" {
			appendFragment(&m.context, &m.contextStarted, tail)
		}
		m.mark(stateAwaitingEntry, lineNum, raw)
		return nil, nil

	case m.state != stateAwaitingEntry && strings.HasPrefix(line, "/*") && strings.HasSuffix(line, "*/"):
		inner := ""
		if len(line) >= 4 {
			inner = line[2 : len(line)-2]
		}
		m.context = trim(inner)
		m.hasContext = true
		m.mark(stateAwaitingEntry, lineNum, raw)
		return nil, nil

	case strings.HasSuffix(line, ";"):
		// Rules for AwaitingEntry and Idle differ only in whether a context is
		// pending, which emit already accounts for.
		id, value, err := splitIDValue(line)
		if err != nil {
			return nil, fail(err.Error())
		}
		return m.emit(id, value), nil
	}

	return nil, fail(fmt.Sprintf("unexpected line while %s", m.state))
}

// finish rejects input that ends inside a construct.
func (m *machine) finish() error {
	if m.state == stateIdle {
		return nil
	}
	reason := "unterminated " + m.state.String()
	if m.state == stateAwaitingEntry {
		reason = "comment is not followed by an entry"
	}
	return &ParseError{Line: m.startLine, Text: m.startText, Reason: reason}
}

func (m *machine) mark(next state, lineNum int, raw string) {
	if next != m.state {
		m.startLine = lineNum
		m.startText = raw
	}
	m.state = next
}

// emit builds the finished entry and resets the machine to Idle.
func (m *machine) emit(id, value string) *Entry {
	e := &Entry{Identifier: id, Value: value}
	if m.hasContext {
		ctx := m.context
		e.Context = &ctx
	}
	*m = machine{}
	return e
}

// appendFragment joins a continuation line onto acc. The first fragment is
// left-trimmed; later ones keep their indentation. An empty first fragment
// still counts, so a blank line after the opener becomes a leading newline.
func appendFragment(acc *string, started *bool, line string) {
	if !*started {
		*acc, *started = ltrim(line), true
		return
	}
	*acc += "\n" + line
}

func splitIDValue(line string) (string, string, error) {
	m := idValuePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", errors.New(`line does not match "<id>" = "<value>";`)
	}
	if m[1] == "" {
		return "", "", errors.New("empty identifier")
	}
	return m[1], m[2], nil
}
