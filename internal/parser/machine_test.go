package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineStep(t *testing.T) {
	tests := []struct {
		name      string
		from      machine
		line      string
		wantState state
		wantEntry *Entry
		wantErr   bool
		check     func(t *testing.T, m *machine)
	}{
		{
			name:      "empty line while idle",
			from:      machine{state: stateIdle},
			line:      "   ",
			wantState: stateIdle,
		},
		{
			name:      "empty line while awaiting entry",
			from:      machine{state: stateAwaitingEntry, context: "c", hasContext: true},
			line:      "",
			wantState: stateAwaitingEntry,
		},
		{
			name:      "begin multi-line value",
			from:      machine{state: stateIdle},
			line:      `"greeting" = "Hello`,
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "greeting", m.identifier)
				assert.Equal(t, "Hello", m.value)
			},
		},
		{
			name:      "begin multi-line value with empty first fragment",
			from:      machine{state: stateIdle},
			line:      `"greeting" = "`,
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "", m.value)
				assert.False(t, m.valueStarted)
			},
		},
		{
			name:    "multi-line value without equals sign",
			from:    machine{state: stateIdle},
			line:    `"greeting" "Hello`,
			wantErr: true,
		},
		{
			name:      "continue multi-line value keeps indentation",
			from:      machine{state: stateMultilineString, identifier: "k", value: "one", valueStarted: true},
			line:      "  two",
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "one\n  two", m.value)
			},
		},
		{
			name:      "first continuation is left-trimmed",
			from:      machine{state: stateMultilineString, identifier: "k"},
			line:      "  two",
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "two", m.value)
			},
		},
		{
			name:      "blank first continuation becomes a leading newline",
			from:      machine{state: stateMultilineString, identifier: "k"},
			line:      "",
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "", m.value)
				assert.True(t, m.valueStarted)
			},
		},
		{
			name:      "continuation after blank first line keeps indentation",
			from:      machine{state: stateMultilineString, identifier: "k", valueStarted: true},
			line:      "  Hello",
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "\n  Hello", m.value)
			},
		},
		{
			name:      "non-breaking space at end of continuation is content",
			from:      machine{state: stateMultilineString, identifier: "k", value: "one", valueStarted: true},
			line:      "two\u00a0",
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "one\ntwo\u00a0", m.value)
			},
		},
		{
			name:      "slashes inside multi-line value are content",
			from:      machine{state: stateMultilineString, identifier: "k", value: "see", valueStarted: true},
			line:      "http://example.com // not a comment",
			wantState: stateMultilineString,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "see\nhttp://example.com // not a comment", m.value)
			},
		},
		{
			name:      "end multi-line value",
			from:      machine{state: stateMultilineString, identifier: "k", value: "one", valueStarted: true},
			line:      `two";`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: "k", Value: "one\ntwo"},
		},
		{
			name:      "end multi-line value keeps pending context",
			from:      machine{state: stateMultilineString, identifier: "k", value: "one", valueStarted: true, context: "doc", hasContext: true},
			line:      `two";`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: "k", Value: "one\ntwo", Context: strPtr("doc")},
		},
		{
			name:    "end multi-line value without closing quote",
			from:    machine{state: stateMultilineString, identifier: "k", value: "one", valueStarted: true},
			line:    `two;`,
			wantErr: true,
		},
		{
			name:      "begin multi-line comment",
			from:      machine{state: stateIdle},
			line:      "  /* first line",
			wantState: stateMultilineComment,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "first line", m.context)
				assert.True(t, m.hasContext)
			},
		},
		{
			name:      "continue multi-line comment",
			from:      machine{state: stateMultilineComment, context: "first", contextStarted: true, hasContext: true},
			line:      " second",
			wantState: stateMultilineComment,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "first\n second", m.context)
			},
		},
		{
			name:      "blank line after comment opener becomes a leading newline",
			from:      machine{state: stateMultilineComment, hasContext: true},
			line:      "",
			wantState: stateMultilineComment,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "", m.context)
				assert.True(t, m.contextStarted)
			},
		},
		{
			name:      "end multi-line comment with text",
			from:      machine{state: stateMultilineComment, context: "first", contextStarted: true, hasContext: true},
			line:      " last */",
			wantState: stateAwaitingEntry,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "first\nlast", m.context)
			},
		},
		{
			name:      "end multi-line comment bare",
			from:      machine{state: stateMultilineComment, context: "first", contextStarted: true, hasContext: true},
			line:      "*/",
			wantState: stateAwaitingEntry,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "first", m.context)
			},
		},
		{
			name:      "single-line comment",
			from:      machine{state: stateIdle},
			line:      "/*   Button title   */",
			wantState: stateAwaitingEntry,
			check: func(t *testing.T, m *machine) {
				assert.Equal(t, "Button title", m.context)
			},
		},
		{
			name:      "entry after comment",
			from:      machine{state: stateAwaitingEntry, context: "Button title", hasContext: true},
			line:      `"OK" = "D'accord";`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: "OK", Value: "D'accord", Context: strPtr("Button title")},
		},
		{
			name:      "entry after empty comment",
			from:      machine{state: stateAwaitingEntry, hasContext: true},
			line:      `"OK" = "D'accord";`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: "OK", Value: "D'accord", Context: strPtr("")},
		},
		{
			name:      "entry without comment",
			from:      machine{state: stateIdle},
			line:      `"OK"="D'accord"; // trailing`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: "OK", Value: "D'accord"},
		},
		{
			name:      "escaped quotes are preserved",
			from:      machine{state: stateIdle},
			line:      `"say \"hi\"" = "dis \"salut\"";`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: `say \"hi\"`, Value: `dis \"salut\"`},
		},
		{
			name:      "empty value",
			from:      machine{state: stateIdle},
			line:      `"blank" = "";`,
			wantState: stateIdle,
			wantEntry: &Entry{Identifier: "blank", Value: ""},
		},
		{
			name:    "comment while awaiting entry",
			from:    machine{state: stateAwaitingEntry, context: "a", hasContext: true},
			line:    "/* b */",
			wantErr: true,
		},
		{
			name:    "unclassifiable line",
			from:    machine{state: stateIdle},
			line:    "garbage",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.from
			entry, err := m.step(7, tt.line)
			if tt.wantErr {
				require.Error(t, err)
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, 7, perr.Line)
				assert.Equal(t, tt.line, perr.Text)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, m.state)
			assert.Equal(t, tt.wantEntry, entry)
			if tt.check != nil {
				tt.check(t, &m)
			}
		})
	}
}

func TestMachineFinish(t *testing.T) {
	assert.NoError(t, (&machine{state: stateIdle}).finish())

	for _, s := range []state{stateMultilineString, stateMultilineComment, stateAwaitingEntry} {
		m := &machine{state: s, startLine: 3, startText: "start"}
		err := m.finish()
		require.Error(t, err, s.String())

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 3, perr.Line)
		assert.Equal(t, "start", perr.Text)
	}
}

func strPtr(s string) *string { return &s }
