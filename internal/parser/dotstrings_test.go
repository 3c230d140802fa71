package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dotstrings/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func ptr(s string) *string { return &s }

func TestParseFile_ExampleLocalizable(t *testing.T) {
	file := "testdata/ExampleLocalizable.strings"

	entries, err := parser.ParseFile(file)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	want := []parser.Entry{
		{Identifier: "Username", Value: "nom d'utilisateur", Context: ptr("No comment provided by engineer.")},
		{Identifier: "Main_Profile", Value: "profil de %1$@"},
		{Identifier: "multiline", Value: "Hello %@,\n\nCheck out %@.\n\nSincerely,\n\n%@"},
		{Identifier: "multiline_comment", Value: "Hello %@,\nyou", Context: ptr("this is a\n multiline\n comment")},
		{Identifier: "MAH_URL", Value: "https://www.mah.url"},
		{Identifier: "has_escaped_quote", Value: `Look at \"how\" escaped I am.`},
	}
	for i := range want {
		want[i].Type = parser.FormatDotStrings
		want[i].Source = file
	}

	assert.Equal(t, want, entries)
}

func TestParseFile_UTF16(t *testing.T) {
	file := "testdata/UTF_16_Localizable.strings"

	result, err := parser.NewDotStringsParser().Parse(file)
	require.NoError(t, err)

	assert.Equal(t, parser.EncodingUTF16LE, result.Encoding)
	assert.Equal(t, parser.FormatDotStrings, result.FileType)
	require.Len(t, result.Entries, 1)

	first := result.Entries[0]
	assert.Equal(t, "CHOOSE_AUDIO_TRACK", first.Identifier)
	assert.Equal(t, "Choose Audio Track", first.Value)
	assert.Nil(t, first.Context)
	assert.Equal(t, parser.FormatDotStrings, first.Type)
	assert.Equal(t, file, first.Source)
}

func TestParseFile_DoubleSlashComments(t *testing.T) {
	file := "testdata/ExampleWithCommentsLocalizable.strings"

	entries, err := parser.ParseFile(file)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "PASSCODE_FAILED_FORMAT", entries[0].Identifier)
	assert.Equal(t, "%d Failed Passcode Attempts", entries[0].Value)
	assert.Nil(t, entries[0].Context)

	assert.Equal(t, "Settings", entries[1].Identifier)
	assert.Equal(t, "Settings", entries[1].Value)
	assert.Nil(t, entries[1].Context)

	assert.Equal(t, "EMPTY_LIBRARY", entries[2].Identifier)
	assert.Equal(t, "Empty Media Library", entries[2].Value)
	require.NotNil(t, entries[2].Context)
	assert.Equal(t, "Comment for the Engineer!", *entries[2].Context)

	assert.Equal(t, "EMPTY_LIBRARY_LONG", entries[3].Identifier)
	assert.Equal(t, "For playback\ndo not panick", entries[3].Value)
	assert.Nil(t, entries[3].Context)
}

func TestParse_EndToEnd(t *testing.T) {
	input := "/* No comment provided by engineer. */\n" +
		"\"Username\" = \"nom d'utilisateur\";\n" +
		"\n" +
		"\"Main_Profile\" = \"profil de %1$@\";\n"

	entries, err := parser.Parse([]byte(input), "fr.lproj/Localizable.strings")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Username", entries[0].Identifier)
	assert.Equal(t, "nom d'utilisateur", entries[0].Value)
	require.NotNil(t, entries[0].Context)
	assert.Equal(t, "No comment provided by engineer.", *entries[0].Context)

	assert.Equal(t, "Main_Profile", entries[1].Identifier)
	assert.Equal(t, "profil de %1$@", entries[1].Value)
	assert.Nil(t, entries[1].Context)

	for _, e := range entries {
		assert.Equal(t, "localizable.strings", e.Type)
		assert.Equal(t, "fr.lproj/Localizable.strings", e.Source)
	}
}

func TestParse_SingleEntryWithoutComment(t *testing.T) {
	entries, err := parser.Parse([]byte(`"Key" = "Value";`), "a.strings")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Key", entries[0].Identifier)
	assert.Equal(t, "Value", entries[0].Value)
	assert.False(t, entries[0].HasContext())
}

func TestParse_CommentAttachesToNextEntryOnly(t *testing.T) {
	input := "/* greeting */\n\"hello\" = \"bonjour\";\n\"bye\" = \"au revoir\";\n"

	entries, err := parser.Parse([]byte(input), "a.strings")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Context)
	assert.Equal(t, "greeting", *entries[0].Context)
	assert.Nil(t, entries[1].Context)
}

func TestParse_EmptyInput(t *testing.T) {
	entries, err := parser.Parse(nil, "empty.strings")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = parser.Parse([]byte("\n\n   \n// only a comment\n"), "blank.strings")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParse_CRLF(t *testing.T) {
	input := "/* c */\r\n\"a\" = \"b\";\r\n\r\n\"multi\" = \"one\r\ntwo\";\r\n"

	entries, err := parser.Parse([]byte(input), "crlf.strings")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Value)
	assert.Equal(t, "one\ntwo", entries[1].Value)
}

func TestParse_BlankFirstContinuation(t *testing.T) {
	input := "/*\n\ntext\n*/\n\"k\" = \"\n\n  Hello\";\n"

	entries, err := parser.Parse([]byte(input), "blank.strings")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "\n  Hello", entries[0].Value)
	require.NotNil(t, entries[0].Context)
	assert.Equal(t, "\ntext", *entries[0].Context)
}

func TestParse_NonASCIISpaceIsContent(t *testing.T) {
	input := "\"k\" = \"one\u00a0\n\u00a0two\";\n"

	entries, err := parser.Parse([]byte(input), "nbsp.strings")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "one\u00a0\n\u00a0two", entries[0].Value)
}

func TestParse_UTF16MatchesUTF8(t *testing.T) {
	input := "/* Title of the screen */\n" +
		"\"TITLE\" = \"Réglages — ☃\";\n\n" +
		"\"EMOJI\" = \"😀 %@\";\n" +
		"\"LONG\" = \"line one\n  line two\";\n"

	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(input))
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFE}, encoded[:2])

	fromUTF8, err := parser.Parse([]byte(input), "x.strings")
	require.NoError(t, err)
	fromUTF16, err := parser.Parse(encoded, "x.strings")
	require.NoError(t, err)

	assert.Equal(t, fromUTF8, fromUTF16)
	assert.Len(t, fromUTF16, 3)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantText string
	}{
		{
			name:     "entry missing semicolon on a later line",
			input:    "\"a\" = \"b\";\n\n/* c */\n\"d\" = \"e\"",
			wantLine: 3,
			wantText: `"d" = "e"`,
		},
		{
			name:     "line matching no rule",
			input:    "\"a\" = \"b\";\nnonsense\n",
			wantLine: 1,
			wantText: "nonsense",
		},
		{
			name:     "semicolon line not matching id value pattern",
			input:    "\"a\" = b;\n",
			wantLine: 0,
			wantText: `"a" = b;`,
		},
		{
			name:     "two comments in a row",
			input:    "/* one */\n/* two */\n\"a\" = \"b\";\n",
			wantLine: 1,
			wantText: "/* two */",
		},
		{
			name:     "unterminated multi-line value",
			input:    "\"a\" = \"b\";\n\"long\" = \"start\nmore text\n",
			wantLine: 1,
			wantText: `"long" = "start`,
		},
		{
			name:     "unterminated multi-line comment",
			input:    "/* started\nnever closed\n",
			wantLine: 0,
			wantText: "/* started",
		},
		{
			name:     "comment at end of file",
			input:    "\"a\" = \"b\";\n/* dangling */\n",
			wantLine: 1,
			wantText: "/* dangling */",
		},
		{
			name:     "junk before identifier",
			input:    "junk \"a\" = \"b\";\n",
			wantLine: 0,
			wantText: `junk "a" = "b";`,
		},
		{
			name:     "two entries on one line",
			input:    "\"a\" = \"b\" \"c\" = \"d\";\n",
			wantLine: 0,
			wantText: `"a" = "b" "c" = "d";`,
		},
		{
			name:     "empty identifier",
			input:    "\"\" = \"b\";\n",
			wantLine: 0,
			wantText: `"" = "b";`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := parser.Parse([]byte(tt.input), "bad.strings")
			require.Error(t, err)
			assert.Nil(t, entries)
			assert.True(t, errors.Is(err, parser.ErrParse))

			var perr *parser.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "bad.strings", perr.Path)
			assert.Equal(t, tt.wantLine, perr.Line)
			assert.Equal(t, tt.wantText, perr.Text)
		})
	}
}

func TestParse_LineTooLong(t *testing.T) {
	input := "\"a\" = \"b\";\n\"long\" = \"" + strings.Repeat("x", 1024*1024) + "\";\n"

	_, err := parser.Parse([]byte(input), "long.strings")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrParse)

	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, perr.Reason, "too long")
}

func TestParse_EncodingError(t *testing.T) {
	_, err := parser.Parse([]byte{0x22, 0xC3, 0x28, 0x22}, "latin.strings")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrEncoding)

	var encErr *parser.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "latin.strings", encErr.Path)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := parser.ParseFile(filepath.Join(t.TempDir(), "nope.strings"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, parser.ErrParse)
}

func TestDotStringsParser_CanParse(t *testing.T) {
	p := parser.NewDotStringsParser()
	assert.True(t, p.CanParse(".strings"))
	assert.False(t, p.CanParse(".stringsdict"))
	assert.False(t, p.CanParse(".lua"))
}
