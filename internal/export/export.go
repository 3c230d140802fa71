package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"dotstrings/internal/parser"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for parsed entries.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTSV  Format = "tsv"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatJSON, FormatYAML, FormatTSV}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml or tsv)", s)
}

// Write encodes entries to w in the given format.
func Write(w io.Writer, format Format, entries []parser.Entry) error {
	if entries == nil {
		entries = []parser.Entry{}
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(entries); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(entries); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
	case FormatTSV:
		if _, err := fmt.Fprintln(w, "identifier\tvalue\tcontext\ttype\tsource"); err != nil {
			return fmt.Errorf("write TSV: %w", err)
		}
		for _, e := range entries {
			context := ""
			if e.Context != nil {
				context = *e.Context
			}
			_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				escapeTSV(e.Identifier),
				escapeTSV(e.Value),
				escapeTSV(context),
				e.Type,
				escapeTSV(e.Source),
			)
			if err != nil {
				return fmt.Errorf("write TSV: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}

// WriteFile writes entries to outputPath.
func WriteFile(outputPath string, format Format, entries []parser.Entry) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s file: %w", format, err)
	}
	defer f.Close()

	if err := Write(f, format, entries); err != nil {
		return err
	}

	log.Info().Str("path", outputPath).Str("format", string(format)).Int("entries", len(entries)).Msg("Exported entries")
	return nil
}

// escapeTSV backslash-escapes tabs and newlines. Backslashes are escaped first
// so a literal `\n` in a value stays distinct from a real newline.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
