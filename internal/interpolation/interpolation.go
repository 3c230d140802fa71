package interpolation

import (
	"regexp"
	"slices"
	"strconv"
)

// Specifier is one printf-style format directive found in a localized value.
type Specifier struct {
	// Raw is the directive as written, e.g. "%1$@".
	Raw string
	// Position is the explicit argument index (the 1 in %1$@), 0 if implicit.
	Position int
	// Verb is the conversion, including any length modifier ("@", "d", "ld").
	Verb string
}

// specifierPattern matches Foundation format directives: optional positional
// index, flags, width, precision, length modifier and conversion.
var specifierPattern = regexp.MustCompile(`%(?:(\d+)\$)?[-+ 0#']*\d*(?:\.\d+)?((?:hh|h|ll|l|q|L|z|t|j)?[@dDiuUxXoOfFeEgGcCsSpaA])`)

// escapedPercent is a literal percent sign, never an argument.
var escapedPercent = regexp.MustCompile(`%%`)

// Extract returns the format directives of s in order of appearance.
func Extract(s string) []Specifier {
	// Blank out %% first so "100%%d" is not read as a %d directive.
	masked := escapedPercent.ReplaceAllString(s, "__")

	var specs []Specifier
	for _, m := range specifierPattern.FindAllStringSubmatchIndex(masked, -1) {
		spec := Specifier{
			Raw:  s[m[0]:m[1]],
			Verb: s[m[4]:m[5]],
		}
		if m[2] >= 0 {
			spec.Position, _ = strconv.Atoi(s[m[2]:m[3]])
		}
		specs = append(specs, spec)
	}
	return specs
}

// Signature reduces the directives of s to a comparable form: one verb per
// argument slot, ordered by argument position. Implicit directives take the
// next slot in order, so "%@ %d" and "%2$d %1$@" share a signature.
func Signature(s string) []string {
	specs := Extract(s)
	if len(specs) == 0 {
		return nil
	}

	type slot struct {
		pos  int
		verb string
	}
	slots := make([]slot, 0, len(specs))
	next := 1
	for _, sp := range specs {
		pos := sp.Position
		if pos == 0 {
			pos = next
			next++
		}
		slots = append(slots, slot{pos: pos, verb: normalizeVerb(sp.Verb)})
	}
	slices.SortStableFunc(slots, func(a, b slot) int { return a.pos - b.pos })

	sig := make([]string, len(slots))
	for i, s := range slots {
		sig[i] = strconv.Itoa(s.pos) + ":" + s.verb
	}
	return sig
}

// Compatible reports whether a translation consumes the same arguments as the
// development-language value.
func Compatible(base, translated string) bool {
	return slices.Equal(Signature(base), Signature(translated))
}

// normalizeVerb folds conversions that accept the same argument type.
func normalizeVerb(v string) string {
	switch v {
	case "i", "D":
		return "d"
	case "U":
		return "u"
	case "O":
		return "o"
	case "S":
		return "s"
	case "C":
		return "c"
	}
	return v
}
