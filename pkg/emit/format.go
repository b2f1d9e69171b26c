package emit

import (
	"fmt"
	"strings"
)

// Format identifies one output artifact. The value doubles as the file extension.
type Format string

const (
	FormatJSON       Format = "json"
	FormatTypeScript Format = "ts"
	FormatESM        Format = "mjs"
	FormatCommonJS   Format = "cjs"
)

// Formats lists every artifact in emission order.
var Formats = []Format{FormatJSON, FormatTypeScript, FormatESM, FormatCommonJS}

// IsModule reports whether f is one of the source-module flavors.
func (f Format) IsModule() bool {
	return f == FormatTypeScript || f == FormatESM || f == FormatCommonJS
}

// FileName returns the artifact file name for a base name, e.g. names-lexicon.ts.
func (f Format) FileName(base string) string {
	return base + "." + string(f)
}

// ParseFormats parses a comma-separated list such as "json,ts". An empty
// string selects every format.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return Formats, nil
	}
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		switch f {
		case FormatJSON, FormatTypeScript, FormatESM, FormatCommonJS:
		default:
			return nil, fmt.Errorf("unknown output format %q", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// header precedes every source module.
const header = "// Auto-generated name lexicon for compromise NLP\n" +
	"// Source: https://github.com/philipperemy/name-dataset\n" +
	"// Do not edit manually - regenerate using namelex build\n\n"

// moduleSyntax holds the text wrapped around the JSON object of a module flavor.
type moduleSyntax struct {
	prefix  string
	trailer string
}

var modules = map[Format]moduleSyntax{
	FormatTypeScript: {
		prefix:  "export const nameLexicon: Record<string, string> = ",
		trailer: ";\n",
	},
	FormatESM: {
		prefix:  "export const nameLexicon = ",
		trailer: ";\n",
	},
	FormatCommonJS: {
		prefix:  "const nameLexicon = ",
		trailer: ";\n\nmodule.exports = { nameLexicon };\n",
	},
}
