package feature

import (
	"regexp"
	"strings"
)

// InjectMarker marks where bundled entry points expect middleware to be added.
const InjectMarker = "// tin:inject-middleware"

// Lines the apidocs feature adds to the entry point.
const (
	DocsImport       = "import { swaggerUi, openApiSpec, options } from './config/swagger.js';"
	DocsRegistration = "app.use('/api-docs', swaggerUi.serve, swaggerUi.setup(openApiSpec, options));"
)

// Anchor names, in the order PatchEntry tries them.
const (
	AnchorMarker     = "marker"
	AnchorCORS       = "cors"
	AnchorBodyParser = "body-parser"
	AnchorImports    = "imports"
	AnchorPrepend    = "prepend"
	AnchorExisting   = "existing"
)

var (
	importLineRe = regexp.MustCompile(`(?m)^import\s.*\sfrom\s+['"][^'"]+['"];?[ \t]*$`)
	corsUseRe    = regexp.MustCompile(`app\.use\(\s*cors\(`)
	jsonUseRe    = regexp.MustCompile(`app\.use\(\s*express\.json\(`)
)

// PatchEntry adds the documentation import and registration line to an
// entry-point source file. The import goes after the last import statement
// (or at the top). The registration goes after the first anchor found:
// the injection marker, the cors() registration, the express.json()
// registration, the last import, or the top of the file. Patching an already
// patched file returns it unchanged. The anchor used is returned.
func PatchEntry(src string) (string, string) {
	out := src
	if !strings.Contains(out, DocsImport) {
		if end, ok := lastImportEnd(out); ok {
			out = insertLine(out, end, DocsImport)
		} else {
			out = DocsImport + "\n\n" + out
		}
	}

	if strings.Contains(out, DocsRegistration) {
		return out, AnchorExisting
	}

	block := "// Swagger UI\n" + DocsRegistration
	if idx := strings.Index(out, InjectMarker); idx >= 0 {
		return insertLine(out, lineEnd(out, idx), block), AnchorMarker
	}
	if end, ok := statementEnd(out, corsUseRe); ok {
		return insertLine(out, end, block), AnchorCORS
	}
	if end, ok := statementEnd(out, jsonUseRe); ok {
		return insertLine(out, end, block), AnchorBodyParser
	}
	if end, ok := lastImportEnd(out); ok {
		return insertLine(out, end, block), AnchorImports
	}
	return block + "\n" + out, AnchorPrepend
}

// lastImportEnd returns the offset just past the newline ending the last
// single-line import statement.
func lastImportEnd(src string) (int, bool) {
	locs := importLineRe.FindAllStringIndex(src, -1)
	if len(locs) == 0 {
		return 0, false
	}
	return lineEnd(src, locs[len(locs)-1][0]), true
}

// statementEnd finds the first match of re and returns the offset past the
// end of the line on which its parentheses balance.
func statementEnd(src string, re *regexp.Regexp) (int, bool) {
	loc := re.FindStringIndex(src)
	if loc == nil {
		return 0, false
	}
	depth := 0
	for i := loc[0]; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return lineEnd(src, i), true
			}
		}
	}
	return 0, false
}

// lineEnd returns the offset just past the newline of the line containing
// offset i, or len(src) for the last line.
func lineEnd(src string, i int) int {
	if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}
	return len(src)
}

// insertLine inserts line at offset at, which must be at a line start or at
// the end of src.
func insertLine(src string, at int, line string) string {
	prefix := src[:at]
	if prefix != "" && !strings.HasSuffix(prefix, "\n") {
		prefix += "\n"
	}
	return prefix + line + "\n" + src[at:]
}
