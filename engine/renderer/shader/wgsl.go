package shader

import (
	"regexp"
	"strings"
)

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`@vertex\s+fn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`@fragment\s+fn\s+(\w+)`)
)

// EntryPoints lists the vertex and fragment entry points declared in WGSL source, ignoring
// commented-out code.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - []string: vertex entry point names in source order
//   - []string: fragment entry point names in source order
func EntryPoints(source string) (vertex, fragment []string) {
	cleaned := stripComments(source)
	for _, m := range vertexEntryRegex.FindAllStringSubmatch(cleaned, -1) {
		vertex = append(vertex, m[1])
	}
	for _, m := range fragmentEntryRegex.FindAllStringSubmatch(cleaned, -1) {
		fragment = append(fragment, m[1])
	}
	return vertex, fragment
}

// stripComments removes block and line comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes /* */ comments, which nest in WGSL.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
