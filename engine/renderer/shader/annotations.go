// annotations.go defines the @oxy: annotations understood by the WGSL pre-processor. Annotations
// are single-line WGSL comments that either inject a shared struct definition or generate a
// bind group declaration matching the layout every program is drawn with.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a shared struct at the annotation site.
	//
	// Syntax: //@oxy:include <struct>
	//
	// Example: //@oxy:include pass_data
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding variable declaration and records it
	// in the pre-processor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <resource> <var_name>
	//
	// Example: //@oxy:group 0 0 pass_data pass_data
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType

	// Args holds the annotation's arguments:
	//   - include: [0] = struct key
	//   - group:   [0] = resource key, [1] = var name
	Args []AnnotationArg

	// Line is the 1-based source line the annotation was found on.
	Line int

	// Group and Binding are set for group annotations only.
	Group   *int
	Binding *int
}

// AnnotationArg is a typed annotation argument.
type AnnotationArg string

const (
	// AnnotationArgPassData is the per-pass uniform block holding the projection.
	AnnotationArgPassData AnnotationArg = "pass_data"

	// annotationArgVertexOut is the interpolated vertex output shared by every entry point.
	annotationArgVertexOut AnnotationArg = "vertex_out"

	// AnnotationArgTexture is the color texture of the draw.
	AnnotationArgTexture AnnotationArg = "texture"

	// AnnotationArgSampler is the sampler paired with the color texture.
	AnnotationArgSampler AnnotationArg = "sampler"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgPassData,
	annotationArgVertexOut,
}

var validResources = []AnnotationArg{
	AnnotationArgPassData,
	AnnotationArgTexture,
	AnnotationArgSampler,
}

// parseAnnotation parses a single line. It returns nil, nil for lines that carry no annotation.
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 5 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly four arguments (group number, binding number, resource, var name)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil || groupInt < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation", lineNum, args[1])
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil || bindingInt < 0 {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation", lineNum, args[2])
		}
		if !slices.Contains(validResources, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown resource %q in @oxy group annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation %q", lineNum, args[0])
	}
}
