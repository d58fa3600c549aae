// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader source for
// @oxy: annotations, replaces them with injected struct source or generated bind group
// declarations, and collects the declarations so the backend can check a program against the
// bind group layout it draws with.
package shader

import (
	"fmt"
	"strings"
)

// passDataSource is the per-pass uniform block. Batched geometry arrives in camera space and
// only needs the projection.
const passDataSource = `struct PassData {
    projection: mat4x4<f32>,
};`

// vertexOutSource is the output of every vertex entry point and the input of the fragment stage.
const vertexOutSource = `struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) uv: vec2<f32>,
};`

// registryEntry pairs an injected WGSL struct source with its type name.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry   map[AnnotationArg]registryEntry
	resourceRegistry map[AnnotationArg]string

	// declarations is reset at the start of each Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every annotation in source with its WGSL output. Include annotations
	// become the registered struct source. Group annotations become @group/@binding variable
	// declarations and are recorded for Declarations.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if an annotation is malformed or declared twice
	Process(source string) (string, error)

	// Declarations returns the group annotations collected by the most recent Process call in
	// source order.
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the shared structs and resources registered.
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgPassData:  {Source: passDataSource, Type: "PassData"},
			annotationArgVertexOut: {Source: vertexOutSource, Type: "VertexOut"},
		},
		resourceRegistry: map[AnnotationArg]string{
			AnnotationArgPassData: "var<uniform> %s: PassData;",
			AnnotationArgTexture:  "var %s: texture_2d<f32>;",
			AnnotationArgSampler:  "var %s: sampler;",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]bool)
	bound := make(map[BindingKey]int)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, p.structRegistry[a.Args[0]].Source)
		case AnnotationTypeBindingGroup:
			key := BindingKey{Group: *a.Group, Binding: *a.Binding}
			if prev, ok := bound[key]; ok {
				return "", fmt.Errorf("line %d: group %d binding %d already declared on line %d", a.Line, key.Group, key.Binding, prev)
			}
			bound[key] = a.Line
			if a.Args[0] == AnnotationArgPassData && !included[AnnotationArgPassData] {
				included[AnnotationArgPassData] = true
				out = append(out, passDataSource)
			}
			decl := fmt.Sprintf(p.resourceRegistry[a.Args[0]], a.Args[1])
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s", key.Group, key.Binding, decl))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// BindingKey addresses a single binding slot.
type BindingKey struct {
	Group   int
	Binding int
}

// CheckLayout verifies that every declaration binds the resource the layout expects at its slot.
// Slots the program leaves undeclared are allowed; the program simply does not use them.
//
// Parameters:
//   - declarations: the declarations collected by Process
//   - layout: the resource expected at each slot
//
// Returns:
//   - error: an error naming the first mismatching declaration
func CheckLayout(declarations []Annotation, layout map[BindingKey]AnnotationArg) error {
	for _, d := range declarations {
		key := BindingKey{Group: *d.Group, Binding: *d.Binding}
		want, ok := layout[key]
		if !ok {
			return fmt.Errorf("line %d: group %d binding %d is not part of the layout", d.Line, key.Group, key.Binding)
		}
		if d.Args[0] != want {
			return fmt.Errorf("line %d: group %d binding %d must be %s, got %s", d.Line, key.Group, key.Binding, want, d.Args[0])
		}
	}
	return nil
}
