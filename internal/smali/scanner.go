// Package smali edits the baksmali disassembly of a class so that its
// static initializer loads a native library. The dialect is line oriented;
// the scanner below resolves the handful of literal markers the patch
// depends on into validated spans before any text is spliced.
package smali

import (
	"fmt"
	"strings"
)

const (
	markerDirectMethods  = "# direct methods"
	markerVirtualMethods = "# virtual methods"
	markerClinit         = ".method static constructor <clinit>()V"
	markerEndMethod      = ".end method"
	markerPrologue       = ".prologue"
)

// Span is a half-open byte range [Start, End) inside the class source.
// End covers the marker text up to and including its trailing newline, so
// splicing at span.End always lands at the start of the next line.
type Span struct {
	Start int
	End   int
}

// StructureError reports a marker the dialect guarantees but the scanned
// source lacks. It usually means a truncated file or a baksmali version
// producing a different dialect.
type StructureError struct {
	Missing string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("malformed class source: missing %q", e.Missing)
}

// classLayout holds the validated spans the injector splices around.
type classLayout struct {
	directMethods  Span
	virtualMethods Span

	hasClinit bool
	clinit    Span // start marker line of <clinit>
	clinitEnd Span // its .end method line
	prologue  Span // .prologue line inside <clinit>
}

// markerSpan finds marker inside src[from:to] and returns its span extended
// to the end of the marker's line. A marker on the last line without a
// trailing newline gets End == len(src).
func markerSpan(src, marker string, from, to int) (Span, bool) {
	idx := strings.Index(src[from:to], marker)
	if idx < 0 {
		return Span{}, false
	}
	start := from + idx
	end := start + len(marker)
	if nl := strings.IndexByte(src[end:], '\n'); nl >= 0 {
		end += nl + 1
	} else {
		end = len(src)
	}
	return Span{Start: start, End: end}, true
}

// scanClass locates the method-table markers and, when present, the static
// initializer with its prologue. The two section markers are mandatory; a
// missing one is a StructureError. The initializer is optional, but once its
// start marker is seen its end marker and prologue are mandatory too.
func scanClass(src string) (*classLayout, error) {
	layout := &classLayout{}

	direct, ok := markerSpan(src, markerDirectMethods, 0, len(src))
	if !ok {
		return nil, &StructureError{Missing: markerDirectMethods}
	}
	layout.directMethods = direct

	virtual, ok := markerSpan(src, markerVirtualMethods, direct.End, len(src))
	if !ok {
		return nil, &StructureError{Missing: markerVirtualMethods}
	}
	layout.virtualMethods = virtual

	// The initializer only counts when it sits strictly inside the
	// direct-methods region.
	clinit, ok := markerSpan(src, markerClinit, direct.End, virtual.Start)
	if !ok {
		return layout, nil
	}
	layout.hasClinit = true
	layout.clinit = clinit

	end, ok := markerSpan(src, markerEndMethod, clinit.End, virtual.Start)
	if !ok {
		return nil, &StructureError{Missing: markerEndMethod}
	}
	layout.clinitEnd = end

	prologue, ok := markerSpan(src, markerPrologue, clinit.End, end.Start)
	if !ok {
		return nil, &StructureError{Missing: markerPrologue}
	}
	layout.prologue = prologue

	return layout, nil
}
