package smali

import (
	"errors"
	"strings"
)

// ErrAlreadyApplied signals that the class already references the library
// name somewhere in its text. The guard is deliberately coarse: an unrelated
// comment mentioning the name trips it too. Callers treat it as a successful
// short-circuit, not a failure.
var ErrAlreadyApplied = errors.New("load-library call already present in class")

const libNamePlaceholder = "<LIBNAME>"

// partialSnippet is spliced into an existing <clinit> right after its
// .prologue line. It claims v0 only, which the prologue scope guarantees is
// safe to clobber before the first original instruction runs.
const partialSnippet = `
    const-string v0, "` + libNamePlaceholder + `"

    invoke-static {v0}, Ljava/lang/System;->loadLibrary(Ljava/lang/String;)V

`

// fullSnippet is a complete, self-contained <clinit> for classes that have
// none. One local register is all the load call needs.
const fullSnippet = `
.method static constructor <clinit>()V
    .locals 1

    .prologue
    const-string v0, "` + libNamePlaceholder + `"

    invoke-static {v0}, Ljava/lang/System;->loadLibrary(Ljava/lang/String;)V

    return-void
.end method

`

// InsertLoadLibrary returns a copy of src whose static initializer loads
// libName via System.loadLibrary. libName is the bare library name, no
// "lib" prefix, path or extension.
//
// When the class already has a <clinit>, the load call is inserted directly
// after its .prologue line so the method's own register allocation is left
// intact. Otherwise a minimal initializer is synthesized right after the
// "# direct methods" marker. Everything outside the insertion point is
// preserved byte for byte.
func InsertLoadLibrary(src, libName string) (string, error) {
	if strings.Contains(src, libName) {
		return "", ErrAlreadyApplied
	}

	layout, err := scanClass(src)
	if err != nil {
		return "", err
	}

	var at int
	var snippet string
	if layout.hasClinit {
		at = layout.prologue.End
		snippet = partialSnippet
	} else {
		at = layout.directMethods.End
		snippet = fullSnippet
	}

	var b strings.Builder
	b.Grow(len(src) + len(snippet))
	b.WriteString(src[:at])
	b.WriteString(strings.ReplaceAll(snippet, libNamePlaceholder, libName))
	b.WriteString(src[at:])

	return b.String(), nil
}
