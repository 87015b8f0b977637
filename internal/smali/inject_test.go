package smali

import (
	"errors"
	"strings"
	"testing"
)

const classWithClinit = `.class public final Lcom/example/app/MainActivity;
.super Landroid/app/Activity;


# static fields
.field private static sReady:Z


# direct methods
.method static constructor <clinit>()V
    .prologue
    .locals 2

    const/4 v0, 0x1

    sput-boolean v0, Lcom/example/app/MainActivity;->sReady:Z

    return-void
.end method

.method public constructor <init>()V
    .locals 0

    .prologue
    invoke-direct {p0}, Landroid/app/Activity;-><init>()V

    return-void
.end method


# virtual methods
.method public onCreate(Landroid/os/Bundle;)V
    .locals 1

    .prologue
    invoke-super {p0, p1}, Landroid/app/Activity;->onCreate(Landroid/os/Bundle;)V

    return-void
.end method
`

const classWithoutClinit = `.class public final Lcom/example/app/MainActivity;
.super Landroid/app/Activity;


# direct methods
.method public constructor <init>()V
    .locals 0

    .prologue
    invoke-direct {p0}, Landroid/app/Activity;-><init>()V

    return-void
.end method


# virtual methods
.method public onCreate(Landroid/os/Bundle;)V
    .locals 1

    .prologue
    invoke-super {p0, p1}, Landroid/app/Activity;->onCreate(Landroid/os/Bundle;)V

    return-void
.end method
`

func TestInsertLoadLibraryExistingClinit(t *testing.T) {
	out, err := InsertLoadLibrary(classWithClinit, "mylib")
	if err != nil {
		t.Fatalf("InsertLoadLibrary failed: %v", err)
	}

	// The snippet must land between the .prologue line and whatever
	// followed it, with everything after preserved byte for byte.
	prologueIdx := strings.Index(out, ".method static constructor <clinit>()V")
	if prologueIdx == -1 {
		t.Fatal("clinit marker disappeared")
	}
	constIdx := strings.Index(out, `const-string v0, "mylib"`)
	localsIdx := strings.Index(out, ".locals 2")
	prologueLineEnd := strings.Index(out, ".prologue") + len(".prologue")

	if constIdx == -1 {
		t.Fatal("load-library constant not injected")
	}
	if !(prologueLineEnd < constIdx && constIdx < localsIdx) {
		t.Errorf("snippet not between .prologue and .locals 2: prologue=%d const=%d locals=%d",
			prologueLineEnd, constIdx, localsIdx)
	}
	if !strings.Contains(out, "invoke-static {v0}, Ljava/lang/System;->loadLibrary(Ljava/lang/String;)V") {
		t.Error("loadLibrary call not injected")
	}

	// Trailing text unchanged.
	wantTail := classWithClinit[strings.Index(classWithClinit, ".locals 2"):]
	if !strings.HasSuffix(out, wantTail) {
		t.Error("text after insertion point was modified")
	}
	// Leading text unchanged.
	wantHead := classWithClinit[:strings.Index(classWithClinit, ".locals 2")]
	if !strings.HasPrefix(out, wantHead[:strings.Index(wantHead, ".prologue")]) {
		t.Error("text before insertion point was modified")
	}

	// No new clinit was synthesized; the existing one gained no extra
	// terminator.
	if got := strings.Count(out, ".method static constructor <clinit>()V"); got != 1 {
		t.Errorf("clinit count = %d, want 1", got)
	}
	if got := strings.Count(out, "# direct methods"); got != 1 {
		t.Errorf("direct-methods marker count = %d, want 1", got)
	}
	if got := strings.Count(out, "# virtual methods"); got != 1 {
		t.Errorf("virtual-methods marker count = %d, want 1", got)
	}
	if got, want := strings.Count(out, ".end method"), strings.Count(classWithClinit, ".end method"); got != want {
		t.Errorf(".end method count = %d, want %d", got, want)
	}
}

func TestInsertLoadLibrarySynthesizedClinit(t *testing.T) {
	out, err := InsertLoadLibrary(classWithoutClinit, "mylib")
	if err != nil {
		t.Fatalf("InsertLoadLibrary failed: %v", err)
	}

	directIdx := strings.Index(out, "# direct methods")
	clinitIdx := strings.Index(out, ".method static constructor <clinit>()V")
	initIdx := strings.Index(out, ".method public constructor <init>()V")

	if clinitIdx == -1 {
		t.Fatal("no clinit was synthesized")
	}
	if !(directIdx < clinitIdx && clinitIdx < initIdx) {
		t.Errorf("synthesized clinit not directly after # direct methods: direct=%d clinit=%d init=%d",
			directIdx, clinitIdx, initIdx)
	}

	// The synthesized method is complete and minimal.
	for _, want := range []string{
		".locals 1",
		`const-string v0, "mylib"`,
		"invoke-static {v0}, Ljava/lang/System;->loadLibrary(Ljava/lang/String;)V",
		"return-void",
	} {
		if !strings.Contains(out[clinitIdx:initIdx], want) {
			t.Errorf("synthesized clinit missing %q", want)
		}
	}

	if got := strings.Count(out, "# virtual methods"); got != 1 {
		t.Errorf("virtual-methods marker count = %d, want 1", got)
	}
}

func TestInsertLoadLibraryIdempotent(t *testing.T) {
	first, err := InsertLoadLibrary(classWithClinit, "frida-gadget")
	if err != nil {
		t.Fatalf("first injection failed: %v", err)
	}

	_, err = InsertLoadLibrary(first, "frida-gadget")
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("second injection: got err %v, want ErrAlreadyApplied", err)
	}
}

func TestInsertLoadLibraryCoarseGuard(t *testing.T) {
	// The guard is textual: a comment mentioning the library name is
	// enough to trip it. That is the defined behavior.
	src := "# this class once used frida-gadget\n" + classWithClinit
	_, err := InsertLoadLibrary(src, "frida-gadget")
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("got err %v, want ErrAlreadyApplied", err)
	}
}

func TestInsertLoadLibraryStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		missing string
	}{
		{
			name:    "no direct methods marker",
			src:     ".class public Lcom/example/Broken;\n# virtual methods\n",
			missing: markerDirectMethods,
		},
		{
			name:    "no virtual methods marker",
			src:     ".class public Lcom/example/Broken;\n# direct methods\n",
			missing: markerVirtualMethods,
		},
		{
			name: "truncated clinit",
			src: "# direct methods\n" +
				".method static constructor <clinit>()V\n" +
				"    .prologue\n" +
				"# virtual methods\n",
			missing: markerEndMethod,
		},
		{
			name: "clinit without prologue",
			src: "# direct methods\n" +
				".method static constructor <clinit>()V\n" +
				"    return-void\n" +
				".end method\n" +
				"# virtual methods\n",
			missing: markerPrologue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InsertLoadLibrary(tt.src, "mylib")
			var serr *StructureError
			if !errors.As(err, &serr) {
				t.Fatalf("got err %v, want StructureError", err)
			}
			if serr.Missing != tt.missing {
				t.Errorf("missing marker = %q, want %q", serr.Missing, tt.missing)
			}
		})
	}
}

func TestInsertLoadLibraryClinitOutsideDirectMethods(t *testing.T) {
	// A clinit marker appearing after # virtual methods (say, in a string
	// literal) must not be treated as the initializer.
	src := "# direct methods\n" +
		".method public constructor <init>()V\n" +
		"    .locals 0\n" +
		"    .prologue\n" +
		"    return-void\n" +
		".end method\n" +
		"# virtual methods\n" +
		".method public describe()Ljava/lang/String;\n" +
		"    .locals 1\n" +
		"    .prologue\n" +
		"    const-string v0, \".method static constructor <clinit>()V\"\n" +
		"    return-object v0\n" +
		".end method\n"

	out, err := InsertLoadLibrary(src, "mylib")
	if err != nil {
		t.Fatalf("InsertLoadLibrary failed: %v", err)
	}
	// A fresh clinit must have been synthesized in the direct region.
	clinitIdx := strings.Index(out, ".method static constructor <clinit>()V")
	virtualIdx := strings.Index(out, "# virtual methods")
	if clinitIdx == -1 || clinitIdx > virtualIdx {
		t.Errorf("synthesized clinit at %d, want before virtual methods at %d", clinitIdx, virtualIdx)
	}
}
