package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

func init() {
	// Register our custom smali style on package initialization
	_ = SmaliDark
}

// SmaliDark is a custom style for baksmali output matching our color scheme
var SmaliDark = styles.Register(chroma.MustNewStyle("smali-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",    // Default text white
	chroma.Background: "bg:#1e1e1e", // Dark background
	chroma.Comment:    "#6A9955",    // Section markers are comments, keep them visible

	// Directives (.method, .prologue, .end method) come through as keywords
	chroma.Keyword:       "#569CD6",
	chroma.KeywordPseudo: "#569CD6",

	// Opcodes and type descriptors
	chroma.Name:         "#FFFFFF",
	chroma.NameBuiltin:  "#DCDCAA", // invoke-static and friends
	chroma.NameFunction: "#DCDCAA",
	chroma.NameClass:    "#4EC9B0", // Ljava/lang/System; style descriptors

	// Registers
	chroma.NameVariable: "#7C9C9D",

	// Numbers
	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",

	// Labels
	chroma.NameLabel: "#FFD700",

	// Operators and punctuation
	chroma.Operator:    "#FFFFFF",
	chroma.Punctuation: "#FFFFFF",

	// Strings - the injected library name shows up here
	chroma.String: "#EACD53",
}))
