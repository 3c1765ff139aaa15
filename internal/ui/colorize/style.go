// Package colorize provides terminal coloring for replay trace lines and
// syntax highlighting for hook scripts.
package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

func init() {
	// Register our custom script style on package initialization
	_ = ScriptDark
}

// ScriptDark is a custom dark style for hook script dumps.
var ScriptDark = styles.Register(chroma.MustNewStyle("tinyhook-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#000000",
	chroma.Comment:    "#FF8000", // Orange comments

	chroma.Keyword:         "#569CD6", // Blue keywords (function, return, var)
	chroma.KeywordConstant: "#569CD6",
	chroma.Name:            "#FFFFFF",
	chroma.NameFunction:    "#FFC800", // Yellow function names
	chroma.NameBuiltin:     "#87CEEB", // Light blue builtins
	chroma.LiteralNumber:   "#FF80C0", // Light pink numbers
	chroma.LiteralString:   "#00FF00", // Green strings
	chroma.Operator:        "#FFFFFF",
	chroma.Punctuation:     "#B4B4B4",
}))
