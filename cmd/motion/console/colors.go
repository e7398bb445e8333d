package console

import "github.com/fatih/color"

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// Hex formats a register value as a colored hex literal.
func Hex(v any) string {
	switch n := v.(type) {
	case byte:
		return White(sprintf("%#02x", n))
	case uint16:
		return White(sprintf("%#04x", n))
	}
	return White(sprintf("%v", v))
}
