package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════╗
    ║  ▀█▀ █▀▀   █▀▀ █▀█ █   █   █▀█ █ █ █ █▀▀ █▀█ █▀  ║
    ║  ░█░ █▄█   █▀  █▄█ █▄▄ █▄▄ █▄█ ▀▄▀▄▀ ██▄ █▀▄ ▄█  ║
    ║        FOLLOWER LIST COLLECTION UTILITY           ║
    ╚════════════════════════════════════════════════════╝
`

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	quiet   bool
	noColor bool
)

// SetOutput redirects all terminal output; nil restores stdout
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

// SetNoColor disables ANSI colors
func SetNoColor(disable bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disable
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		plain := noColor
		mu.Unlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func write(always bool, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintf(out, format, args...)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	write(false, "%s", Cyan(ASCIILogo))
}

// PrintError prints an error message in red; it is never suppressed
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	write(true, "%s\n", Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	write(false, "%s\n", Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	write(false, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	write(false, "%s\n", Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	write(false, "%s\n", Magenta(msg))
}
