package cmd

import (
	"fmt"
	"os"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
	colorGreen = "\033[0;32m"
	colorWhite = "\033[0;37m"
)

// fatal prints err in red and exits. Staged files must be cleaned up before
// calling it since deferred functions do not run.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%sirisprep: %s%s\n", colorRed, err.Error(), colorReset)
	os.Exit(1)
}

func infof(msg string, format ...interface{}) {
	formatted := fmt.Sprintf(msg, format...)
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorWhite, formatted, colorReset)
}

func successf(msg string, format ...interface{}) {
	formatted := fmt.Sprintf(msg, format...)
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorGreen, formatted, colorReset)
}
