package pake

import "fmt"

// colorPrinter is the subset of gookit/color's Theme and Style types the
// prompt and report paths need.
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints through the given style, plain when nil.
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// cPrintln prints a line through the given style, plain when nil.
func cPrintln(p colorPrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// debugf is gated on PAKE_DEBUG.
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}
