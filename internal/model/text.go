package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title renders a lowercase identifier such as a crop name for display.
// A Caser is stateful, so each call builds its own.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}
