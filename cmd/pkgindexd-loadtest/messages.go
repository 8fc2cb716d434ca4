package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/huyhandes/pkgindexd/internal/brewdata"
)

// MakeIndexMessage builds an INDEX request for pkg and its dependencies.
func MakeIndexMessage(pkg *brewdata.Package) string {
	return fmt.Sprintf("INDEX|%s|%s", pkg.Name, strings.Join(pkg.Deps, ","))
}

// MakeRemoveMessage builds a REMOVE request for name.
func MakeRemoveMessage(name string) string {
	return fmt.Sprintf("REMOVE|%s|", name)
}

// MakeQueryMessage builds a QUERY request for name.
func MakeQueryMessage(name string) string {
	return fmt.Sprintf("QUERY|%s|", name)
}

var invalidCommands = []string{"BLINDEX", "REMOVES", "QUER", "LIZARD", "I"}
var invalidChars = []string{"=", "+", "☃", " "}

// MakeBrokenMessage returns a request the server must reject with ERROR:
// either a syntactically broken line or an unknown command.
func MakeBrokenMessage(rng *rand.Rand) string {
	if rng.Intn(2) == 0 {
		char := invalidChars[rng.Intn(len(invalidChars))]
		return fmt.Sprintf("INDEX|emacs%selisp", char)
	}
	cmd := invalidCommands[rng.Intn(len(invalidCommands))]
	return fmt.Sprintf("%s|a|b", cmd)
}
