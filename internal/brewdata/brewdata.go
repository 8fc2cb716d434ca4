// Package brewdata loads package dependency datasets for the load
// generator. Two formats are supported: the plain text dump
// ("name: dep dep ...") and the homebrew JSON dump. A small
// dependency-closed sample is embedded for runs without an external file.
package brewdata

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

//go:embed data/brew-dependencies.txt
var sampleData string

// Package is one entry of a dataset: a name and the names it depends on.
type Package struct {
	Name string   `json:"name"`
	Deps []string `json:"dependencies"`
}

// Matches well-formed lines of the text format.
var lineMatcher = regexp.MustCompile(`^\S+:( +)?(\S+ *)*$`)

// ParseText parses the "name: dep dep ..." dump format. Packages repeated
// in the input collapse to one entry with merged dependencies; blank lines
// are skipped.
func ParseText(text string) ([]*Package, error) {
	byName := make(map[string]*Package)
	var ordered []*Package

	named := func(name string) *Package {
		if pkg, ok := byName[name]; ok {
			return pkg
		}
		pkg := &Package{Name: name}
		byName[name] = pkg
		ordered = append(ordered, pkg)
		return pkg
	}

	for _, line := range strings.Split(text, "\n") {
		if len(line) == 0 {
			continue
		}
		if !lineMatcher.MatchString(line) {
			return nil, fmt.Errorf("invalid dataset line: %#v", line)
		}

		tokens := strings.Fields(line)
		pkg := named(strings.TrimSuffix(tokens[0], ":"))
		for _, dep := range tokens[1:] {
			pkg.Deps = append(pkg.Deps, named(dep).Name)
		}
	}

	return ordered, nil
}

// ParseJSON parses a homebrew JSON dump: an array of objects carrying at
// least "name" and "dependencies". Dependencies that have no entry of their
// own get a synthesized dependency-free entry so the dataset stays closed.
func ParseJSON(data []byte) ([]*Package, error) {
	var pkgs []*Package
	if err := sonic.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("decoding dataset JSON: %w", err)
	}

	seen := make(map[string]struct{}, len(pkgs))
	for _, pkg := range pkgs {
		if pkg.Name == "" {
			return nil, fmt.Errorf("dataset entry with empty name")
		}
		seen[pkg.Name] = struct{}{}
	}
	var synthesized []*Package
	for _, pkg := range pkgs {
		for _, dep := range pkg.Deps {
			if _, ok := seen[dep]; !ok {
				seen[dep] = struct{}{}
				synthesized = append(synthesized, &Package{Name: dep})
			}
		}
	}

	return append(pkgs, synthesized...), nil
}

// Load reads a dataset file, picking the format by extension.
func Load(path string) ([]*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if strings.HasSuffix(path, ".json") {
		return ParseJSON(data)
	}
	return ParseText(string(data))
}

// Sample returns the embedded dataset.
func Sample() []*Package {
	pkgs, err := ParseText(sampleData)
	if err != nil {
		panic(fmt.Sprintf("embedded dataset is invalid: %v", err))
	}
	return pkgs
}

// Segment splits pkgs into at most n contiguous segments of near-equal
// size. n below 1 yields a single segment; n above len(pkgs) is clamped.
func Segment(pkgs []*Package, n int) [][]*Package {
	if n < 1 {
		n = 1
	}
	if n > len(pkgs) {
		n = len(pkgs)
	}
	if n == 0 {
		return nil
	}

	per, extra := len(pkgs)/n, len(pkgs)%n
	out := make([][]*Package, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := per
		if i < extra {
			size++
		}
		out = append(out, pkgs[start:start+size])
		start += size
	}
	return out
}
