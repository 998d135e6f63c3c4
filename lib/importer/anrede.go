// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed vornamen.txt
var vornamenTable string

var vornamen = sync.OnceValue(func() map[string]string {
	table, err := parseVornamen(vornamenTable)
	if err != nil {
		panic(fmt.Sprintf("importer: embedded first-name table: %v", err))
	}
	return table
})

// parseVornamen reads "Vorname<TAB>Anrede" lines. Blank lines and lines
// starting with '#' are skipped. Keys are lower case.
func parseVornamen(text string) (map[string]string, error) {
	table := make(map[string]string)
	for number, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, anrede, found := strings.Cut(line, "\t")
		if !found || (anrede != "Herr" && anrede != "Frau") {
			return nil, fmt.Errorf("line %d: want \"Vorname<TAB>Herr|Frau\", got %q", number+1, line)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if previous, exists := table[key]; exists && previous != anrede {
			return nil, fmt.Errorf("line %d: %s listed as both %s and %s", number+1, name, previous, anrede)
		}
		table[key] = anrede
	}
	return table, nil
}

// AnredeFor guesses "Herr" or "Frau" from the first word of vorname,
// ignoring case. A hyphenated name is looked up whole and then by its
// first part, so "Anna-Lena" yields "Frau". Unknown and ambiguous names
// yield "".
func AnredeFor(vorname string) string {
	words := strings.Fields(vorname)
	if len(words) == 0 {
		return ""
	}
	first := strings.ToLower(words[0])
	table := vornamen()
	if anrede, ok := table[first]; ok {
		return anrede
	}
	if head, _, hyphenated := strings.Cut(first, "-"); hyphenated {
		return table[head]
	}
	return ""
}
