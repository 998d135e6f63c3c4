// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"regexp"
	"strings"
)

// prenominalTitles are written before the name, in this order.
var prenominalTitles = []string{
	"Prof.",
	"Dr.-Ing.",
	"Dr. iur.",
	"Dr. med.",
	"Dr. oec.",
	"Dr. phil.",
	"Dr. rer. nat.",
	"Dr. rer. pol.",
	"Dr.",
	"Dipl.-Ing.",
	"Dipl.-Kfm.",
	"Dipl.-Kffr.",
	"Dipl.-Hdl.",
	"Dipl.-Päd.",
	"Mag.",
	"Lic.",
}

// Bachelor and master degrees are not part of the salutation. A doctorate
// from abroad counts as "Dr.".
const foreignDoctorate = "Ph.D."

var titlePatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(prenominalTitles)+1)
	for _, title := range append(prenominalTitles[:len(prenominalTitles):len(prenominalTitles)], foreignDoctorate) {
		patterns[title] = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(title) + `(?:$|[^\p{L}\p{N}])`)
	}
	return patterns
}()

// ExtractTitles returns the prenominal academic titles that occur in
// text, in DIN 5008 order. A generic "Dr." is dropped when a specific
// doctorate such as "Dr. med." is present, and "Ph.D." yields "Dr." when
// no doctorate is named otherwise.
func ExtractTitles(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	found := make(map[string]bool)
	for _, title := range prenominalTitles {
		if titlePatterns[title].MatchString(text) {
			found[title] = true
		}
	}

	specificDoctorate := false
	for title := range found {
		if title != "Dr." && strings.HasPrefix(title, "Dr.") {
			specificDoctorate = true
		}
	}
	if specificDoctorate {
		delete(found, "Dr.")
	} else if !found["Dr."] && titlePatterns[foreignDoctorate].MatchString(text) {
		found["Dr."] = true
	}

	var titles []string
	for _, title := range prenominalTitles {
		if found[title] {
			titles = append(titles, title)
		}
	}
	return titles
}
