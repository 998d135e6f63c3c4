// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractTitles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"Geschäftsführer", nil},
		{"Dr. Anna Schmidt", []string{"Dr."}},
		{"Dipl.-Ing. Prof. Dr. Huber", []string{"Prof.", "Dr.", "Dipl.-Ing."}},
		{"Prof. Dr. med. Chefarzt", []string{"Prof.", "Dr. med."}},
		{"dr.-ing. Entwicklung", []string{"Dr.-Ing."}},
		{"Mag. Lic. Berater", []string{"Mag.", "Lic."}},
		{"Senior Engineer, Ph.D.", []string{"Dr."}},
		{"Dr. phil., Ph.D.", []string{"Dr. phil."}},
		{"M. Sc. Informatik, MBA", nil},
		{"Magazinredakteur", nil},
	}
	for _, test := range tests {
		got := ExtractTitles(test.text)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ExtractTitles(%q) (-want +got):\n%s", test.text, diff)
		}
	}
}
