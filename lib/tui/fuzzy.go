// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"slices"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fzf fills its character-class and bonus tables in Init; matching
// without it never succeeds.
func init() {
	algo.Init("default")
}

// FuzzyResult is the outcome of matching a pattern against one text.
// Score is zero when the pattern does not match; Positions are the
// rune indexes of the matched characters.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// FuzzyMatch matches pattern against text case-insensitively with
// fzf's V2 algorithm, so "nchn" finds "Nachname". slab may be nil or
// reused across calls from one goroutine.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = slices.Clone(*positions)
		slices.Sort(match.Positions)
	}
	return match
}

// RankedOption is a dropdown option that matched a filter query.
type RankedOption struct {
	DropdownOption
	// Index is the option's position in the unfiltered list.
	Index int
	Match FuzzyResult
}

// FilterOptions returns the options whose label matches query, best
// score first and stable among equal scores. An empty query returns
// every option in its original order.
func FilterOptions(options []DropdownOption, query string) []RankedOption {
	query = strings.TrimSpace(query)
	ranked := make([]RankedOption, 0, len(options))
	if query == "" {
		for index, option := range options {
			ranked = append(ranked, RankedOption{DropdownOption: option, Index: index})
		}
		return ranked
	}
	pattern := []rune(query)
	slab := util.MakeSlab(100*1024, 2048)
	for index, option := range options {
		if option.Sticky {
			ranked = append(ranked, RankedOption{DropdownOption: option, Index: index})
			continue
		}
		match := FuzzyMatch(option.Label, pattern, slab)
		if match.Score > 0 {
			ranked = append(ranked, RankedOption{DropdownOption: option, Index: index, Match: match})
		}
	}
	slices.SortStableFunc(ranked, func(a, b RankedOption) int {
		if a.Sticky != b.Sticky {
			if a.Sticky {
				return -1
			}
			return 1
		}
		return b.Match.Score - a.Match.Score
	})
	return ranked
}
