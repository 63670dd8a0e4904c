// Odyssey Tools
// Copyright (c) 2026 The Odyssey Tools Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Odyssey Tools.
//
// Odyssey Tools is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Odyssey Tools is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Odyssey Tools.  If not, see <http://www.gnu.org/licenses/>.

package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var commandNames = []string{
	"start", "cancel", "stop", "pause", "resume", "status",
	"manual_control", "files", "file", "delete",
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		first string
		none  bool
	}{
		{name: "transposed letters", query: "pasue", first: "pause"},
		{name: "exact match ranks first", query: "status", first: "status"},
		{name: "case insensitive", query: "RESUME", first: "resume"},
		{name: "missing letter", query: "delte", first: "delete"},
		{name: "nothing close", query: "zzzz", none: true},
		{name: "empty query", query: "", none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Suggest(tt.query, commandNames, DefaultSuggestSimilarity)
			if tt.none {
				assert.Empty(t, got)
				return
			}
			require.NotEmpty(t, got)
			assert.Equal(t, tt.first, got[0])
		})
	}
}

func TestSuggest_NoCandidates(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Suggest("start", nil, 0))
}

// TestPropertySuggestExactMatchFirst verifies a candidate equal to the query
// is always the top suggestion.
func TestPropertySuggestExactMatchFirst(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		candidates := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z_]{1,12}`), 1, 10, rapid.ID[string],
		).Draw(t, "candidates")
		query := rapid.SampledFrom(candidates).Draw(t, "query")

		got := Suggest(query, candidates, DefaultSuggestSimilarity)
		if len(got) == 0 || got[0] != query {
			t.Fatalf("expected %q first, got %v", query, got)
		}
	})
}

// TestPropertySuggestSubsetOfCandidates verifies every suggestion comes from
// the candidate list and none repeat.
func TestPropertySuggestSubsetOfCandidates(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		candidates := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z]{1,8}`), 0, 10, rapid.ID[string],
		).Draw(t, "candidates")
		query := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "query")

		got := Suggest(query, candidates, 0)
		if len(got) > len(candidates) {
			t.Fatalf("more suggestions than candidates: %v", got)
		}
		seen := make(map[string]bool)
		for _, s := range got {
			if seen[s] {
				t.Fatalf("duplicate suggestion %q", s)
			}
			seen[s] = true
		}
	})
}
