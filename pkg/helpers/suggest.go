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
	"cmp"
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
)

// DefaultSuggestSimilarity is the lowest Jaro-Winkler score worth offering
// as a "did you mean" hint.
const DefaultSuggestSimilarity float32 = 0.75

type suggestion struct {
	name  string
	score float32
}

// Suggest returns the candidates similar to query, best first. Comparison
// ignores case. Ties keep the candidates in alphabetical order.
func Suggest(query string, candidates []string, minSimilarity float32) []string {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}

	var matches []suggestion
	for _, c := range candidates {
		score := edlib.JaroWinklerSimilarity(q, strings.ToLower(c))
		if score < minSimilarity {
			continue
		}
		log.Debug().
			Str("query", query).
			Str("candidate", c).
			Float32("similarity", score).
			Msg("suggestion candidate")
		matches = append(matches, suggestion{name: c, score: score})
	}

	slices.SortFunc(matches, func(a, b suggestion) int {
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		return strings.Compare(a.name, b.name)
	})

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}
