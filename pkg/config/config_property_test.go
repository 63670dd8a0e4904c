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

package config

import (
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyLookupEmptyNeverMatches verifies empty credentials never match.
func TestPropertyLookupEmptyNeverMatches(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		url := rapid.StringMatching(`https?://[a-z]+\.[a-z]+(/[a-z]*)?`).Draw(t, "url")

		if got, ok := (Credentials{}).Lookup(url); ok {
			t.Fatalf("empty creds should not match, got %v for %q", got, url)
		}
	})
}

// TestPropertyLookupExactMatchReturns verifies an exact URL entry matches
// and returns its own credentials.
func TestPropertyLookupExactMatchReturns(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "host")
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		user := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "user")
		pass := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "pass")

		cfgURL := "http://" + host + ":" + strconv.Itoa(port)
		creds := Credentials{
			cfgURL: {Username: user, Password: pass},
		}

		got, ok := creds.Lookup(cfgURL + "/status")
		if !ok {
			t.Fatalf("expected match for %q", cfgURL)
		}
		if got.Username != user || got.Password != pass {
			t.Fatalf("credential mismatch: want %s/%s, got %s/%s",
				user, pass, got.Username, got.Password)
		}
	})
}

// TestPropertyLookupCaseInsensitiveHost verifies host matching ignores case.
func TestPropertyLookupCaseInsensitiveHost(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "host")

		creds := Credentials{
			"http://" + host + ".local": {Bearer: "t"},
		}
		reqURL := "http://" + strings.ToUpper(host) + ".LOCAL/status"

		if _, ok := creds.Lookup(reqURL); !ok {
			t.Fatalf("case-insensitive match failed for %q", reqURL)
		}
	})
}

// TestPropertyLookupSchemeMismatch verifies a scheme-qualified entry never
// matches another scheme.
func TestPropertyLookupSchemeMismatch(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "host")

		creds := Credentials{
			"https://" + host + ".local": {Bearer: "t"},
		}

		if got, ok := creds.Lookup("http://" + host + ".local/"); ok {
			t.Fatalf("scheme mismatch should not match, got %v", got)
		}
	})
}

// TestPropertyLookupHostOnlyAnyScheme verifies entries without a scheme
// match their host under both http and https.
func TestPropertyLookupHostOnlyAnyScheme(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "host")
		scheme := rapid.SampledFrom([]string{"http", "https"}).Draw(t, "scheme")

		creds := Credentials{host: {Username: "u"}}

		if _, ok := creds.Lookup(scheme + "://" + host + "/print/status"); !ok {
			t.Fatalf("host-only entry %q did not match under %s", host, scheme)
		}
	})
}

// TestPropertyLookupLongestPrefix verifies the deepest matching path entry
// is chosen whatever the map order.
func TestPropertyLookupLongestPrefix(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		segs := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 1, 5).Draw(t, "segments")

		creds := Credentials{}
		path := ""
		for i, s := range segs {
			path += "/" + s
			creds["http://printer.local"+path] = CredentialEntry{Bearer: strconv.Itoa(i)}
		}

		got, ok := creds.Lookup("http://printer.local" + path + "/status")
		if !ok {
			t.Fatalf("no match for %q", path)
		}
		if want := strconv.Itoa(len(segs) - 1); got.Bearer != want {
			t.Fatalf("want entry %s, got %s for %q", want, got.Bearer, path)
		}
	})
}
