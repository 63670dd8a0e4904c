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
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// CredentialEntry is the login used for one controller.
type CredentialEntry struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Bearer   string `toml:"bearer"`
}

// Header returns the Authorization header value for the entry. A bearer
// token wins over a username.
func (e CredentialEntry) Header() string {
	switch {
	case e.Bearer != "":
		return "Bearer " + e.Bearer
	case e.Username != "":
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(e.Username+":"+e.Password))
	default:
		return ""
	}
}

// Credentials maps controller URLs ("http://host:port/optional/path") or
// bare "host:port" keys to logins.
type Credentials map[string]CredentialEntry

type authFile struct {
	Controllers map[string]CredentialEntry `toml:"controllers"`
}

// ParseCredentials reads auth.toml. Entries may sit at the root,
// ["http://host:port"], or under a controllers table,
// [controllers."http://host:port"]. Entries with neither a bearer token nor a
// username are dropped.
func ParseCredentials(data []byte) (Credentials, error) {
	var rootEntries map[string]CredentialEntry
	if err := toml.Unmarshal(data, &rootEntries); err != nil {
		return nil, fmt.Errorf("failed to parse auth file: %w", err)
	}
	delete(rootEntries, "controllers")

	var af authFile
	if err := toml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("failed to parse auth file: %w", err)
	}

	creds := make(Credentials, len(rootEntries)+len(af.Controllers))
	add := func(entries map[string]CredentialEntry) {
		for k, v := range entries {
			if v.Header() == "" {
				log.Warn().Msgf("auth entry has no bearer or username: %s", k)
				continue
			}
			creds[k] = v
		}
	}
	add(rootEntries)
	add(af.Controllers)

	return creds, nil
}

// Lookup finds the login for a request URL. Keys with a scheme must match the
// scheme and host, and their path must be a whole-segment prefix of the
// request path; the longest such path wins. Keys without a scheme match
// their host under any scheme and are only tried when no scoped key matches.
func (c Credentials) Lookup(reqURL string) (CredentialEntry, bool) {
	if len(c) == 0 {
		return CredentialEntry{}, false
	}

	u, err := url.Parse(reqURL)
	if err != nil {
		log.Warn().Msgf("invalid auth request url: %s", reqURL)
		return CredentialEntry{}, false
	}

	var best CredentialEntry
	bestLen := -1
	for k, v := range c {
		if !strings.Contains(k, "://") {
			continue
		}
		keyURL, err := url.Parse(k)
		if err != nil {
			log.Error().Msgf("invalid auth config url: %s", k)
			continue
		}
		if !strings.EqualFold(keyURL.Scheme, u.Scheme) || !strings.EqualFold(keyURL.Host, u.Host) {
			continue
		}
		prefix := strings.TrimSuffix(keyURL.Path, "/")
		if !pathWithin(u.Path, prefix) {
			continue
		}
		if len(prefix) > bestLen {
			best, bestLen = v, len(prefix)
		}
	}
	if bestLen >= 0 {
		return best, true
	}

	for k, v := range c {
		if !strings.Contains(k, "://") && strings.EqualFold(k, u.Host) {
			return v, true
		}
	}

	return CredentialEntry{}, false
}

func pathWithin(p, prefix string) bool {
	if prefix == "" || p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

var loadedCreds atomic.Pointer[Credentials]

// LoadedCredentials returns the credentials read from the auth file by the
// last config load, or nil.
func LoadedCredentials() Credentials {
	if p := loadedCreds.Load(); p != nil {
		return *p
	}
	return nil
}
