/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package config reads the environment variables the enclosing CLI embeds
// into cube and commit operations (spec §6).
package config

import (
	"errors"
	"os"
)

// Config holds everything the core needs from the process environment.
// Username and Email have no defaults: the CLI layer is expected to prompt
// or fail before calling into the core without them.
type Config struct {
	Username     string
	Email        string
	Editor       string
	BackupBucket string
	BackupPrefix string
}

// ErrMissingUsername is returned by Load when AK_USERNAME is unset; every
// cube filename and commit record needs an author identity.
var ErrMissingUsername = errors.New("config: AK_USERNAME is not set")

// Load reads Config from the environment. EDITOR falls back to "vi" when
// unset, matching the common shell convention.
func Load() (Config, error) {
	cfg := Config{
		Username:     os.Getenv("AK_USERNAME"),
		Email:        os.Getenv("AK_EMAIL"),
		Editor:       os.Getenv("EDITOR"),
		BackupBucket: os.Getenv("AK_BACKUP_BUCKET"),
		BackupPrefix: os.Getenv("AK_BACKUP_PREFIX"),
	}
	if cfg.Editor == "" {
		cfg.Editor = "vi"
	}
	if cfg.Username == "" {
		return cfg, ErrMissingUsername
	}
	return cfg, nil
}
