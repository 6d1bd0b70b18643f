// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to the log.levels config keys.
// These ensure consistent logger names across the codebase

// GetAdapterLogger returns a logger for the log store adapters
func GetAdapterLogger() zerolog.Logger {
	return GetLogger("adapters")
}

// GetAggregateLogger returns a logger for merging and digest building
func GetAggregateLogger() zerolog.Logger {
	return GetLogger("aggregate")
}

// GetCLILogger returns a logger for command handling
func GetCLILogger() zerolog.Logger {
	return GetLogger("cli")
}

// GetServerLogger returns a logger for the HTTP summary endpoint
func GetServerLogger() zerolog.Logger {
	return GetLogger("server")
}
