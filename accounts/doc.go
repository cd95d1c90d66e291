// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package accounts handles the voter whitelist, voter self-registration
// and staff account creation.
package accounts
