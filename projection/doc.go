// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package projection builds paged poll listings and moderator, admin and
// voter statistics. It never writes.
package projection
