// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cpg

import "errors"

// Sentinel errors for the CPG service.
var (
	// ErrGraphNotFound indicates no graph is loaded under the given ID.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrGraphExpired indicates the cached graph passed its TTL.
	ErrGraphExpired = errors.New("graph expired")
)
