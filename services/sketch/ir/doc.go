// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ir defines the API-usage intermediate representation and the
// bounded path enumerator over it.
//
// An IR is a Forest of Nodes. A Node is one of Call, Branch, Loop or
// TryBlock. Enumerate flattens a Forest into the linear call Sequences it
// implies, failing with a *BoundError rather than truncating when the
// configured caps are exceeded.
//
// Everything in this package is immutable and free of global state, so
// forests and sequences may be shared between goroutines.
package ir
