// Copyright 2025 Arclight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Error taxonomy. Every error surfaced by the engine wraps exactly one of
// these sentinels so callers can classify failures with errors.Is.
var (
	// ErrLoad indicates the snapshot source is missing or corrupt.
	// Fatal: propagated to the caller, never retried.
	ErrLoad = errors.New("load failed")

	// ErrProvider indicates an external embedding or generation call failed,
	// timed out, or returned malformed data. Recoverable via fallback.
	ErrProvider = errors.New("provider failed")

	// ErrValidation indicates bad caller input (empty query, malformed
	// filter). Surfaced immediately, search never attempted.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration indicates a remote strategy was requested with no
	// provider configured. Treated like ErrProvider: routes to local.
	ErrConfiguration = errors.New("configuration incomplete")
)

// Entry validation errors, wrapped under ErrLoad at the parse boundary.
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidID indicates a non-positive entry ID.
	ErrInvalidID = errors.New("entry id must be positive")

	// ErrDuplicateID indicates two entries in one snapshot share an ID.
	ErrDuplicateID = errors.New("duplicate entry id")
)
