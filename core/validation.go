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

import "fmt"

// ValidateEntry validates an Entry according to domain rules.
//
// Validation rules:
//   - ID must be positive
//   - Title must not be empty
//
// NOT validated (optional by design):
//   - Summary, Category, Source, Tags, URL (may be empty)
//   - Date (absent dates are legal; unparseable dates simply earn no
//     recency boost and pass every date filter)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.ID <= 0 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidEntry, ErrInvalidID, entry.ID)
	}

	if entry.Title == "" {
		return fmt.Errorf("%w: %w (id %d)", ErrInvalidEntry, ErrEmptyTitle, entry.ID)
	}

	return nil
}

// ValidateSnapshot validates every entry in a snapshot and checks ID
// uniqueness. Entries are validated in order so the first malformed record
// is reported.
func ValidateSnapshot(entries []Entry) error {
	seen := make(map[int]bool, len(entries))
	for i := range entries {
		if err := ValidateEntry(&entries[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[entries[i].ID] {
			return fmt.Errorf("entry %d: %w: %w (id %d)", i, ErrInvalidEntry, ErrDuplicateID, entries[i].ID)
		}
		seen[entries[i].ID] = true
	}
	return nil
}
