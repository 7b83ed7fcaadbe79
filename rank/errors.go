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


package rank

import (
	"errors"
	"fmt"

	"github.com/arclight-labs/kbase/core"
)

var (
	// ErrStoreRequired is returned when an entry store is not provided.
	ErrStoreRequired = errors.New("entry store required")

	// ErrEmptyQuery is returned for blank queries before any entry or
	// provider access happens.
	ErrEmptyQuery = fmt.Errorf("%w: query must not be empty", core.ErrValidation)

	// ErrDimensionMismatch indicates a cached embedding does not share the
	// query embedding's dimensionality. This is a hard error of the vector
	// path, never a silent zero score.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", core.ErrProvider)
)
