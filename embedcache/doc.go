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


// Package embedcache maintains the per-entry embedding map used by the
// vector strategy. The map is loaded wholesale from a persisted JSON
// document, or lazily computed in batches against the embedding provider and
// persisted once complete. A missing embedding is not an error; the entry
// scores 0 under vector search.
package embedcache
