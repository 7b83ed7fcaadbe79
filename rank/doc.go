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


// Package rank is the retrieval-and-ranking engine: it turns a query string
// plus structural filters into a scored, ordered set of entries.
//
// Two interchangeable strategies score entries:
//   - lexical: substring/word-overlap heuristics with title, summary,
//     source, and recency boosts; zero-score entries are dropped
//   - vector: cosine similarity against cached embeddings; every candidate
//     is kept, ranked by similarity
//
// Strategy selection degrades deterministically: any failure of the vector
// path (provider outage, missing key, malformed response, dimension
// mismatch) routes the request to the lexical scorer and marks the result
// degraded. The fallback is per request; nothing latches.
package rank
