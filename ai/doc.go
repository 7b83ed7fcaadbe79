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


// Package ai defines the provider interfaces the retrieval engine depends on:
// text embedding for vector search and text generation for narration.
//
// Concrete implementations live in subpackages (openai for OpenAI-compatible
// services, mock for tests). The engine only ever sees these interfaces, so
// every outbound call is swappable and fallible without touching ranking
// logic.
package ai
