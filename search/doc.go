// Copyright 2025 Poiesic Systems
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


// Package search orchestrates hybrid keyword and vector search.
//
// A Searcher embeds the query text once, then issues exactly one request to
// the index carrying both the text and the vector. The index fuses the two
// signals; the caller-facing semantic weight w is sent as the index-native
// ratio 1 - w. Hits come back in index order and are never re-ranked here.
//
// Failures never escape as errors: an invalid query, a failed embedding or a
// failed index call all yield an empty result with ok == false. There is no
// keyword-only fallback when embedding fails.
package search
