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


// Package graph defines the contract with the external graph loader
// service that ingests episodes into a knowledge-graph store.
//
// The store itself (entity extraction, embedding, search) is an opaque
// collaborator; this package only describes the loading boundary. Concrete
// clients live in subpackages:
//
//   - graph/rest: HTTP client for a graph loader service
//   - graph/mock: test double with call recording
//
// Bulk loading is an optional capability. A client that can submit a whole
// document's episodes in one call implements BulkLoader; callers decide the
// capability once at construction via a type assertion, never per call.
package graph
