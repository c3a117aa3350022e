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


// Package ingest implements the resilient episode loading pipeline.
//
// An EpisodeLoader drives one document at a time through a fixed sequence:
// a synthetic metadata episode, an optional bulk submission of every
// segment, and a sequential per-segment fallback. Every graph loader call
// is gated by the shared Context (a counting admission gate) and wrapped by
// the classification-driven Retry policy. Failures are contained at segment
// granularity: they are appended to a durable per-document ledger by the
// Recorder and the loader moves on, pausing only when consecutive failures
// trip the circuit breaker.
//
// Delivery to the graph loader is at-least-once. Episode names are
// deterministic per (document, segment), so redelivery is idempotent at the
// loader boundary, and the failure ledger is the authoritative list of
// segments that still need a redo.
package ingest
