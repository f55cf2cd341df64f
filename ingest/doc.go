// Copyright 2025 stophobia
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

// Package ingest loads files and URLs into project indexes.
//
// Sources are resolved through a loader registry keyed by file extension or
// URL fetch strategy. Loaded text is split with a recursive character
// splitter, enriched with extracted keywords, and written to the index as a
// single atomic batch, so a failed ingestion never leaves partial chunks
// behind. Re-ingesting an existing source is rejected; delete it first.
package ingest
