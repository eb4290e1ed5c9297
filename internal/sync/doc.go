// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

/*
Package sync contains the attendance synchronization pipeline: fetching raw
punch records from terminal server APIs, normalizing them into canonical
checkin events, and coordinating cycles across the server fleet.

Key Components:

  - TerminalClient: HTTP client for BioTime-style vendor APIs with rate
    limiting and HTTP 429 backoff
  - BreakerFetcher: per-server circuit breaker around the client
  - Normalizer: validates one raw record into an event or a reasoned skip
  - ClassifyLogType: maps raw status strings to IN/OUT
  - Orchestrator: runs one cycle (fetch, normalize, dedup, persist,
    checkpoint) against injected stores
  - Fleet: fans cycles out across servers with failure isolation and
    at-most-one in-flight cycle per server
  - Manager: periodic schedule driver and manual import surface

Pipeline for one server cycle:

 1. Fetch: POST the window [start, end) to the vendor API
 2. Normalize: resolve field bindings, parse time, classify direction,
    resolve the employee; failures become per-record skips
 3. Dedup: drop events whose (employee, punch time) is already persisted
 4. Persist: insert checkins, then the run summary when create_logs is set
 5. Checkpoint: advance last_successful_sync to the window end

A skip is routine data, never an error; a fetch or store failure aborts the
cycle before the checkpoint moves so the next window re-covers it. Other
servers' cycles are unaffected either way.
*/
package sync
