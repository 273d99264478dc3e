// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

/*
Package metrics provides Prometheus instrumentation for the discovery core.

The package exposes metrics for:
  - Vector index search latency and throughput, per backend
  - Index size and rebuild signals
  - Ranking pipeline latency and request counts

Metrics are registered with the default Prometheus registry via promauto.
Embedding this library in a server makes them available on the host
application's /metrics endpoint without further wiring.
*/
package metrics
