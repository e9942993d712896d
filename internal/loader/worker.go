// Copyright 2026 Esteban Alvarez. All Rights Reserved.
//
// Created: August 2026
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

package loader

import (
	"context"
	"sync"

	"memcload/internal/appsinstalled"
	"memcload/internal/store"
)

// Counters is one worker's local tally. Each worker accumulates its own
// value for its whole lifetime and emits it exactly once on the results
// channel when it terminates; the loader sums the emissions, so the totals
// are correct under any interleaving.
type Counters struct {
	Processed int
	Errors    int
}

// workItem is one record's pending write, bound to its shard. It is owned
// by the job channel from enqueue until a worker receives it and is not
// retained after the write attempt.
type workItem struct {
	pool *store.Pool
	addr string
	rec  appsinstalled.Record
}

// runWorkers starts n workers draining jobs. Workers run until the jobs
// channel is closed and drained — the producer closing the channel is the
// only termination signal, so a briefly idle queue can never shut a worker
// down early. Each worker sends its Counters on results exactly once on
// exit. The returned WaitGroup is done when every worker has exited.
func runWorkers(ctx context.Context, n int, w *Writer, jobs <-chan workItem, results chan<- Counters) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var tally Counters
			for item := range jobs {
				if w.Insert(ctx, item.pool, item.addr, item.rec) {
					tally.Processed++
				} else {
					tally.Errors++
				}
			}
			results <- tally
		}()
	}
	return &wg
}
