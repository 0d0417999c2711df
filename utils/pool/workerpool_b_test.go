/*
 * Copyright 2023 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pool

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
)

const runTimes = 10000

func task(wg *sync.WaitGroup, sum *int64) {
	defer wg.Done()
	for i := 0; i < 100; i++ {
		atomic.AddInt64(sum, 1)
	}
}

func BenchmarkGoroutine(b *testing.B) {
	var sum int64
	for n := 0; n < b.N; n++ {
		var wg sync.WaitGroup
		wg.Add(runTimes)
		for i := 0; i < runTimes; i++ {
			go task(&wg, &sum)
		}
		wg.Wait()
	}
}

func BenchmarkWorkerPool(b *testing.B) {
	wp := &WorkerPool{MaxWorkersCount: math.MaxInt32}
	wp.Start()
	defer wp.Stop()
	var sum int64
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		var wg sync.WaitGroup
		wg.Add(runTimes)
		for i := 0; i < runTimes; i++ {
			if err := wp.Submit(func() { task(&wg, &sum) }); err != nil {
				wg.Done()
			}
		}
		wg.Wait()
	}
}
