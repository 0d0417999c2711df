/*
 * Copyright 2026 The RuleGo Authors.
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

// Package pool provides the worker pool native permission predicates run on.
//
// Package pool 提供运行本地权限判定函数的工作池。
//
// Note: This file is inspired by:
// Valyala, A. (2023) workerpool.go (Version 1.48.0)
// [Source code]. https://github.com/valyala/fasthttp/blob/master/workerpool.go
// 1.Change the Serve(c net.Conn) method to Submit(fn func()) error method
// 2.Recover panics raised by submitted functions
package pool

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// ErrNoIdleWorkers is returned by Submit when MaxWorkersCount workers are busy.
// ErrNoIdleWorkers 所有工作者繁忙时 Submit 返回该错误
var ErrNoIdleWorkers = errors.New("no idle workers")

// WorkerPool serves incoming functions using a pool of workers in FILO order.
// The most recently stopped worker will serve the next incoming function.
//
// WorkerPool 使用工作池以 FILO 顺序处理传入函数。
// 最近停止的工作者将处理下一个传入函数。
//
//	pool := &WorkerPool{MaxWorkersCount: 100}
//	pool.Start()
//	defer pool.Stop()
//	err := pool.Submit(func() {})
type WorkerPool struct {
	// MaxWorkersCount is the maximum number of workers that can be created.
	MaxWorkersCount int

	// MaxIdleWorkerDuration is the maximum duration a worker can remain idle
	// before being cleaned up. Default is 10 seconds.
	MaxIdleWorkerDuration time.Duration

	// PanicHandler receives the value of a panic raised by a submitted function.
	// The worker survives the panic.
	PanicHandler func(v interface{})

	lock         sync.Mutex
	workersCount int
	mustStop     bool

	ready []*workerChan

	stopCh chan struct{}

	workerChanPool sync.Pool
	startOnce      sync.Once
}

type workerChan struct {
	lastUseTime time.Time
	ch          chan func()
}

// Start starts the cleanup goroutine. It is safe to call Start more than once.
func (wp *WorkerPool) Start() {
	if wp.stopCh != nil {
		return
	}
	wp.startOnce.Do(func() {
		wp.stopCh = make(chan struct{})
		stopCh := wp.stopCh
		wp.workerChanPool.New = func() interface{} {
			return &workerChan{
				ch: make(chan func(), workerChanCap),
			}
		}
		go func() {
			var scratch []*workerChan
			for {
				wp.clean(&scratch)
				select {
				case <-stopCh:
					return
				case <-time.After(wp.getMaxIdleWorkerDuration()):
				}
			}
		}()
	})
}

// Stop stops the cleanup goroutine and terminates the idle workers.
func (wp *WorkerPool) Stop() {
	if wp.stopCh == nil {
		return
	}

	close(wp.stopCh)
	wp.stopCh = nil

	wp.lock.Lock()
	ready := wp.ready
	for i := range ready {
		ready[i].ch <- nil
		ready[i] = nil
	}
	wp.ready = ready[:0]
	wp.mustStop = true
	wp.lock.Unlock()
}

// Release implements types.Pool.
func (wp *WorkerPool) Release() {
	wp.Stop()
}

func (wp *WorkerPool) getMaxIdleWorkerDuration() time.Duration {
	if wp.MaxIdleWorkerDuration <= 0 {
		return 10 * time.Second
	}
	return wp.MaxIdleWorkerDuration
}

// clean terminates the workers idle for longer than MaxIdleWorkerDuration.
// ready is sorted by lastUseTime, so a binary search finds the cut.
func (wp *WorkerPool) clean(scratch *[]*workerChan) {
	criticalTime := time.Now().Add(-wp.getMaxIdleWorkerDuration())

	wp.lock.Lock()
	ready := wp.ready
	n := len(ready)

	l, r := 0, n-1
	for l <= r {
		mid := (l + r) / 2
		if criticalTime.After(wp.ready[mid].lastUseTime) {
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	i := r
	if i == -1 {
		wp.lock.Unlock()
		return
	}

	*scratch = append((*scratch)[:0], ready[:i+1]...)
	m := copy(ready, ready[i+1:])
	for i = m; i < n; i++ {
		ready[i] = nil
	}
	wp.ready = ready[:m]
	wp.lock.Unlock()

	tmp := *scratch
	for i := range tmp {
		tmp[i].ch <- nil
		tmp[i] = nil
	}
}

// Submit hands fn to an idle worker, creating one if the limit allows.
func (wp *WorkerPool) Submit(fn func()) error {
	ch := wp.getCh()
	if ch == nil {
		return ErrNoIdleWorkers
	}
	ch.ch <- fn
	return nil
}

var workerChanCap = func() int {
	// Use blocking workerChan if GOMAXPROCS=1.
	// This immediately switches Submit to workerFunc, which results
	// in higher performance.
	if runtime.GOMAXPROCS(0) == 1 {
		return 0
	}

	// Use non-blocking workerChan if GOMAXPROCS>1,
	// since otherwise the Submit caller (Acceptor) may lag accepting
	// new tasks if workerFunc is CPU-bound.
	return 1
}()

func (wp *WorkerPool) getCh() *workerChan {
	var ch *workerChan
	createWorker := false

	wp.lock.Lock()
	ready := wp.ready
	n := len(ready) - 1
	if n < 0 {
		if wp.workersCount < wp.MaxWorkersCount {
			createWorker = true
			wp.workersCount++
		}
	} else {
		ch = ready[n]
		ready[n] = nil
		wp.ready = ready[:n]
	}
	wp.lock.Unlock()

	if ch == nil {
		if !createWorker {
			return nil
		}
		if wp.workerChanPool.New == nil {
			wp.workerChanPool.New = func() interface{} {
				return &workerChan{ch: make(chan func(), workerChanCap)}
			}
		}
		vch := wp.workerChanPool.Get()
		ch = vch.(*workerChan)
		go func() {
			wp.workerFunc(ch)
			wp.workerChanPool.Put(vch)
		}()
	}
	return ch
}

func (wp *WorkerPool) release(ch *workerChan) bool {
	ch.lastUseTime = time.Now()

	wp.lock.Lock()
	if wp.mustStop {
		wp.lock.Unlock()
		return false
	}
	wp.ready = append(wp.ready, ch)
	wp.lock.Unlock()
	return true
}

func (wp *WorkerPool) workerFunc(ch *workerChan) {
	var fn func()
	for fn = range ch.ch {
		if fn == nil {
			break
		}

		wp.run(fn)
		fn = nil

		if !wp.release(ch) {
			break
		}
	}

	wp.lock.Lock()
	wp.workersCount--
	wp.lock.Unlock()
}

func (wp *WorkerPool) run(fn func()) {
	defer func() {
		if v := recover(); v != nil && wp.PanicHandler != nil {
			wp.PanicHandler(v)
		}
	}()
	fn()
}
