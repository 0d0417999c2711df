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

// Package runtime provides stack traces for panic reports and the goroutine
// identity the script event loop uses to detect reentrant locking.
package runtime

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Stack 获取堆栈信息
// Stack returns the caller's stack, one "file:line" per frame, skipping Stack and its caller.
func Stack() string {
	var pc = make([]uintptr, 20)
	n := runtime.Callers(3, pc)

	var build strings.Builder
	for i := 0; i < n; i++ {
		f := runtime.FuncForPC(pc[i] - 1)
		if f == nil {
			continue
		}
		file, line := f.FileLine(pc[i] - 1)
		s := fmt.Sprintf(" %s:%d \n", file, line)
		build.WriteString(s)
	}
	return build.String()
}

var goroutinePrefix = []byte("goroutine ")

// GoroutineID 获取当前协程ID
// GoroutineID returns the id of the calling goroutine, parsed from the
// "goroutine N [status]:" header of its stack. It returns 0 if the header
// cannot be parsed.
func GoroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
