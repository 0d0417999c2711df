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

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"

	"github.com/rulego/filterengine/utils/js"
)

const (
	// InitEvent is fired once by the scripts when the engine finished loading.
	InitEvent = "_init"
	// PreconfiguredPrefsKey is the global the preconfigured preferences are published under.
	PreconfiguredPrefsKey = "_preconfiguredPrefs"
)

var (
	// ErrNilCallback is returned when a required callback is missing.
	ErrNilCallback = errors.New("callback is nil")
	// ErrCreationCanceled is returned by Create when its context ends first.
	ErrCreationCanceled = errors.New("filter engine creation canceled")
)

// CreationParameters configure CreateAsync.
type CreationParameters struct {
	// PreconfiguredPrefs are published to the scripts before they load.
	PreconfiguredPrefs PreconfiguredPrefs
	// IsSubscriptionDownloadAllowedCallback is asked before each subscription
	// download. nil allows every download.
	IsSubscriptionDownloadAllowedCallback IsConnectionAllowedCallback
}

// OnCreatedCallback receives the created engine. It runs on the script event loop.
type OnCreatedCallback func(filterEngine *DefaultFilterEngine)

// CreationState the state of a creation.
type CreationState int32

const (
	// Configuring the synchronous setup phase.
	Configuring CreationState = iota
	// AwaitingCompletion scripts are loaded, waiting for the _init event.
	AwaitingCompletion
	// Completed the engine was handed to the OnCreatedCallback.
	Completed
	// Canceled the creation was canceled or its setup failed.
	Canceled
)

func (s CreationState) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case AwaitingCompletion:
		return "awaiting_completion"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("CreationState(%d)", int32(s))
	}
}

// pendingEngine owns the engine under construction until it is taken, once.
type pendingEngine struct {
	mu     sync.Mutex
	engine *DefaultFilterEngine
}

func (p *pendingEngine) take() (*DefaultFilterEngine, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	engine := p.engine
	p.engine = nil
	return engine, engine != nil
}

// Creation tracks one CreateAsync call.
type Creation struct {
	// Id correlates the log lines of the creation.
	Id       string
	jsEngine JsEngine
	pending  *pendingEngine
	state    atomic.Int32
	done     chan struct{}
	doneOnce sync.Once
}

// State returns the current state.
func (c *Creation) State() CreationState {
	return CreationState(c.state.Load())
}

// Done is closed once the creation is completed or canceled.
func (c *Creation) Done() <-chan struct{} {
	return c.done
}

// Cancel abandons a creation still waiting for the _init event. The event
// callbacks are removed and the pending engine is dropped. It returns false
// if the engine was already handed over.
func (c *Creation) Cancel() bool {
	filterEngine, ok := c.pending.take()
	if !ok {
		return false
	}
	c.jsEngine.RemoveEventCallback(InitEvent)
	c.jsEngine.RemoveEventCallback(IsSubscriptionDownloadAllowedEvent)
	filterEngine.Stop()
	c.state.Store(int32(Canceled))
	c.finish()
	return true
}

func (c *Creation) finish() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// CreateAsync creates a filter engine on jsEngine. It registers the event
// callbacks, publishes params.PreconfiguredPrefs as _preconfiguredPrefs and
// evaluates the configured script files in order, all while holding the script
// context so no timer or event runs in between. It returns once the scripts are
// loaded; onCreated is called later on the script event loop, when the scripts
// fire _init. There is no timeout, see Create for a bounded wait.
//
// A setup failure (closed engine, script evaluation error) is returned and
// leaves no callback registered.
func CreateAsync(jsEngine JsEngine, evaluate js.EvaluateCallback, onCreated OnCreatedCallback, params CreationParameters) (*Creation, error) {
	if evaluate == nil || onCreated == nil {
		return nil, fmt.Errorf("create filter engine: %w", ErrNilCallback)
	}
	logger := jsEngine.Config().Logger
	id, _ := uuid.NewV4()
	filterEngine := NewDefaultFilterEngine(jsEngine)
	creation := &Creation{
		Id:       id.String(),
		jsEngine: jsEngine,
		pending:  &pendingEngine{engine: filterEngine},
		done:     make(chan struct{}),
	}

	registerSubscriptionDownloadAllowedCallback(jsEngine, params.IsSubscriptionDownloadAllowedCallback)

	jsEngine.SetEventCallback(InitEvent, func(js.JsValueList) {
		createdEngine, ok := creation.pending.take()
		if !ok {
			return
		}
		creation.state.Store(int32(Completed))
		defer creation.finish()
		defer jsEngine.RemoveEventCallback(InitEvent)
		logf(logger, "filter engine %s created", creation.Id)
		onCreated(createdEngine)
	})

	filterEngine.StartObservingEvents()

	if err := creation.setup(evaluate, params.PreconfiguredPrefs); err != nil {
		creation.Cancel()
		return nil, fmt.Errorf("create filter engine %s: %w", creation.Id, err)
	}
	creation.state.CompareAndSwap(int32(Configuring), int32(AwaitingCompletion))
	return creation, nil
}

// setup runs the synchronous phase inside the script critical section.
func (c *Creation) setup(evaluate js.EvaluateCallback, prefs PreconfiguredPrefs) error {
	ctx, err := c.jsEngine.Lock()
	if err != nil {
		return err
	}
	defer ctx.Close()

	prefsObject := ctx.NewObject()
	for key, value := range prefs.Keys() {
		if err := prefsObject.SetProperty(key, value); err != nil {
			return err
		}
	}
	if err := ctx.SetGlobalProperty(PreconfiguredPrefsKey, prefsObject); err != nil {
		return err
	}

	// Load order matters, later scripts use globals of earlier ones.
	for _, filename := range c.jsEngine.Config().ScriptFileNames() {
		if err := evaluate(ctx, filename); err != nil {
			return err
		}
	}
	return nil
}

// Create is CreateAsync waiting for the created engine until ctx ends, in
// which case the creation is canceled. It must not be called on the script
// event loop.
func Create(ctx context.Context, jsEngine JsEngine, evaluate js.EvaluateCallback, params CreationParameters) (*DefaultFilterEngine, error) {
	created := make(chan *DefaultFilterEngine, 1)
	creation, err := CreateAsync(jsEngine, evaluate, func(filterEngine *DefaultFilterEngine) {
		created <- filterEngine
	}, params)
	if err != nil {
		return nil, err
	}
	select {
	case filterEngine := <-created:
		return filterEngine, nil
	case <-ctx.Done():
		if creation.Cancel() {
			return nil, fmt.Errorf("%w: %w", ErrCreationCanceled, ctx.Err())
		}
		// handed over concurrently
		return <-created, nil
	}
}
