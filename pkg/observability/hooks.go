// Package observability provides hooks for metrics and tracing.
//
// Libraries in this module emit events through the hooks registered here and
// never import a metrics backend directly. The server registers Prometheus
// implementations at startup; everything else sees no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLockHooks(&myLockHooks{})
//	    observability.SetNodeTreeHooks(&myNodeTreeHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	// ... import ...
//	observability.NodeTree().OnImport(ctx, created, deleted, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Lock Hooks
// =============================================================================

// LockHooks receives events from the FIFO synchronization lock.
type LockHooks interface {
	// OnAcquire records a granted acquisition and how long it waited.
	// queued is false when the lock was taken on the fast path.
	OnAcquire(wait time.Duration, queued bool)

	// OnRelease records how long the lock was held.
	OnRelease(held time.Duration)
}

// =============================================================================
// NodeTree Hooks
// =============================================================================

// NodeTreeHooks receives events from nodetree export and import.
type NodeTreeHooks interface {
	// OnExport records a completed export.
	OnExport(ctx context.Context, nodeCount int, duration time.Duration)

	// OnImport records a finished import. err is non-nil when the import
	// stopped early; nodes reconciled before the failure remain applied.
	OnImport(ctx context.Context, created, deleted int, duration time.Duration, err error)

	// OnSettingsFallback records a node whose settings fell back to defaults.
	OnSettingsFallback(ctx context.Context, nodeType string)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the execution cycle.
type PipelineHooks interface {
	// OnCycle records one execution cycle.
	OnCycle(ctx context.Context, nodeCount, failed int, duration time.Duration)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the persistence store.
type StoreHooks interface {
	// OnLoad records a document load. kind is "nodetree" or "preferences".
	// fromCache reports whether the backend was consulted.
	OnLoad(kind string, fromCache bool, err error)

	// OnSave records a document write.
	OnSave(kind string, size int, err error)

	// OnProfileSwitch records a change of active profile.
	OnProfileSwitch(from, to int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLockHooks is a no-op implementation of LockHooks.
type NoopLockHooks struct{}

func (NoopLockHooks) OnAcquire(time.Duration, bool) {}
func (NoopLockHooks) OnRelease(time.Duration)       {}

// NoopNodeTreeHooks is a no-op implementation of NodeTreeHooks.
type NoopNodeTreeHooks struct{}

func (NoopNodeTreeHooks) OnExport(context.Context, int, time.Duration)             {}
func (NoopNodeTreeHooks) OnImport(context.Context, int, int, time.Duration, error) {}
func (NoopNodeTreeHooks) OnSettingsFallback(context.Context, string)               {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCycle(context.Context, int, int, time.Duration) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(string, bool, error) {}
func (NoopStoreHooks) OnSave(string, int, error)  {}
func (NoopStoreHooks) OnProfileSwitch(int, int)   {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	lockHooks     LockHooks     = NoopLockHooks{}
	nodeTreeHooks NodeTreeHooks = NoopNodeTreeHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetLockHooks registers custom lock hooks.
// This should be called once at application startup.
func SetLockHooks(h LockHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		lockHooks = h
	}
}

// SetNodeTreeHooks registers custom nodetree hooks.
func SetNodeTreeHooks(h NodeTreeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		nodeTreeHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Lock returns the registered lock hooks.
func Lock() LockHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return lockHooks
}

// NodeTree returns the registered nodetree hooks.
func NodeTree() NodeTreeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return nodeTreeHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	lockHooks = NoopLockHooks{}
	nodeTreeHooks = NoopNodeTreeHooks{}
	pipelineHooks = NoopPipelineHooks{}
	storeHooks = NoopStoreHooks{}
}
