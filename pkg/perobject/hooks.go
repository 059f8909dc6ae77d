package perobject

import "log/slog"

// Hooks let callers observe storage lifecycle without touching the core.
// Hooks run synchronously on the caller's thread, in registration order.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	AfterStorageCreate   []AfterStorageCreateHook
	BeforeStorageDestroy []BeforeStorageDestroyHook

	AfterClone []AfterCloneHook

	AfterSave []AfterSaveHook
	AfterLoad []AfterLoadHook

	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Metadata  map[string]any // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext() *HookContext {
	return &HookContext{
		Metadata: make(map[string]any),
	}
}

// AfterStorageCreateHook is called after the registry creates storage
type AfterStorageCreateHook func(hctx *HookContext, storage *ObjectStorage)

// BeforeStorageDestroyHook is called while the storage still holds its entries
type BeforeStorageDestroyHook func(hctx *HookContext, storage *ObjectStorage)

// AfterCloneHook is called after persistent entries moved from src to dst
type AfterCloneHook func(hctx *HookContext, dst, src ObjectID, copied int)

// AfterSaveHook is called after a blob was written to a save container
type AfterSaveHook func(hctx *HookContext, id ObjectID, blob string)

// AfterLoadHook is called after a blob was read back into storage
type AfterLoadHook func(hctx *HookContext, id ObjectID, loaded int)

// ErrorHook is called when a lifecycle operation absorbs an error
type ErrorHook func(hctx *HookContext, operation string, err error)

// Merge appends other's hooks after h's.
func (h *Hooks) Merge(other *Hooks) {
	if other == nil {
		return
	}
	h.AfterStorageCreate = append(h.AfterStorageCreate, other.AfterStorageCreate...)
	h.BeforeStorageDestroy = append(h.BeforeStorageDestroy, other.BeforeStorageDestroy...)
	h.AfterClone = append(h.AfterClone, other.AfterClone...)
	h.AfterSave = append(h.AfterSave, other.AfterSave...)
	h.AfterLoad = append(h.AfterLoad, other.AfterLoad...)
	h.OnError = append(h.OnError, other.OnError...)
}

// Hook execution helpers. All of them accept a nil receiver.

func (h *Hooks) executeAfterStorageCreate(storage *ObjectStorage) {
	if h == nil || len(h.AfterStorageCreate) == 0 {
		return
	}

	hctx := NewHookContext()
	for _, hook := range h.AfterStorageCreate {
		hook(hctx, storage)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeBeforeStorageDestroy(storage *ObjectStorage) {
	if h == nil || len(h.BeforeStorageDestroy) == 0 {
		return
	}

	hctx := NewHookContext()
	for _, hook := range h.BeforeStorageDestroy {
		hook(hctx, storage)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterClone(dst, src ObjectID, copied int) {
	if h == nil || len(h.AfterClone) == 0 {
		return
	}

	hctx := NewHookContext()
	for _, hook := range h.AfterClone {
		hook(hctx, dst, src, copied)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterSave(id ObjectID, blob string) {
	if h == nil || len(h.AfterSave) == 0 {
		return
	}

	hctx := NewHookContext()
	for _, hook := range h.AfterSave {
		hook(hctx, id, blob)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterLoad(id ObjectID, loaded int) {
	if h == nil || len(h.AfterLoad) == 0 {
		return
	}

	hctx := NewHookContext()
	for _, hook := range h.AfterLoad {
		hook(hctx, id, loaded)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeOnError(operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext()
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// Common hook implementations

// LoggingHooks logs storage lifecycle at debug level and absorbed errors at
// warn level.
func LoggingHooks(logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{
		AfterStorageCreate: []AfterStorageCreateHook{
			func(hctx *HookContext, storage *ObjectStorage) {
				logger.Debug("object storage created", "object_id", storage.Owner())
			},
		},
		BeforeStorageDestroy: []BeforeStorageDestroyHook{
			func(hctx *HookContext, storage *ObjectStorage) {
				logger.Debug("object storage destroyed", "object_id", storage.Owner(), "entries", storage.Len())
			},
		},
		AfterClone: []AfterCloneHook{
			func(hctx *HookContext, dst, src ObjectID, copied int) {
				logger.Debug("object storage cloned", "dst", dst, "src", src, "copied", copied)
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				logger.Warn("object storage error absorbed", "operation", operation, "error", err)
			},
		},
	}
}

// MetricsHook tracks metrics
func MetricsHook(metrics interface {
	IncrementCounter(name string)
	RecordValue(name string, value int64)
}) *Hooks {
	return &Hooks{
		AfterStorageCreate: []AfterStorageCreateHook{
			func(hctx *HookContext, storage *ObjectStorage) {
				metrics.IncrementCounter("storage.created")
			},
		},
		BeforeStorageDestroy: []BeforeStorageDestroyHook{
			func(hctx *HookContext, storage *ObjectStorage) {
				metrics.IncrementCounter("storage.destroyed")
			},
		},
		AfterClone: []AfterCloneHook{
			func(hctx *HookContext, dst, src ObjectID, copied int) {
				metrics.IncrementCounter("storage.cloned")
				metrics.RecordValue("clone.entries", int64(copied))
			},
		},
		AfterSave: []AfterSaveHook{
			func(hctx *HookContext, id ObjectID, blob string) {
				metrics.IncrementCounter("storage.saved")
				metrics.RecordValue("save.bytes", int64(len(blob)))
			},
		},
		AfterLoad: []AfterLoadHook{
			func(hctx *HookContext, id ObjectID, loaded int) {
				metrics.IncrementCounter("storage.loaded")
				metrics.RecordValue("load.entries", int64(loaded))
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				metrics.IncrementCounter("storage.errors")
			},
		},
	}
}
