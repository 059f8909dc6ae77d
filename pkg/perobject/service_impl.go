package perobject

import (
	"log/slog"
)

// service implements the Service interface
type service struct {
	registry  *Registry
	hooks     *Hooks
	archive   Archive
	fieldName string
	logger    *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRegistry sets the registry for the service
func WithRegistry(reg *Registry) Option {
	return func(s *service) {
		s.registry = reg
	}
}

// WithHooks adds lifecycle hooks
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		if hooks == nil {
			return
		}
		if s.hooks == nil {
			s.hooks = &Hooks{}
		}
		s.hooks.Merge(hooks)
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArchive sets the snapshot archive
func WithArchive(archive Archive) Option {
	return func(s *service) {
		s.archive = archive
	}
}

// WithFieldName sets the save-container field used by bridges built from
// the service
func WithFieldName(name string) Option {
	return func(s *service) {
		if name != "" {
			s.fieldName = name
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		fieldName: FieldName,
		logger:    slog.Default(),
	}

	for _, option := range options {
		if option != nil {
			option(s)
		}
	}

	if s.registry == nil {
		s.registry = NewRegistry(WithRegistryLogger(s.logger), WithRegistryHooks(s.hooks))
	} else {
		s.registry.hooks.Merge(s.hooks)
	}

	return s, nil
}

// Attribute operations

func (s *service) storage(id ObjectID) (*ObjectStorage, bool) {
	if !id.Valid() {
		return nil, false
	}
	return s.registry.GetOrCreate(id), true
}

func (s *service) SetInt(id ObjectID, key string, value int32, persist bool) {
	if st, ok := s.storage(id); ok {
		st.attrs.SetInt(key, value, persist)
	}
}

func (s *service) SetFloat(id ObjectID, key string, value float32, persist bool) {
	if st, ok := s.storage(id); ok {
		st.attrs.SetFloat(key, value, persist)
	}
}

func (s *service) SetString(id ObjectID, key string, value string, persist bool) {
	if st, ok := s.storage(id); ok {
		st.attrs.SetString(key, value, persist)
	}
}

func (s *service) SetPointer(id ObjectID, key string, value any, cleanup CleanupFunc) {
	if st, ok := s.storage(id); ok {
		st.attrs.SetPointer(key, value, cleanup)
	}
}

func (s *service) GetInt(id ObjectID, key string) (int32, bool) {
	st, ok := s.storage(id)
	if !ok {
		return 0, false
	}
	e, ok := st.attrs.GetInt(key)
	return e.Value, ok
}

func (s *service) GetFloat(id ObjectID, key string) (float32, bool) {
	st, ok := s.storage(id)
	if !ok {
		return 0, false
	}
	e, ok := st.attrs.GetFloat(key)
	return e.Value, ok
}

func (s *service) GetString(id ObjectID, key string) (string, bool) {
	st, ok := s.storage(id)
	if !ok {
		return "", false
	}
	e, ok := st.attrs.GetString(key)
	return e.Value, ok
}

func (s *service) GetPointer(id ObjectID, key string) (any, bool) {
	st, ok := s.storage(id)
	if !ok {
		return nil, false
	}
	e, ok := st.attrs.GetPointer(key)
	return e.Value, ok
}

func (s *service) Remove(id ObjectID, key string) {
	if !id.Valid() {
		return
	}
	st, ok := s.registry.Lookup(id)
	if !ok {
		return
	}
	st.attrs.Remove(KindInt, key)
	st.attrs.Remove(KindFloat, key)
	st.attrs.Remove(KindString, key)
	st.attrs.ReleasePointer(key)
}

func (s *service) DetachPointer(id ObjectID, key string) (any, bool) {
	if !id.Valid() {
		return nil, false
	}
	st, ok := s.registry.Lookup(id)
	if !ok {
		return nil, false
	}
	return st.attrs.TakePointer(key)
}

// Introspection

func (s *service) Dump(id ObjectID) string {
	if st, ok := s.registry.Lookup(id); ok {
		return st.DumpToString()
	}
	return NewObjectStorage(id).DumpToString()
}

func (s *service) Objects() []ObjectID {
	return s.registry.Objects()
}

func (s *service) Registry() *Registry {
	return s.registry
}

func (s *service) Bridge(native Native) *Bridge {
	return NewBridge(s.registry, native, WithSaveField(s.fieldName), WithBridgeLogger(s.logger))
}

func (s *service) Close() {
	s.registry.Clear()
}
