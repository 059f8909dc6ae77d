package perobject

// Proxy scopes every key to one plugin by prefixing it with
// "<plugin>!", so plugins using the same literal key never collide.
type Proxy struct {
	svc    Service
	plugin string
}

// NewProxy creates a proxy for plugin over svc.
func NewProxy(svc Service, plugin string) *Proxy {
	return &Proxy{svc: svc, plugin: plugin}
}

// Plugin returns the namespace this proxy writes under.
func (p *Proxy) Plugin() string { return p.plugin }

// Key returns the full storage key for key.
func (p *Proxy) Key(key string) string { return NamespacedKey(p.plugin, key) }

func (p *Proxy) SetInt(id ObjectID, key string, value int32, persist bool) {
	p.svc.SetInt(id, p.Key(key), value, persist)
}

func (p *Proxy) SetFloat(id ObjectID, key string, value float32, persist bool) {
	p.svc.SetFloat(id, p.Key(key), value, persist)
}

func (p *Proxy) SetString(id ObjectID, key string, value string, persist bool) {
	p.svc.SetString(id, p.Key(key), value, persist)
}

func (p *Proxy) SetPointer(id ObjectID, key string, value any, cleanup CleanupFunc) {
	p.svc.SetPointer(id, p.Key(key), value, cleanup)
}

func (p *Proxy) GetInt(id ObjectID, key string) (int32, bool) {
	return p.svc.GetInt(id, p.Key(key))
}

func (p *Proxy) GetFloat(id ObjectID, key string) (float32, bool) {
	return p.svc.GetFloat(id, p.Key(key))
}

func (p *Proxy) GetString(id ObjectID, key string) (string, bool) {
	return p.svc.GetString(id, p.Key(key))
}

func (p *Proxy) GetPointer(id ObjectID, key string) (any, bool) {
	return p.svc.GetPointer(id, p.Key(key))
}

func (p *Proxy) Remove(id ObjectID, key string) {
	p.svc.Remove(id, p.Key(key))
}

func (p *Proxy) DetachPointer(id ObjectID, key string) (any, bool) {
	return p.svc.DetachPointer(id, p.Key(key))
}
