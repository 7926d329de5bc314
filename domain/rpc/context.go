package rpc

// Context is the per-request bag filled by the active handler and read
// afterwards for logging. It is not safe for concurrent use; a request
// is handled on a single goroutine.
type Context struct {
	RequestID string

	keys   []string
	values map[string]any
}

// NewContext creates an empty context for requestID.
func NewContext(requestID string) *Context {
	return &Context{RequestID: requestID, values: make(map[string]any)}
}

// Set records a field. Setting an existing key replaces its value and
// keeps its original position.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value recorded for key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the recorded keys in insertion order.
func (c *Context) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Each calls fn for every recorded field in insertion order.
func (c *Context) Each(fn func(key string, value any)) {
	for _, k := range c.keys {
		fn(k, c.values[k])
	}
}
