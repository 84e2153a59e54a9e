package sim

// Middleware defines the actions of a component.
type Middleware interface {
	// Tick processes one cycle of work. It returns true if progress is made.
	Tick() bool
}

// MiddlewareHolder can maintain a list of middleware. Middlewares are ticked
// in the order they are added.
type MiddlewareHolder struct {
	middlewares []Middleware
}

// AddMiddleware adds a middleware to the holder.
func (holder *MiddlewareHolder) AddMiddleware(middleware Middleware) {
	holder.middlewares = append(holder.middlewares, middleware)
}

// Middlewares returns the list of middleware.
func (holder *MiddlewareHolder) Middlewares() []Middleware {
	return holder.middlewares
}

// Tick ticks every middleware once. All the middlewares are ticked even if an
// earlier one made no progress.
func (holder *MiddlewareHolder) Tick() bool {
	progress := false

	for _, middleware := range holder.middlewares {
		progress = middleware.Tick() || progress
	}

	return progress
}
