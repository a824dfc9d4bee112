package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ComponentKey is the attribute that names the emitting component.
const ComponentKey = "component"

// ComponentFilterHandler filters records by level, with per-component
// overrides. The component is taken from a "component" attribute attached
// with Logger.With or passed on the record itself.
//
// Levels can be changed while the handler is in use. Handlers derived with
// WithAttrs and WithGroup share the level table.
type ComponentFilterHandler struct {
	next      slog.Handler
	levels    *levelTable
	component string
}

type levelTable struct {
	mu        sync.RWMutex
	def       slog.Level
	overrides map[string]slog.Level
}

// NewComponentFilterHandler wraps next. Records below defaultLevel are
// dropped unless their component has a lower override.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		next: next,
		levels: &levelTable{
			def:       defaultLevel,
			overrides: make(map[string]slog.Level),
		},
	}
}

// SetLevel sets the minimum level for one component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.levels.mu.Lock()
	defer h.levels.mu.Unlock()
	h.levels.overrides[component] = level
}

// Level returns the effective minimum level for component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	h.levels.mu.RLock()
	defer h.levels.mu.RUnlock()
	if l, ok := h.levels.overrides[component]; ok {
		return l
	}
	return h.levels.def
}

// lowest is the most permissive level any component may log at.
func (h *ComponentFilterHandler) lowest() slog.Level {
	h.levels.mu.RLock()
	defer h.levels.mu.RUnlock()
	low := h.levels.def
	for _, l := range h.levels.overrides {
		low = min(low, l)
	}
	return low
}

func (h *ComponentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.next != nil && !h.next.Enabled(ctx, level) {
		return false
	}
	// The record's own attributes are not visible yet, so without a scoped
	// component only the most permissive level can be ruled out here.
	if h.component != "" {
		return level >= h.Level(h.component)
	}
	return level >= h.lowest()
}

func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == ComponentKey {
				component = a.Value.String()
				return false
			}
			return true
		})
	}
	if r.Level < h.Level(component) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	for _, a := range attrs {
		if a.Key == ComponentKey {
			clone.component = a.Value.String()
		}
	}
	return &clone
}

func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	return &clone
}
