package keymap

import "slices"

// Resolver turns key presses into actions. Every context starts live;
// a key whose bindings all sit in switched-off contexts resolves to nothing.
// The global context cannot be switched off.
type Resolver struct {
	byKey    map[string][]Binding
	byAction map[Action][]string
	off      map[string]bool
}

// NewResolver creates a resolver from bindings. When a key appears in
// several bindings, the first live one wins.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		byKey:    make(map[string][]Binding),
		byAction: make(map[Action][]string),
		off:      make(map[string]bool),
	}
	for _, b := range bindings {
		for _, k := range b.Keys {
			r.byKey[k] = append(r.byKey[k], b)
			if !slices.Contains(r.byAction[b.Action], k) {
				r.byAction[b.Action] = append(r.byAction[b.Action], k)
			}
		}
	}
	return r
}

// SetLive switches a context on or off.
func (r *Resolver) SetLive(context string, live bool) {
	if context == ContextGlobal {
		return
	}
	if live {
		delete(r.off, context)
		return
	}
	r.off[context] = true
}

// Live reports whether bindings of context currently resolve.
func (r *Resolver) Live(context string) bool {
	return !r.off[context]
}

// Resolve returns the action bound to key in a live context, or "".
func (r *Resolver) Resolve(key string) Action {
	for _, b := range r.byKey[key] {
		if r.Live(b.Context) {
			return b.Action
		}
	}
	return ""
}

// KeysFor returns the keys bound to an action, live or not.
func (r *Resolver) KeysFor(action Action) []string {
	return r.byAction[action]
}
