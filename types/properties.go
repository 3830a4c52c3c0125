package types

// Properties is a flat key/value bag, used for both a project's global
// properties and a plug-in-supplied rule's type-specific options prior to
// being decoded into a typed struct via mapstructure.
type Properties map[string]any

// NewProperties returns an empty, ready-to-use Properties map.
func NewProperties() Properties {
	return make(Properties)
}

// Copy returns a shallow copy, isolating the receiver from later mutation
// of the copy (and vice versa).
func (p Properties) Copy() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Properties) Get(key string) any {
	return p[key]
}
