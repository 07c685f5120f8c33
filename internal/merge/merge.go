// Package merge implements the recursive map merge shared by the config
// resolvers.
//
// Sources are applied left to right, so the rightmost source wins. A nested
// map merges key by key into the accumulated value at the same key (a missing
// or non-map accumulated value is treated as empty). Slices, scalars and nil
// replace the accumulated value wholesale; slices are never concatenated.
package merge

// Merge combines sources into a new map with rightmost-wins priority.
// Nil sources are skipped. Inputs are never mutated and the result shares no
// maps or slices with them.
func Merge(sources ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, src := range sources {
		if src == nil {
			continue
		}
		into(out, src)
	}
	return out
}

func into(dst, src map[string]interface{}) {
	for k, v := range src {
		incoming, ok := asMap(v)
		if !ok {
			dst[k] = clone(v)
			continue
		}
		acc, ok := asMap(dst[k])
		if !ok {
			acc = make(map[string]interface{}, len(incoming))
		}
		into(acc, incoming)
		dst[k] = acc
	}
}

// asMap treats both map[string]interface{} and map[interface{}]interface{}
// with string keys as plain objects. The latter shows up in decoded YAML.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, m != nil
	case map[interface{}]interface{}:
		if m == nil {
			return nil, false
		}
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

func clone(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		if t == nil {
			return t
		}
		cp := make([]interface{}, len(t))
		for i, e := range t {
			cp[i] = clone(e)
		}
		return cp
	case map[string]interface{}:
		if t == nil {
			return t
		}
		cp := make(map[string]interface{}, len(t))
		into(cp, t)
		return cp
	}
	return v
}
