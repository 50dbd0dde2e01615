// Package search implements contextual augmentation for autocomplete-style
// lookup requests. A widget's outgoing request parameters are rebuilt by a
// caller-supplied function; Augment wraps that function so a contextual
// identifier, resolved at request time, is merged into the result without
// discarding anything the original function produced.
package search

import "strings"

// Params holds the key/value pairs attached to an outgoing lookup request.
type Params map[string]any

// Clone returns a shallow copy of the parameter set. Nil stays nil-safe: the
// result is always a usable map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParamsFunc builds the outgoing request parameters for a widget. A nil
// ParamsFunc means the widget sends its input parameters unchanged.
type ParamsFunc func(Params) Params

// Supplier yields the contextual identifier for the current request. It is
// invoked on every call, never at wrap time, so the value always reflects the
// surrounding state at the moment the request goes out. The boolean reports
// whether a value is available.
type Supplier func() (string, bool)

// Static returns a Supplier that always yields the given value. Empty values
// report as absent.
func Static(value string) Supplier {
	return func() (string, bool) {
		trimmed := strings.TrimSpace(value)
		return trimmed, trimmed != ""
	}
}

// Augment wraps base so the contextual value produced by supply is merged
// into the outgoing parameters under key. The wrapped function:
//
//   - invokes base first when present, preserving every parameter it sets;
//     otherwise it starts from the input parameters unchanged;
//   - resolves the supplier at call time and, when a non-empty value is
//     available, sets it under key;
//   - omits key entirely when the supplier reports no value, so the receiving
//     endpoint can tell "no context" apart from "empty context".
//
// Aside from the live supplier read the returned function is pure: two calls
// with the supplier in the same state yield the same result.
func Augment(base ParamsFunc, key string, supply Supplier) ParamsFunc {
	return func(params Params) Params {
		var out Params
		if base != nil {
			out = base(params)
		} else {
			out = params
		}
		if out == nil {
			out = Params{}
		}

		if supply == nil || strings.TrimSpace(key) == "" {
			return out
		}

		value, ok := supply()
		if !ok || strings.TrimSpace(value) == "" {
			return out
		}

		merged := out.Clone()
		merged[key] = value
		return merged
	}
}
