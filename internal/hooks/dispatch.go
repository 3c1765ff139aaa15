package hooks

// Lenient decoding of script return values, matching the dispatch protocol:
// every field of a pre-hook result is optional and independently validated;
// a field with the wrong shape or type is skipped, never an error.

// decodeResult applies a pre-hook's returned value to res. Anything that is
// not an associative structure leaves all defaults in place.
func decodeResult(v any, res *Result) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	if a, ok := m["action"]; ok {
		if n, ok := asInt(a); ok && n == int64(Skip) {
			res.Action = Skip
		}
	}
	if a, ok := m["args"]; ok {
		// Only an 8-element sequence takes effect, and within it only
		// integer elements replace the corresponding original argument.
		if seq, ok := a.([]any); ok && len(seq) == NumArgs {
			for i, item := range seq {
				if n, ok := asInt(item); ok {
					res.Args[i] = n
				}
			}
		}
	}
	if rv, ok := m["ret"]; ok {
		if n, ok := asInt(rv); ok {
			res.Ret = n
		}
	}
}

// decodeRet interprets a post-hook's returned value: a plain integer
// replaces ret, any other shape leaves it unchanged.
func decodeRet(v any, ret int64) int64 {
	if n, ok := asInt(v); ok {
		return n
	}
	return ret
}

// asInt accepts the integer representations runtimes and recordings export.
// Floats are not integers, mirroring the exactness of the protocol.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
