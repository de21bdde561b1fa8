package api

import "math"

// Explicit argument schemas. JSON numbers arrive as float64; integer
// arguments accept any integral number and reject fractions. Every
// mismatch is a caller error naming the argument, before the handler
// runs.

func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok {
		return "", NewCallerError("missing required argument %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", NewCallerError("argument %q must be a string, got %T", name, raw)
	}
	return s, nil
}

func intArg(args map[string]any, name string) (int, error) {
	raw, ok := args[name]
	if !ok {
		return 0, NewCallerError("missing required argument %q", name)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, NewCallerError("argument %q must be an integer, got %v", name, v)
		}
		return int(v), nil
	default:
		return 0, NewCallerError("argument %q must be an integer, got %T", name, raw)
	}
}

func boolArg(args map[string]any, name string) (bool, error) {
	raw, ok := args[name]
	if !ok {
		return false, NewCallerError("missing required argument %q", name)
	}
	b, ok := raw.(bool)
	if !ok {
		return false, NewCallerError("argument %q must be a boolean, got %T", name, raw)
	}
	return b, nil
}

// anyArg returns a required argument of any shape (the feedback state
// blob, say).
func anyArg(args map[string]any, name string) (any, error) {
	raw, ok := args[name]
	if !ok {
		return nil, NewCallerError("missing required argument %q", name)
	}
	return raw, nil
}
