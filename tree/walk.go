package tree

// Wildcard matches any key at one level of a Walk pattern.
const Wildcard = "*"

// Match describes one node selected by Walk.
type Match struct {
	Path     []string
	Captures []string
	Parent   map[string]any
	Key      string
	Value    any
}

// Walk calls fn for every node of root whose path matches pattern. Pattern
// segments are literal keys or Wildcard; keys matched by wildcards are
// reported in Match.Captures in pattern order. Nodes are visited in key order
// and nothing is created for unmatched paths. fn may replace the matched
// value through Match.Parent. The first error returned by fn stops the walk.
func Walk(root any, pattern []string, fn func(Match) error) error {
	if len(pattern) == 0 || fn == nil {
		return nil
	}
	return walk(root, pattern, nil, nil, fn)
}

func walk(node any, pattern, path, captures []string, fn func(Match) error) error {
	current, ok := node.(map[string]any)
	if !ok || current == nil {
		return nil
	}

	segment := pattern[0]
	keys := []string{segment}
	if segment == Wildcard {
		keys = SortedKeys(current)
	}

	for _, key := range keys {
		value, ok := current[key]
		if !ok {
			continue
		}
		nextPath := append(append([]string(nil), path...), key)
		nextCaptures := captures
		if segment == Wildcard {
			nextCaptures = append(append([]string(nil), captures...), key)
		}
		if len(pattern) == 1 {
			if err := fn(Match{
				Path:     nextPath,
				Captures: nextCaptures,
				Parent:   current,
				Key:      key,
				Value:    value,
			}); err != nil {
				return err
			}
			continue
		}
		if err := walk(value, pattern[1:], nextPath, nextCaptures, fn); err != nil {
			return err
		}
	}
	return nil
}
