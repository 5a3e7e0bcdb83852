package deps

// Reachable walks edges breadth-first from roots and returns every key
// visited. Keys are normalized with [KeyOf]; cycles terminate through the
// visited set.
func Reachable(e Ecosystem, roots []string, edges map[string][]string) map[string]bool {
	norm := make(map[string][]string, len(edges))
	for k, v := range edges {
		k = KeyOf(e, k)
		norm[k] = append(norm[k], v...)
	}

	seen := make(map[string]bool)
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, KeyOf(e, r))
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, c := range norm[n] {
			queue = append(queue, KeyOf(e, c))
		}
	}
	return seen
}
