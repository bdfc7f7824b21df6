package permission

// Merge overlays sparse overrides onto a default map and returns a new
// map. Override entries win per key; keys absent from both inputs are
// absent from the result. Neither input is mutated.
func Merge(defaults, overrides map[string]bool) map[string]bool {
	out := make(map[string]bool, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
