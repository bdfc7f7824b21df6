package permission

// Module is one entry of the static application catalog: a module key the
// UI gates on, tagged with a category for grouping in admin screens.
type Module struct {
	Key      string
	Category string
}

// Catalog categories.
const (
	CategoryComunidad = "comunidad"
	CategoryContenido = "contenido"
	CategoryAnalisis  = "analisis"
	CategorySistema   = "sistema"
)

// catalog is the single source of truth for "what ships out of the box".
// Order is presentation order for admin screens.
var catalog = []Module{
	{Key: "miembros", Category: CategoryComunidad},
	{Key: "grupos", Category: CategoryComunidad},
	{Key: "asistencias", Category: CategoryComunidad},
	{Key: "eventos", Category: CategoryComunidad},
	{Key: "devocionales", Category: CategoryContenido},
	{Key: "sermones", Category: CategoryContenido},
	{Key: "cursos", Category: CategoryContenido},
	{Key: "reportes", Category: CategoryAnalisis},
	{Key: "ofrendas", Category: CategoryAnalisis},
	{Key: "notificaciones", Category: CategorySistema},
	{Key: "ajustes", Category: CategorySistema},
}

// defaults is the out-of-box visibility per non-admin role. Admin defaults
// are implicitly all-true and are never materialized as overridable state.
var defaults = map[string]map[string]bool{
	"supervisor": {
		"miembros":       true,
		"grupos":         true,
		"asistencias":    true,
		"eventos":        true,
		"devocionales":   true,
		"sermones":       true,
		"cursos":         true,
		"reportes":       true,
		"ofrendas":       true,
		"notificaciones": true,
		"ajustes":        false,
	},
	"lider": {
		"miembros":       true,
		"grupos":         true,
		"asistencias":    true,
		"eventos":        true,
		"devocionales":   true,
		"sermones":       true,
		"cursos":         true,
		"reportes":       false,
		"ofrendas":       false,
		"notificaciones": false,
		"ajustes":        false,
	},
	"miembro": {
		"miembros":       false,
		"grupos":         true,
		"asistencias":    false,
		"eventos":        true,
		"devocionales":   true,
		"sermones":       true,
		"cursos":         true,
		"reportes":       false,
		"ofrendas":       false,
		"notificaciones": false,
		"ajustes":        false,
	},
	"invitado": {
		"miembros":       false,
		"grupos":         false,
		"asistencias":    false,
		"eventos":        true,
		"devocionales":   true,
		"sermones":       true,
		"cursos":         false,
		"reportes":       false,
		"ofrendas":       false,
		"notificaciones": false,
		"ajustes":        false,
	},
}

// Catalog returns a copy of the module catalog in presentation order.
func Catalog() []Module {
	out := make([]Module, len(catalog))
	copy(out, catalog)
	return out
}

// Keys returns the catalog module keys in presentation order.
func Keys() []string {
	out := make([]string, len(catalog))
	for i, m := range catalog {
		out[i] = m.Key
	}
	return out
}

// Known reports whether key is part of the catalog.
func Known(key string) bool {
	for _, m := range catalog {
		if m.Key == key {
			return true
		}
	}
	return false
}

// Defaults returns a copy of the static default map for role, or false
// when the role has no materialized defaults (unknown roles and admin).
func Defaults(role string) (map[string]bool, bool) {
	d, ok := defaults[role]
	if !ok {
		return nil, false
	}
	out := make(map[string]bool, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out, true
}

// AllGranted returns a map with every catalog key set to true. Used for
// the admin role, whose access is a hard invariant rather than stored
// state.
func AllGranted() map[string]bool {
	out := make(map[string]bool, len(catalog))
	for _, m := range catalog {
		out[m.Key] = true
	}
	return out
}
