package analyzer

import "strings"

// adjacency is a symmetric adjacency table, populated from a one-directional
// source table at init so lookups never depend on row order — resolving the
// Open Question in ("two spellings of the adjacency table exist").
var adjacency = map[string]map[string]struct{}{}

// districts maps a normalized area name to its district.
var districts = map[string]string{}

func init() {
	// Source table as authored (one direction); addAdjacent mirrors it.
	pairs := [][2]string{
		{"kimironko", "remera"},
		{"kimironko", "gisozi"},
		{"remera", "kisimenti"},
		{"nyamirambo", "biryogo"},
		{"nyamirambo", "cyahafi"},
		{"kacyiru", "kimihurura"},
		{"kacyiru", "gisozi"},
		{"kimihurura", "nyarutarama"},
		{"kiyovu", "nyarugenge"},
		{"kiyovu", "muhima"},
		{"gikondo", "kicukiro"},
		{"gikondo", "niboye"},
		{"kicukiro", "niboye"},
		{"kicukiro", "gahanga"},
		{"nyabugogo", "muhima"},
		{"nyabugogo", "gitega"},
		{"kabuga", "rusororo"},
	}
	for _, p := range pairs {
		addAdjacent(p[0], p[1])
	}

	areaDistrict := map[string]string{
		"kimironko":   "gasabo",
		"remera":      "gasabo",
		"gisozi":      "gasabo",
		"kisimenti":   "gasabo",
		"kacyiru":     "gasabo",
		"kimihurura":  "nyarugenge",
		"nyarutarama": "gasabo",
		"kiyovu":      "nyarugenge",
		"nyarugenge":  "nyarugenge",
		"muhima":      "nyarugenge",
		"nyamirambo":  "nyarugenge",
		"biryogo":     "nyarugenge",
		"cyahafi":     "nyarugenge",
		"gikondo":     "kicukiro",
		"kicukiro":    "kicukiro",
		"niboye":      "kicukiro",
		"gahanga":     "kicukiro",
		"nyabugogo":   "nyarugenge",
		"gitega":      "nyarugenge",
		"kabuga":      "gasabo",
		"rusororo":    "gasabo",
	}
	for area, district := range areaDistrict {
		districts[area] = district
	}
}

func addAdjacent(a, b string) {
	if adjacency[a] == nil {
		adjacency[a] = make(map[string]struct{})
	}
	if adjacency[b] == nil {
		adjacency[b] = make(map[string]struct{})
	}
	adjacency[a][b] = struct{}{}
	adjacency[b][a] = struct{}{}
}

func normalizeArea(area string) string {
	return strings.ToLower(strings.TrimSpace(area))
}

// LocationDistance implements location distance: 0 if equal,
// 1 if adjacent (symmetric lookup), 2 if in the same district, else 3.
func LocationDistance(a, b string) int {
	na, nb := normalizeArea(a), normalizeArea(b)
	if na == nb {
		return 0
	}
	if neighbors, ok := adjacency[na]; ok {
		if _, adj := neighbors[nb]; adj {
			return 1
		}
	}
	da, aOk := districts[na]
	db, bOk := districts[nb]
	if aOk && bOk && da == db {
		return 2
	}
	return 3
}
