package refdata

import "sort"

// locations is a strict tree: every district belongs to exactly one
// state, every city to exactly one district.
var locations = map[string]map[string][]string{
	"Maharashtra": {
		"Pune":     {"Pune City", "Pimpri-Chinchwad", "Baramati", "Lonavala"},
		"Mumbai":   {"Mumbai City", "Andheri", "Borivali", "Thane"},
		"Nagpur":   {"Nagpur City", "Kamptee", "Katol"},
		"Nashik":   {"Nashik City", "Malegaon", "Sinnar"},
		"Kolhapur": {"Kolhapur City", "Ichalkaranji"},
	},
	"Goa": {
		"North Goa": {"Panaji", "Mapusa", "Bicholim"},
		"South Goa": {"Margao", "Vasco da Gama", "Canacona"},
	},
	"Karnataka": {
		"Bengaluru Urban": {"Bengaluru", "Yelahanka", "Whitefield"},
		"Mysuru":          {"Mysuru City", "Nanjangud"},
		"Mangaluru":       {"Mangaluru City", "Ullal"},
	},
	"Gujarat": {
		"Ahmedabad": {"Ahmedabad City", "Sanand", "Dholka"},
		"Surat":     {"Surat City", "Bardoli"},
		"Vadodara":  {"Vadodara City", "Padra"},
	},
	"Tamil Nadu": {
		"Chennai":    {"Chennai City", "Tambaram", "Avadi"},
		"Coimbatore": {"Coimbatore City", "Pollachi"},
		"Madurai":    {"Madurai City", "Melur"},
	},
}

// States returns every known state, sorted.
func States() []string {
	out := make([]string, 0, len(locations))
	for s := range locations {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DistrictsOf returns the districts of a state, sorted. Unknown states
// yield an empty slice.
func DistrictsOf(state string) []string {
	districts, ok := locations[state]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(districts))
	for d := range districts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// CitiesOf returns the cities of a district within a state. Unknown
// pairs yield an empty slice.
func CitiesOf(state, district string) []string {
	districts, ok := locations[state]
	if !ok {
		return nil
	}
	cities := districts[district]
	out := make([]string, len(cities))
	copy(out, cities)
	sort.Strings(out)
	return out
}

// IsState reports whether the state exists.
func IsState(state string) bool {
	_, ok := locations[state]
	return ok
}

// IsDistrictOf reports whether district belongs to state.
func IsDistrictOf(state, district string) bool {
	districts, ok := locations[state]
	if !ok {
		return false
	}
	_, ok = districts[district]
	return ok
}

// IsCityOf reports whether city belongs to district within state.
func IsCityOf(state, district, city string) bool {
	districts, ok := locations[state]
	if !ok {
		return false
	}
	for _, c := range districts[district] {
		if c == city {
			return true
		}
	}
	return false
}
