package game

import (
	"sort"

	"backend/internal/geo"
	"backend/internal/models"
)

// FullBrightness is the brightness at which a city counts as fully lit.
const FullBrightness = 100

// SelectRelayTarget picks the nearest city to the source that is not yet
// fully lit. The source itself and every fully lit city are skipped.
// Candidates are scanned in sorted key order so ties on distance resolve
// deterministically to the first key. Returns false when every other city
// is already lit or the set has no other member.
func SelectRelayTarget(sourceKey string, cities models.CitySet) (models.City, bool) {
	source, ok := cities[sourceKey]
	if !ok {
		return models.City{}, false
	}

	keys := make([]string, 0, len(cities))
	for key := range cities {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var nearest models.City
	found := false
	minDistance := 0.0

	for _, key := range keys {
		if key == sourceKey {
			continue
		}
		candidate := cities[key]
		if candidate.Brightness >= FullBrightness {
			continue
		}
		distance := geo.Distance(source.Lat, source.Lng, candidate.Lat, candidate.Lng)
		if !found || distance < minDistance {
			minDistance = distance
			nearest = candidate
			found = true
		}
	}

	return nearest, found
}
