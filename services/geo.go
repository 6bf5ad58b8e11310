package services

import (
	"math"
	"sort"
	"strings"
)

const earthRadiusMiles = 3959.0

// City is a named point in the static coordinate table.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// NearbyCity is a fallback candidate. Distance is only meaningful when
// KnownDistance is true; unresolvable origins yield table-order candidates.
type NearbyCity struct {
	City          string  `json:"city"`
	Distance      float64 `json:"distance"`
	KnownDistance bool    `json:"-"`
}

// majorCities is read-only after init and safe for concurrent use.
var majorCities = []City{
	{"New York", 40.7128, -74.0060},
	{"Los Angeles", 34.0522, -118.2437},
	{"Chicago", 41.8781, -87.6298},
	{"Houston", 29.7604, -95.3698},
	{"Phoenix", 33.4484, -112.0740},
	{"Philadelphia", 39.9526, -75.1652},
	{"San Antonio", 29.4241, -98.4936},
	{"San Diego", 32.7157, -117.1611},
	{"Dallas", 32.7767, -96.7970},
	{"San Jose", 37.3382, -121.8863},
	{"Austin", 30.2672, -97.7431},
	{"Jacksonville", 30.3322, -81.6557},
	{"Fort Worth", 32.7555, -97.3308},
	{"Columbus", 39.9612, -82.9988},
	{"Charlotte", 35.2271, -80.8431},
	{"San Francisco", 37.7749, -122.4194},
	{"Indianapolis", 39.7684, -86.1581},
	{"Seattle", 47.6062, -122.3321},
	{"Denver", 39.7392, -104.9903},
	{"Washington", 38.9072, -77.0369},
	{"Boston", 42.3601, -71.0589},
	{"Nashville", 36.1627, -86.7816},
	{"Detroit", 42.3314, -83.0458},
	{"Portland", 45.5152, -122.6784},
	{"Las Vegas", 36.1699, -115.1398},
	{"Memphis", 35.1495, -90.0490},
	{"Louisville", 38.2527, -85.7585},
	{"Baltimore", 39.2904, -76.6122},
	{"Milwaukee", 43.0389, -87.9065},
	{"Albuquerque", 35.0844, -106.6504},
	{"Tucson", 32.2226, -110.9747},
	{"Fresno", 36.7378, -119.7871},
	{"Sacramento", 38.5816, -121.4944},
	{"Kansas City", 39.0997, -94.5786},
	{"Atlanta", 33.7490, -84.3880},
	{"Miami", 25.7617, -80.1918},
	{"Raleigh", 35.7796, -78.6382},
	{"Omaha", 41.2565, -95.9345},
	{"Minneapolis", 44.9778, -93.2650},
	{"Cleveland", 41.4993, -81.6944},
	{"Tampa", 27.9506, -82.4572},
	{"St. Louis", 38.6270, -90.1994},
	{"Pittsburgh", 40.4406, -79.9959},
	{"Cincinnati", 39.1031, -84.5120},
	{"Orlando", 28.5383, -81.3792},
	{"New Orleans", 29.9511, -90.0715},
	{"Toronto", 43.6532, -79.3832},
	{"Montreal", 45.5017, -73.5673},
	{"Vancouver", 49.2827, -123.1207},
	{"Calgary", 51.0447, -114.0719},
	{"Ottawa", 45.4215, -75.6972},
	{"Edmonton", 53.5461, -113.4938},
}

// Cities returns a copy of the coordinate table in definition order.
func Cities() []City {
	out := make([]City, len(majorCities))
	copy(out, majorCities)
	return out
}

// DistanceMiles returns the haversine great-circle distance in miles.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := radians(lat1)
	lat2Rad := radians(lat2)
	deltaLat := radians(lat2 - lat1)
	deltaLon := radians(lon2 - lon1)

	a := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(deltaLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// CoordinatesOf resolves a city name: exact case-insensitive match first,
// then the first table entry that contains, or is contained in, the name.
func CoordinatesOf(name string) (lat, lon float64, ok bool) {
	c, ok := lookupCity(name)
	if !ok {
		return 0, 0, false
	}
	return c.Lat, c.Lon, true
}

func lookupCity(name string) (City, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, c := range majorCities {
		if strings.ToLower(c.Name) == needle {
			return c, true
		}
	}
	if needle == "" {
		return City{}, false
	}
	for _, c := range majorCities {
		key := strings.ToLower(c.Name)
		if strings.Contains(key, needle) || strings.Contains(needle, key) {
			return c, true
		}
	}
	return City{}, false
}

// NearbyCities lists table cities within maxDistance miles of name, nearest
// first, at most limit of them. When name cannot be resolved the first limit
// table entries are returned in definition order without distances.
func NearbyCities(name string, maxDistance float64, limit int) []NearbyCity {
	if limit <= 0 {
		return nil
	}

	origin, ok := lookupCity(name)
	if !ok {
		n := limit
		if n > len(majorCities) {
			n = len(majorCities)
		}
		out := make([]NearbyCity, 0, n)
		for _, c := range majorCities[:n] {
			out = append(out, NearbyCity{City: c.Name})
		}
		return out
	}

	requested := strings.ToLower(strings.TrimSpace(name))
	var out []NearbyCity
	for _, c := range majorCities {
		key := strings.ToLower(c.Name)
		if key == requested || c.Name == origin.Name {
			continue
		}
		d := DistanceMiles(origin.Lat, origin.Lon, c.Lat, c.Lon)
		if d > maxDistance {
			continue
		}
		out = append(out, NearbyCity{City: c.Name, Distance: round1(d), KnownDistance: true})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
