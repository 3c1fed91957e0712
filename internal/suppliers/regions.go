package suppliers

import (
	"sort"

	"github.com/angelmondragon/streeteats-connect/pkg/maps"
)

// DefaultCenter is the geographic center of India.
var DefaultCenter = maps.LatLng{Latitude: 20.5937, Longitude: 78.9629}

// SearchRadiusMeters biases searches to a 50 km circle around the center.
const SearchRadiusMeters = 50000

var regions = map[string]maps.LatLng{
	"Andhra Pradesh":    {Latitude: 15.9129, Longitude: 79.7400},
	"Arunachal Pradesh": {Latitude: 28.2180, Longitude: 94.7278},
	"Assam":             {Latitude: 26.2006, Longitude: 92.9376},
	"Bihar":             {Latitude: 25.0961, Longitude: 85.3131},
	"Chhattisgarh":      {Latitude: 21.2787, Longitude: 81.8661},
	"Goa":               {Latitude: 15.2993, Longitude: 74.1240},
	"Gujarat":           {Latitude: 22.2587, Longitude: 71.1924},
	"Haryana":           {Latitude: 29.0588, Longitude: 76.0856},
	"Himachal Pradesh":  {Latitude: 31.1048, Longitude: 77.1734},
	"Jharkhand":         {Latitude: 23.6102, Longitude: 85.2799},
	"Karnataka":         {Latitude: 15.3173, Longitude: 75.7139},
	"Kerala":            {Latitude: 10.8505, Longitude: 76.2711},
	"Madhya Pradesh":    {Latitude: 22.9734, Longitude: 78.6569},
	"Maharashtra":       {Latitude: 19.7515, Longitude: 75.7139},
	"Manipur":           {Latitude: 24.6637, Longitude: 93.9063},
	"Meghalaya":         {Latitude: 25.4670, Longitude: 91.3662},
	"Mizoram":           {Latitude: 23.1645, Longitude: 92.9376},
	"Nagaland":          {Latitude: 26.1584, Longitude: 94.5624},
	"Odisha":            {Latitude: 20.9517, Longitude: 85.0985},
	"Punjab":            {Latitude: 31.1471, Longitude: 75.3412},
	"Rajasthan":         {Latitude: 27.0238, Longitude: 74.2179},
	"Sikkim":            {Latitude: 27.5330, Longitude: 88.5122},
	"Tamil Nadu":        {Latitude: 11.1271, Longitude: 78.6569},
	"Telangana":         {Latitude: 18.1124, Longitude: 79.0193},
	"Tripura":           {Latitude: 23.9408, Longitude: 91.9882},
	"Uttar Pradesh":     {Latitude: 26.8467, Longitude: 80.9462},
	"Uttarakhand":       {Latitude: 30.0668, Longitude: 79.0193},
	"West Bengal":       {Latitude: 22.9868, Longitude: 87.8550},
}

// Region looks up the center point of a state.
func Region(name string) (maps.LatLng, bool) {
	c, ok := regions[name]
	return c, ok
}

// RegionNames lists the known states alphabetically.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
