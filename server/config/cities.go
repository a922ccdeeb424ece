package config

import (
	"fmt"
	"strings"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/provider/kurs"
)

// DefaultCity is the city used when none is requested or located
const DefaultCity = "Almaty"

// City defines a single supported listing city
type City struct {
	// The display name
	Name string `toml:"name"`

	// The listing "city" query parameter value
	Query string `toml:"query"`

	// The city-specific literal markers, checked before the primary ones
	Markers []string `toml:"markers"`

	// The reference coordinate
	Lat float64 `toml:"lat"`
	Lng float64 `toml:"lng"`
}

// DefaultCities returns the built-in city catalog
func DefaultCities() []*City {
	return []*City{
		{Name: "Almaty", Query: "almaty", Lat: 43.238949, Lng: 76.889709, Markers: []string{"punktsFromInternet"}},
		{Name: "Astana", Query: "astana", Lat: 51.169392, Lng: 71.449074},
		{Name: "Shymkent", Query: "shymkent", Lat: 42.341685, Lng: 69.590101},
		{Name: "Karaganda", Query: "karaganda", Lat: 49.806406, Lng: 73.085485},
		{Name: "Aktobe", Query: "aktobe", Lat: 50.283937, Lng: 57.166978},
		{Name: "Atyrau", Query: "atyrau", Lat: 47.094496, Lng: 51.923837},
		{Name: "Aktau", Query: "aktau", Lat: 43.635379, Lng: 51.169135},
		{Name: "Pavlodar", Query: "pavlodar", Lat: 52.287303, Lng: 76.967402},
		{Name: "Ust-Kamenogorsk", Query: "ustkamenogorsk", Lat: 49.948325, Lng: 82.627848},
		{Name: "Semey", Query: "semey", Lat: 50.411106, Lng: 80.227479},
		{Name: "Kostanay", Query: "kostanay", Lat: 53.214917, Lng: 63.631031},
		{Name: "Taraz", Query: "taraz", Lat: 42.901183, Lng: 71.378309},
		{Name: "Kyzylorda", Query: "kyzylorda", Lat: 44.842557, Lng: 65.502545},
		{Name: "Uralsk", Query: "uralsk", Lat: 51.204019, Lng: 51.370537},
		{Name: "Petropavlovsk", Query: "petropavlovsk", Lat: 54.865472, Lng: 69.135611},
	}
}

func validateCities(cities []*City, defaultCity string) error {
	if len(cities) == 0 {
		return fmt.Errorf("%w: no cities", ErrInvalidCities)
	}

	var foundDefault bool

	for _, city := range cities {
		if city == nil || strings.TrimSpace(city.Name) == "" || strings.TrimSpace(city.Query) == "" {
			return fmt.Errorf("%w: name and query are required", ErrInvalidCities)
		}

		if !(geo.Coordinate{Lat: city.Lat, Lng: city.Lng}).Valid() {
			return fmt.Errorf("%w: invalid coordinate for %q", ErrInvalidCities, city.Name)
		}

		if err := validateMarkers(city.Markers); err != nil {
			return err
		}

		if strings.EqualFold(city.Name, defaultCity) {
			foundDefault = true
		}
	}

	if !foundDefault {
		return fmt.Errorf("%w: unknown default city %q", ErrInvalidCities, defaultCity)
	}

	return nil
}

// Catalog builds the listing city catalog from the configuration
func Catalog(config *Config) (*kurs.Catalog, error) {
	cities := make([]*kurs.City, 0, len(config.Cities))

	for _, city := range config.Cities {
		cities = append(cities, &kurs.City{
			Name:    strings.TrimSpace(city.Name),
			Query:   strings.TrimSpace(city.Query),
			Markers: city.Markers,
			Center:  geo.Coordinate{Lat: city.Lat, Lng: city.Lng},
		})
	}

	catalog, err := kurs.NewCatalog(cities, config.Ingest.DefaultCity)
	if err != nil {
		return nil, fmt.Errorf("unable to build city catalog: %w", err)
	}

	return catalog, nil
}
