package kurs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sig-0/fxpoints/geo"
)

var (
	errNoCities       = errors.New("no cities in catalog")
	errInvalidCity    = errors.New("invalid city")
	errDuplicateCity  = errors.New("duplicate city")
	errUnknownDefault = errors.New("unknown default city")
)

// City is a single supported city of the listing source
type City struct {
	// Name is the human-readable city name
	Name string `json:"name"`

	// Query is the value of the listing "city" query parameter
	Query string `json:"query"`

	// Markers are the city-specific literal markers,
	// checked before the primary extractor markers
	Markers []string `json:"-"`

	// Center is the reference coordinate of the city
	Center geo.Coordinate `json:"center"`
}

// Catalog is the fixed list of supported cities
type Catalog struct {
	defaultCity *City
	cities      []*City
}

// NewCatalog creates a new city catalog, with the given default city
func NewCatalog(cities []*City, defaultName string) (*Catalog, error) {
	if len(cities) == 0 {
		return nil, errNoCities
	}

	c := &Catalog{
		cities: make([]*City, 0, len(cities)),
	}

	for _, city := range cities {
		if city == nil ||
			strings.TrimSpace(city.Name) == "" ||
			strings.TrimSpace(city.Query) == "" {
			return nil, errInvalidCity
		}

		if _, exists := c.Lookup(city.Name); exists {
			return nil, fmt.Errorf("%w: %s", errDuplicateCity, city.Name)
		}

		c.cities = append(c.cities, city)
	}

	def, ok := c.Lookup(defaultName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownDefault, defaultName)
	}

	c.defaultCity = def

	return c, nil
}

// Lookup finds the city by its name or query value (case-insensitive)
func (c *Catalog) Lookup(name string) (*City, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}

	for _, city := range c.cities {
		if strings.EqualFold(city.Name, name) || strings.EqualFold(city.Query, name) {
			return city, true
		}
	}

	return nil, false
}

// Default returns the default city
func (c *Catalog) Default() *City {
	return c.defaultCity
}

// All returns all the catalog cities, in catalog order
func (c *Catalog) All() []*City {
	out := make([]*City, len(c.cities))
	copy(out, c.cities)

	return out
}
