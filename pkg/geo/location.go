// Package geo holds the location query shared by the weather and soil routes.
package geo

import (
	"strconv"
	"strings"
)

// Location is either a coordinate pair or a city/state (country optional).
type Location struct {
	Lat, Lon *float64
	City     string
	State    string
	Country  string
}

// Parse reads query values; an unparsable or out-of-range coordinate counts
// as absent.
func Parse(lat, lon, city, state, country string) Location {
	loc := Location{
		City:    strings.TrimSpace(city),
		State:   strings.TrimSpace(state),
		Country: strings.TrimSpace(country),
	}
	la, errLa := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if errLa == nil && errLo == nil && la >= -90 && la <= 90 && lo >= -180 && lo <= 180 {
		loc.Lat, loc.Lon = &la, &lo
	}
	return loc
}

func (l Location) HasCoords() bool { return l.Lat != nil && l.Lon != nil }

func (l Location) HasPlace() bool { return l.City != "" && l.State != "" }

// Query joins the place parts for a geocoder: "city,state[,country]".
func (l Location) Query() string {
	parts := []string{l.City}
	if l.State != "" {
		parts = append(parts, l.State)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ",")
}
