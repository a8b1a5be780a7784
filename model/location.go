package model

import "strings"

// Location is a physical address with the coordinates resolved when it was
// first stored. The Address/City/State/ZipCode tuple is its identity.
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SameAddress reports whether both locations share the identity tuple.
func (l Location) SameAddress(other Location) bool {
	return l.Address == other.Address &&
		l.City == other.City &&
		l.State == other.State &&
		l.ZipCode == other.ZipCode
}

// Empty reports whether no address part is set.
func (l Location) Empty() bool {
	return strings.TrimSpace(l.Address+l.City+l.State+l.ZipCode) == ""
}

// String renders the address as a single line for free-text geocoding.
func (l Location) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Address, l.City, l.State, l.ZipCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Params returns the identity tuple as query parameters.
func (l Location) Params() map[string]interface{} {
	return map[string]interface{}{
		"address": l.Address,
		"city":    l.City,
		"state":   l.State,
		"zip":     l.ZipCode,
	}
}

// LocationFromRecord coerces a result row into a Location.
func LocationFromRecord(rec map[string]interface{}) (Location, error) {
	var (
		l   Location
		err error
	)
	if l.Address, err = optionalString(rec, "Address"); err != nil {
		return Location{}, err
	}
	if l.City, err = optionalString(rec, "City"); err != nil {
		return Location{}, err
	}
	if l.State, err = optionalString(rec, "State"); err != nil {
		return Location{}, err
	}
	if l.ZipCode, err = optionalString(rec, "ZipCode"); err != nil {
		return Location{}, err
	}
	if l.Latitude, err = optionalFloat(rec, "Latitude"); err != nil {
		return Location{}, err
	}
	if l.Longitude, err = optionalFloat(rec, "Longitude"); err != nil {
		return Location{}, err
	}
	return l, nil
}

// OfficeHistory lists the current office and every superseded one of a company.
type OfficeHistory struct {
	Current []Location `json:"current"`
	Former  []Location `json:"former"`
}
