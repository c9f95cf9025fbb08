package reports

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang/geo/s2"
)

var ErrInvalidLocation = errors.New("invalid location format")

// Location is a parsed location payload. Raw keeps the whole object,
// including fields this service does not interpret.
type Location struct {
	Latitude  float64
	Longitude float64
	Raw       string
}

// ParseLocation decodes a JSON object with numeric latitude and longitude.
func ParseLocation(raw string) (Location, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return Location{}, ErrInvalidLocation
	}

	lat, ok := number(obj["latitude"])
	if !ok {
		return Location{}, ErrInvalidLocation
	}
	lon, ok := number(obj["longitude"])
	if !ok {
		return Location{}, ErrInvalidLocation
	}
	if !s2.LatLngFromDegrees(lat, lon).IsValid() {
		return Location{}, ErrInvalidLocation
	}

	return Location{Latitude: lat, Longitude: lon, Raw: strings.TrimSpace(raw)}, nil
}

func number(m json.RawMessage) (float64, bool) {
	if len(m) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(m, &v); err != nil {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
