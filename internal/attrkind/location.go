package attrkind

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"attrschema/internal/domain/entity"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

const maxPlaceLength = 100

// Location is the structured value of the location kind.
type Location struct {
	City       string   `json:"city,omitempty"`
	Region     string   `json:"region,omitempty"`
	Country    string   `json:"country,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Point returns the coordinates as an orb point (longitude first).
func (l Location) Point() (orb.Point, bool) {
	if !l.HasCoordinates() {
		return orb.Point{}, false
	}

	return orb.Point{*l.Longitude, *l.Latitude}, true
}

// DistanceKm returns the great circle distance between two located values.
func DistanceKm(a, b Location) (float64, bool) {
	pa, okA := a.Point()
	pb, okB := b.Point()
	if !okA || !okB {
		return 0, false
	}

	return geo.DistanceHaversine(pa, pb) / 1000, true
}

// SearchBound returns the bounding box of the circle of radiusKm around l,
// for prefiltering candidates on the indexed coordinates.
func SearchBound(l Location, radiusKm float64) (orb.Bound, bool) {
	p, ok := l.Point()
	if !ok {
		return orb.Bound{}, false
	}

	return geo.NewBoundAroundPoint(p, radiusKm*1000), true
}

// LocationFromValue reads a stored or submitted location value.
func LocationFromValue(value any) (Location, bool) {
	m, ok := asMap(value)
	if !ok {
		return Location{}, false
	}
	str := func(key string) string {
		s, _ := asString(m[key])

		return s
	}
	coord := func(keys ...string) *float64 {
		for _, key := range keys {
			if f, ok := entity.ToFloat(m[key]); ok {
				return &f
			}
		}

		return nil
	}

	return Location{
		City:       str("city"),
		Region:     str("region"),
		Country:    str("country"),
		PostalCode: str("postal_code"),
		Latitude:   coord("latitude", "lat"),
		Longitude:  coord("longitude", "lng", "lon"),
	}, true
}

type location struct{}

func newLocation() Kind { return location{} }

func (location) Descriptor() Descriptor {
	return Descriptor{
		Name:           "location",
		Label:          "Location",
		Description:    "City, region and country with optional coordinates.",
		Category:       CategoryDomain,
		Capabilities:   []Capability{CapOptions, CapComposite, CapPlaceholder},
		ValidationKeys: []string{"required"},
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument(
				"require_city", true,
				"require_coordinates", false,
				"allowed_countries", []any{},
			)
		},
	}
}

func (location) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	loc, _ := LocationFromValue(value)

	field := func(sub, label, current string) string {
		attrs := append(controlAttrs(def, args, subfieldName(def, args, sub), subfieldID(def, args, sub)),
			attr{"type", "text"}, attr{"value", current}, attr{"placeholder", label})

		return tag("input", attrs, "", true)
	}
	hidden := func(sub string, v *float64) string {
		current := ""
		if v != nil {
			current = formatFloat(*v)
		}

		return tag("input", []attr{{"type", "hidden"}, {"name", subfieldName(def, args, sub)}, {"value", current}}, "", true)
	}

	control := field("city", "City", loc.City) +
		field("region", "Region", loc.Region) +
		field("country", "Country code", loc.Country) +
		hidden("latitude", loc.Latitude) +
		hidden("longitude", loc.Longitude)

	return wrapField(def, args, tag("div", []attr{{"class", "attr-location"}}, control, false)), nil
}

func (location) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	name := displayName(def)
	loc, ok := LocationFromValue(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be an object with city, region and country", name))

		return res
	}

	for _, part := range []struct{ sub, value string }{
		{"city", loc.City}, {"region", loc.Region}, {"postal_code", loc.PostalCode},
	} {
		if utf8.RuneCountInString(part.value) > maxPlaceLength {
			res.Add(def.Name+"."+part.sub, CodeTooLong, fmt.Sprintf("%s %s must be at most %d characters", name, part.sub, maxPlaceLength))
		}
	}
	if def.Options.Bool("require_city") && strings.TrimSpace(loc.City) == "" {
		res.Add(def.Name+".city", CodeRequired, fmt.Sprintf("%s needs a city", name))
	}

	country := strings.ToUpper(strings.TrimSpace(loc.Country))
	if country != "" && !countryCode.MatchString(country) {
		res.Add(def.Name+".country", CodeInvalidFormat, fmt.Sprintf("%s country must be a two letter code", name))
	}
	if allowed := def.Options.Strings("allowed_countries"); country != "" && len(allowed) > 0 &&
		!slices.ContainsFunc(allowed, func(c string) bool { return strings.EqualFold(c, country) }) {
		res.Add(def.Name+".country", CodeInvalidChoice, fmt.Sprintf("%s country %s is not allowed", name, country))
	}

	switch {
	case loc.HasCoordinates():
		p, _ := loc.Point()
		if math.Abs(p.Lat()) > 90 {
			res.Add(def.Name+".latitude", CodeInvalidFormat, fmt.Sprintf("%s latitude must be between -90 and 90", name))
		}
		if math.Abs(p.Lon()) > 180 {
			res.Add(def.Name+".longitude", CodeInvalidFormat, fmt.Sprintf("%s longitude must be between -180 and 180", name))
		}
	case loc.Latitude != nil || loc.Longitude != nil:
		res.Add(def.Name, CodeInvalidFormat, fmt.Sprintf("%s needs both latitude and longitude", name))
	case def.Options.Bool("require_coordinates"):
		res.Add(def.Name, CodeRequired, fmt.Sprintf("%s needs coordinates", name))
	}

	return res
}

// Sanitize returns an ordered document with cleaned text parts and
// coordinates rounded to six decimals (about 10 cm).
func (location) Sanitize(_ *entity.AttributeDefinition, value any) any {
	loc, ok := LocationFromValue(value)
	if !ok {
		return nil
	}

	out := &entity.Document{}
	set := func(key, v string) {
		if v = sanitizeLine(v); v != "" {
			out.Set(key, v)
		}
	}
	set("city", loc.City)
	set("region", loc.Region)
	set("country", strings.ToUpper(loc.Country))
	set("postal_code", loc.PostalCode)
	if p, ok := loc.Point(); ok && math.Abs(p.Lat()) <= 90 && math.Abs(p.Lon()) <= 180 {
		out.Set("latitude", math.Round(p.Lat()*1e6)/1e6)
		out.Set("longitude", math.Round(p.Lon()*1e6)/1e6)
	}
	if out.Len() == 0 {
		return nil
	}

	return out
}
