package types

import "fmt"

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair lies inside the WGS 84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}

// OriginUnavailableReason says why the user's position could not be obtained.
type OriginUnavailableReason string

const (
	OriginDenied      OriginUnavailableReason = "denied"
	OriginUnsupported OriginUnavailableReason = "unsupported"
	OriginInvalid     OriginUnavailableReason = "invalid"
	OriginTimeout     OriginUnavailableReason = "timeout"
)

// Origin is the user's position for one screen load. It is either available,
// carrying a Coordinate, or unavailable with a reason. It is never an error.
type Origin struct {
	coord  Coordinate
	ok     bool
	reason OriginUnavailableReason
}

// OriginAvailable wraps a known position.
func OriginAvailable(c Coordinate) Origin {
	return Origin{coord: c, ok: true}
}

// OriginUnavailable records that no position could be obtained.
func OriginUnavailable(reason OriginUnavailableReason) Origin {
	return Origin{reason: reason}
}

// Coordinate returns the position and whether it is available.
func (o Origin) Coordinate() (Coordinate, bool) {
	return o.coord, o.ok
}

func (o Origin) Available() bool { return o.ok }

// Reason is empty when the origin is available.
func (o Origin) Reason() OriginUnavailableReason { return o.reason }
