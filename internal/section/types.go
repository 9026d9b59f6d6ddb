package section

import "fmt"

// Orientation selects the independent coordinate of a track: longitude
// for a track running primarily east-west, latitude for one running
// north-south.
type Orientation int

const (
	// AlongLongitude orders the track by longitude; latitude is the
	// dependent coordinate.
	AlongLongitude Orientation = iota
	// AlongLatitude orders the track by latitude; longitude is the
	// dependent coordinate.
	AlongLatitude
)

// ParseOrientation converts a catalog tag into an Orientation. Unknown
// tags are a configuration error, never a silent default.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "along-longitude", "lon":
		return AlongLongitude, nil
	case "along-latitude", "lat":
		return AlongLatitude, nil
	default:
		return 0, fmt.Errorf("section: unknown orientation %q", s)
	}
}

func (o Orientation) String() string {
	switch o {
	case AlongLongitude:
		return "along-longitude"
	case AlongLatitude:
		return "along-latitude"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}
