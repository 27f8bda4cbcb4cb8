// Package client implements the viewer-side half of the tank: it turns
// untrusted snapshot payloads into sanitized fish records, runs a local
// fallback school when live data is stale or absent, and arbitrates between
// the two so the presentation layer always has something to draw.
package client

// Heading is a unit direction vector in tank coordinates.
type Heading struct {
	X float64
	Y float64
	Z float64
}

// Fish is one renderable fish as consumed by the presentation layer. All
// coordinates are normalized to [0,1]; Heading is unit length.
type Fish struct {
	ID      int
	X       float64
	Y       float64
	Z       float64
	Heading Heading
	Scale   float64
	Phase   float64
}

// headingRight is the default facing when a wire entry carries no usable
// direction at all.
var headingRight = Heading{X: 1}
