package world

import (
	"fmt"
	"math"
)

// Vec3 is a world position. X grows to the right, Y grows upward and Z is
// the draw layer; distances and movement only use the X/Y plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V is a convenience constructor for a position on layer 0.
func V(x, y float64) Vec3 { return Vec3{X: x, Y: y} }

// Add returns v + o. The layer of v is kept.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z}
}

// Sub returns the planar offset from o to v.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale multiplies the planar components by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z}
}

// Len is the planar length.
func (v Vec3) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether the planar components are both zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{Z: v.Z}
	}
	return Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z}
}

// Distance is the planar Euclidean distance between two positions.
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Len()
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", v.X, v.Y)
}
