package sim

import "math"

// Vec3 is a world-space position. Y is up.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// NewVec3 builds a Vec3 from its components.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// DistanceSquared returns the squared Euclidean distance between v and o.
func (v Vec3) DistanceSquared(o Vec3) float64 {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

// WithY returns a copy of v with its vertical component replaced.
func (v Vec3) WithY(y float64) Vec3 {
	v.Y = y
	return v
}
