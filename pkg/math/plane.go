package math

// Plane is a splitting plane: points p with Normal·p == Dist lie on it.
type Plane struct {
	Normal Vec3
	Dist   float32
}

// Distance returns the signed distance of p from the plane.
func (p Plane) Distance(v Vec3) float32 {
	return p.Normal.Dot(v) - p.Dist
}
