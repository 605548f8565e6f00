package glrender

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/skyfx/gleval"
)

// Camera looks at the sky from a point below the cloud plane.
type Camera struct {
	// Yaw and Pitch orient the view in radians. Positive pitch looks up.
	// Pitch is kept just short of straight up or down.
	Yaw, Pitch float32
	// FOV is the vertical field of view in radians.
	FOV float32
	// CloudHeight is the height of the cloud plane above the camera.
	CloudHeight float32
}

// DefaultCamera looks 30 degrees above the horizon with a 70 degree field of view
// under a cloud plane at the default height of the host's cloud layer.
func DefaultCamera() Camera {
	return Camera{
		Pitch:       mgl32.DegToRad(30),
		FOV:         mgl32.DegToRad(70),
		CloudHeight: 120,
	}
}

// FocalLength returns the distance from the eye to an image plane of unit half height.
func (c Camera) FocalLength() float32 {
	return 1 / math32.Tan(c.FOV/2)
}

// basis returns the camera's right, up and forward unit vectors.
func (c Camera) basis() (right, up, forward mgl32.Vec3) {
	// Looking straight up leaves the right vector undefined.
	const maxPitch = 0.999 * math32.Pi / 2
	sp, cp := math32.Sincos(mgl32.Clamp(c.Pitch, -maxPitch, maxPitch))
	sy, cy := math32.Sincos(c.Yaw)
	forward = mgl32.Vec3{cp * sy, sp, cp * cy}
	right = forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

// Fragment returns the fragment seen through the pixel at (px, py) of a w×h
// image, where (0,0) is the top left pixel.
func (c Camera) Fragment(px, py, w, h int) gleval.Fragment {
	right, up, forward := c.basis()
	return c.fragment(right, up, forward, c.FocalLength(), px, py, w, h)
}

func (c Camera) fragment(right, up, forward mgl32.Vec3, focal float32, px, py, w, h int) gleval.Fragment {
	fh := float32(h)
	x := (2*(float32(px)+0.5) - float32(w)) / fh
	y := (fh - 2*(float32(py)+0.5)) / fh
	d := right.Mul(x).Add(up.Mul(y)).Add(forward.Mul(focal)).Normalize()
	dir := ms3.Vec{X: d[0], Y: d[1], Z: d[2]}
	return gleval.Fragment{Dir: dir, Pos: PlaneHit(dir, c.CloudHeight)}
}

// PlaneHit returns the position where a ray along dir meets the cloud plane
// height units above the eye. Rays below the horizon are mirrored so the plane is
// never hit from behind. The parallax divisor matches the cloud marcher's.
func PlaneHit(dir ms3.Vec, height float32) ms3.Vec {
	ay := dir.Y
	if ay < 0 {
		ay = -ay
	}
	k := height / (0.02 + 0.98*ay)
	return ms3.Vec{X: dir.X * k, Y: height, Z: dir.Z * k}
}
