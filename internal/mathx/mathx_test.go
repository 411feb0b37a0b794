package mathx

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestEulerQuatRoundTrip(t *testing.T) {
	cases := []mgl32.Vec3{
		{0, 0, 0},
		{0.3, 0, 0},
		{0, -0.7, 0},
		{0, 0, 1.1},
		{0.4, -0.2, 0.9},
		{-1.2, 0.5, -0.3},
	}
	for _, e := range cases {
		q := EulerToQuat(e)
		if d := math32.Abs(q.Len() - 1); d > 1e-5 {
			t.Errorf("EulerToQuat(%v) not unit, |q|-1 = %v", e, d)
		}
		back := QuatToEuler(q)
		for i := 0; i < 3; i++ {
			if math32.Abs(back[i]-e[i]) > 1e-4 {
				t.Errorf("round trip %v -> %v", e, back)
				break
			}
		}
	}
}

func TestDegRad(t *testing.T) {
	if got := Deg2Rad(180); math32.Abs(got-math32.Pi) > 1e-6 {
		t.Errorf("Deg2Rad(180) = %v", got)
	}
	if got := Rad2Deg(math32.Pi / 2); math32.Abs(got-90) > 1e-4 {
		t.Errorf("Rad2Deg(pi/2) = %v", got)
	}
}
