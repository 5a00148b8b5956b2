package geometry

import (
	"math"
	"testing"
)

func TestGalacticFromEquatorial(t *testing.T) {
	tests := []struct {
		name   string
		raDeg  float64
		decDeg float64
		wantL  float64
		wantB  float64
		tolDeg float64
	}{
		{"Crab nebula", 83.6331, 22.0145, 184.5575, -5.7843, 2e-3},
		{"north galactic pole", 192.85948, 27.12825, 0, 90, 1e-6},
		{"galactic center", 266.4050, -28.9362, 359.944, -0.046, 1e-2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, b := GalacticFromEquatorial(tt.raDeg, tt.decDeg)
			if math.Abs(b-tt.wantB) > tt.tolDeg {
				t.Errorf("b = %v, want %v", b, tt.wantB)
			}
			// Longitude is undefined at the pole itself.
			if tt.wantB < 90 {
				dl := math.Mod(l-tt.wantL+540, 360) - 180
				if math.Abs(dl) > tt.tolDeg {
					t.Errorf("l = %v, want %v", l, tt.wantL)
				}
			}
			if l < 0 || l >= 360 {
				t.Errorf("l = %v outside [0, 360)", l)
			}
		})
	}
}

func TestLineOfSightBasisOrthonormal(t *testing.T) {
	for _, tc := range []struct{ l, b float64 }{
		{0, 0},
		{1.2, -0.4},
		{math.Pi, 1.1},
		{5.9, -1.5},
	} {
		los := NewLineOfSight(tc.l, tc.b, SunOffsetKpc)

		for _, v := range []struct {
			name string
			vec  Vector
		}{{"dir", los.Dir}, {"t", los.T}, {"u", los.U}} {
			if math.Abs(v.vec.Norm()-1) > 1e-12 {
				t.Errorf("l=%v b=%v: |%s| = %v, want 1", tc.l, tc.b, v.name, v.vec.Norm())
			}
		}
		for _, p := range []struct {
			name string
			dot  float64
		}{
			{"dir.t", los.Dir.Dot(los.T)},
			{"dir.u", los.Dir.Dot(los.U)},
			{"t.u", los.T.Dot(los.U)},
		} {
			if math.Abs(p.dot) > 1e-12 {
				t.Errorf("l=%v b=%v: %s = %v, want 0", tc.l, tc.b, p.name, p.dot)
			}
		}

		// The triad is right-handed: t x u must reproduce dir.
		cross := Vector{
			los.T.Y*los.U.Z - los.T.Z*los.U.Y,
			los.T.Z*los.U.X - los.T.X*los.U.Z,
			los.T.X*los.U.Y - los.T.Y*los.U.X,
		}
		if math.Abs(cross.X-los.Dir.X)+math.Abs(cross.Y-los.Dir.Y)+math.Abs(cross.Z-los.Dir.Z) > 1e-12 {
			t.Errorf("l=%v b=%v: t x u = %v, want %v", tc.l, tc.b, cross, los.Dir)
		}
	}
}

func TestLineOfSightPosition(t *testing.T) {
	los := NewLineOfSight(0, 0, SunOffsetKpc)

	p0 := los.Position(0)
	if p0.X != SunOffsetKpc || p0.Y != 0 || p0.Z != 0 {
		t.Errorf("Position(0) = %v, want observer position", p0)
	}

	// Looking at the galactic center from the Sun, 8.5 kpc lands at the
	// origin.
	pc := los.Position(-SunOffsetKpc)
	if pc.Norm() > 1e-12 {
		t.Errorf("Position(8.5) = %v, want origin", pc)
	}
}

func TestProjectRecoversComponents(t *testing.T) {
	los := NewLineOfSight(2.3, 0.7, SunOffsetKpc)

	field := los.Dir.Scale(1.5).Add(los.T.Scale(-0.8)).Add(los.U.Scale(2.1))
	bs, bt, bu := los.Project(field)

	if math.Abs(bs-1.5) > 1e-12 || math.Abs(bt+0.8) > 1e-12 || math.Abs(bu-2.1) > 1e-12 {
		t.Errorf("Project = (%v, %v, %v), want (1.5, -0.8, 2.1)", bs, bt, bu)
	}
}

func TestMaxPathLength(t *testing.T) {
	bounds := Bounds{RhoMax: 20, ZMax: 5}

	t.Run("vertical exit through the slab", func(t *testing.T) {
		got, err := MaxPathLength(0, math.Pi/2, SunOffsetKpc, bounds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got-bounds.ZMax) > 1e-12 {
			t.Errorf("path length = %v, want %v", got, bounds.ZMax)
		}
	})

	t.Run("in-plane exit through the cylinder", func(t *testing.T) {
		// Looking through the galactic center in the plane, the exit
		// is at RhoMax on the far side.
		got, err := MaxPathLength(0, 0, SunOffsetKpc, bounds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := bounds.RhoMax - SunOffsetKpc
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("path length = %v, want %v", got, want)
		}
	})

	t.Run("oblique direction takes the nearer boundary", func(t *testing.T) {
		got, err := MaxPathLength(1.0, 0.3, SunOffsetKpc, bounds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sZ := bounds.ZMax / math.Sin(0.3)
		if got > sZ+1e-12 {
			t.Errorf("path length %v exceeds slab exit %v", got, sZ)
		}
		// The exit point must lie on the region boundary.
		los := NewLineOfSight(1.0, 0.3, SunOffsetKpc)
		p := los.Position(got)
		rho := math.Hypot(p.X, p.Y)
		onCylinder := math.Abs(rho-bounds.RhoMax) < 1e-9
		onSlab := math.Abs(math.Abs(p.Z)-bounds.ZMax) < 1e-9
		if !onCylinder && !onSlab {
			t.Errorf("exit point %v not on region boundary", p)
		}
	})

	t.Run("observer outside the region", func(t *testing.T) {
		if _, err := MaxPathLength(0, 0, SunOffsetKpc, Bounds{RhoMax: 5, ZMax: 5}); err == nil {
			t.Error("expected validation error for RhoMax inside the solar circle")
		}
	})

	t.Run("degenerate slab", func(t *testing.T) {
		if _, err := MaxPathLength(0, 0, SunOffsetKpc, Bounds{RhoMax: 20, ZMax: 0}); err == nil {
			t.Error("expected validation error for ZMax = 0")
		}
	})
}
