package coords_test

import (
	"testing"
	"time"

	"autowin/internal/config"
	"autowin/internal/coords"
	"autowin/internal/logging"
	"autowin/internal/platform"
	"autowin/internal/platform/platformtest"
	"autowin/internal/winstate"
)

func newNormalizer(t *testing.T, clientW, clientH, dpi int) (*coords.Normalizer, *platformtest.Fake) {
	t.Helper()
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{
		Title:  "Player",
		Client: platform.Rect{X: 0, Y: 0, Width: clientW, Height: clientH},
		DPI:    dpi,
	})
	cfg := config.DefaultConfig()
	cache := winstate.NewCache(fake, time.Hour, logging.Nop())
	return coords.NewNormalizer(cache, cfg, logging.Nop()), fake
}

func TestToReferenceIdentityAtReferenceGeometry(t *testing.T) {
	n, _ := newNormalizer(t, 1280, 720, 96)

	in := coords.Physical{X: 317, Y: 593, Width: 40, Height: 25}
	ref := n.ToReference(in, 1)
	if coords.Physical(ref) != in {
		t.Fatalf("expected identity at reference geometry, got %+v", ref)
	}
	back := n.FromReference(ref, 1)
	if back != in {
		t.Fatalf("expected exact round trip at reference geometry, got %+v", back)
	}
}

func TestToReferenceExactMultiples(t *testing.T) {
	// 960x540 is 3/4 of the reference size; multiples of 3 convert exactly.
	n, _ := newNormalizer(t, 960, 540, 96)

	ref := n.ToReference(coords.Physical{X: 75, Y: 405, Width: 480, Height: 270}, 1)
	want := coords.Reference{X: 100, Y: 540, Width: 640, Height: 360}
	if ref != want {
		t.Fatalf("exact multiple converted inexactly: got %+v want %+v", ref, want)
	}

	phys := n.FromReference(want, 1)
	if (phys != coords.Physical{X: 75, Y: 405, Width: 480, Height: 270}) {
		t.Fatalf("inverse of exact multiple drifted: got %+v", phys)
	}
}

func TestRoundTripWithinOnePixel(t *testing.T) {
	tests := []struct {
		name    string
		clientW int
		clientH int
		dpi     int
	}{
		{"smaller window", 960, 540, 96},
		{"larger window", 1920, 1080, 96},
		{"scaled 125 percent", 800, 600, 120},
		{"scaled 150 percent", 1280, 720, 144},
		{"odd size", 1366, 768, 96},
	}

	points := []coords.Physical{
		{X: 0, Y: 0},
		{X: 1, Y: 1},
		{X: 123, Y: 77, Width: 31, Height: 17},
		{X: 639, Y: 359, Width: 100, Height: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := newNormalizer(t, tt.clientW, tt.clientH, tt.dpi)
			for _, p := range points {
				if p.X >= tt.clientW || p.Y >= tt.clientH {
					continue
				}
				back := n.FromReference(n.ToReference(p, 1), 1)
				if abs(back.X-p.X) > 1 || abs(back.Y-p.Y) > 1 ||
					abs(back.Width-p.Width) > 1 || abs(back.Height-p.Height) > 1 {
					t.Errorf("round trip drifted more than 1px: %+v -> %+v", p, back)
				}
			}
		})
	}
}

func TestRoundTripHoldsDownToHalfReferenceSize(t *testing.T) {
	// 640x360 is the smallest client whose physical pixels can still
	// represent every reference value within 1px; exhaustive over the
	// reference x axis, starting from the reference side where truncation
	// loses the most.
	n, _ := newNormalizer(t, 640, 360, 96)

	for x := 0; x < 1280; x++ {
		r := coords.Reference{X: x, Y: x % 720}
		back := n.ToReference(n.FromReference(r, 1), 1)
		if abs(back.X-r.X) > 1 || abs(back.Y-r.Y) > 1 {
			t.Fatalf("round trip drifted more than 1px at half reference size: %+v -> %+v", r, back)
		}
	}
}

func TestNormalizerFailsOpenOnDeadHandle(t *testing.T) {
	fake := platformtest.New()
	cfg := config.DefaultConfig()
	cache := winstate.NewCache(fake, time.Hour, logging.Nop())
	n := coords.NewNormalizer(cache, cfg, logging.Nop())

	in := coords.Physical{X: 100, Y: 200, Width: 10, Height: 20}
	ref := n.ToReference(in, 99)
	if coords.Physical(ref) != in {
		t.Fatalf("expected identity pass-through for dead handle, got %+v", ref)
	}

	phys := n.FromReference(coords.Reference(in), 99)
	if phys != in {
		t.Fatalf("expected identity pass-through for dead handle, got %+v", phys)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
