package coords_test

import (
	"errors"
	"testing"
	"time"

	"autowin/internal/coords"
	"autowin/internal/logging"
	"autowin/internal/platform"
	"autowin/internal/platform/platformtest"
	"autowin/internal/winstate"
)

func newProcessor(t *testing.T) (*coords.Processor, *platformtest.Fake) {
	t.Helper()
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{
		Title:  "Player",
		Client: platform.Rect{X: 100, Y: 50, Width: 1920, Height: 1080},
		DPI:    144,
	})
	cache := winstate.NewCache(fake, time.Hour, logging.Nop())
	return coords.NewProcessor(cache, fake, logging.Nop()), fake
}

func TestResolvePhysicalOriginsPassThrough(t *testing.T) {
	p, _ := newProcessor(t)

	// Coordinates captured against the live window are already physical;
	// resolving them again on a 150% window must not re-scale.
	for _, origin := range []coords.Origin{coords.OriginScreenSelection, coords.OriginImageMatch} {
		got, err := p.ResolveForInjection(coords.Coordinate{X: 500, Y: 500}, origin, 1, coords.ModeBackground)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", origin, err)
		}
		if got.X != 500 || got.Y != 500 {
			t.Fatalf("%s: physical origin re-scaled to (%d,%d)", origin, got.X, got.Y)
		}
	}
}

func TestResolveManualEntryScalesByDPI(t *testing.T) {
	p, _ := newProcessor(t)

	got, err := p.ResolveForInjection(coords.Coordinate{X: 500, Y: 400, Width: 20, Height: 10},
		coords.OriginManualEntry, 1, coords.ModeBackground)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := coords.Physical{X: 750, Y: 600, Width: 30, Height: 15}
	if got != want {
		t.Fatalf("manual entry at 150%%: got %+v want %+v", got, want)
	}
}

func TestResolveForegroundTranslatesToScreen(t *testing.T) {
	p, _ := newProcessor(t)

	got, err := p.ResolveForInjection(coords.Coordinate{X: 10, Y: 20},
		coords.OriginScreenSelection, 1, coords.ModeForeground)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.X != 110 || got.Y != 70 {
		t.Fatalf("expected screen-absolute (110,70), got (%d,%d)", got.X, got.Y)
	}
}

func TestResolveForegroundFallsBackToCachedRect(t *testing.T) {
	p, fake := newProcessor(t)
	fake.FailClientToScreen = true

	got, err := p.ResolveForInjection(coords.Coordinate{X: 10, Y: 20},
		coords.OriginScreenSelection, 1, coords.ModeForeground)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.X != 110 || got.Y != 70 {
		t.Fatalf("rect-delta fallback gave (%d,%d), want (110,70)", got.X, got.Y)
	}
}

func TestResolveFailsOpenOnDeadHandle(t *testing.T) {
	p, _ := newProcessor(t)

	in := coords.Coordinate{X: 42, Y: 43}
	got, err := p.ResolveForInjection(in, coords.OriginManualEntry, 99, coords.ModeBackground)
	if !errors.Is(err, winstate.ErrHandleInvalid) {
		t.Fatalf("expected ErrHandleInvalid, got %v", err)
	}
	if got != coords.Physical(in) {
		t.Fatalf("expected unchanged pass-through, got %+v", got)
	}
}

func TestResolveRegionForCapture(t *testing.T) {
	p, _ := newProcessor(t)

	// Screen-selection regions pass through; no screen translation applies
	// to capture even though the window sits at (100,50).
	got, err := p.ResolveRegionForCapture(coords.Coordinate{X: 5, Y: 6, Width: 300, Height: 200},
		coords.OriginScreenSelection, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (got != coords.Physical{X: 5, Y: 6, Width: 300, Height: 200}) {
		t.Fatalf("capture region altered: %+v", got)
	}

	got, err = p.ResolveRegionForCapture(coords.Coordinate{X: 100, Y: 100, Width: 200, Height: 100},
		coords.OriginManualEntry, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := coords.Physical{X: 150, Y: 150, Width: 300, Height: 150}
	if got != want {
		t.Fatalf("manual-entry capture region: got %+v want %+v", got, want)
	}
}
