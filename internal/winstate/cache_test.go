package winstate_test

import (
	"errors"
	"testing"
	"time"

	"autowin/internal/logging"
	"autowin/internal/platform"
	"autowin/internal/platform/platformtest"
	"autowin/internal/winstate"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestCacheReturnsFreshSnapshotWithinTTL(t *testing.T) {
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{
		Title:  "Player",
		Client: platform.Rect{X: 10, Y: 20, Width: 960, Height: 540},
		DPI:    96,
	})

	now := time.Unix(1000, 0)
	cache := winstate.NewCache(fake, 500*time.Millisecond, logging.Nop(),
		winstate.WithClock(fixedClock(&now)))

	st, err := cache.Get(1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DPI != 96 || st.ClientWidth != 960 {
		t.Fatalf("unexpected snapshot: dpi=%d client=%dx%d", st.DPI, st.ClientWidth, st.ClientHeight)
	}

	// The backend changes but the TTL has not elapsed.
	fake.SetDPI(1, 144)
	now = now.Add(400 * time.Millisecond)

	st, err = cache.Get(1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DPI != 96 {
		t.Fatalf("expected cached dpi 96 within TTL, got %d", st.DPI)
	}

	// Past the TTL the next read resamples.
	now = now.Add(200 * time.Millisecond)
	st, err = cache.Get(1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DPI != 144 {
		t.Fatalf("expected resampled dpi 144 after TTL, got %d", st.DPI)
	}
}

func TestCacheForceRefreshBypassesTTL(t *testing.T) {
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{
		Client: platform.Rect{Width: 960, Height: 540},
		DPI:    96,
	})

	now := time.Unix(1000, 0)
	cache := winstate.NewCache(fake, time.Hour, logging.Nop(),
		winstate.WithClock(fixedClock(&now)))

	if _, err := cache.Get(1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.SetDPI(1, 144)
	st, err := cache.ForceRefresh(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DPI != 144 {
		t.Fatalf("expected force refresh to resample, got dpi %d", st.DPI)
	}
}

func TestCacheInvalidHandle(t *testing.T) {
	fake := platformtest.New()
	cache := winstate.NewCache(fake, time.Second, logging.Nop())

	_, err := cache.Get(42, false)
	if !errors.Is(err, winstate.ErrHandleInvalid) {
		t.Fatalf("expected ErrHandleInvalid, got %v", err)
	}
}

func TestCacheDropsEntryWhenWindowDies(t *testing.T) {
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{Client: platform.Rect{Width: 100, Height: 100}})

	cache := winstate.NewCache(fake, time.Hour, logging.Nop())
	if _, err := cache.Get(1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(cache.Tracked()); got != 1 {
		t.Fatalf("expected 1 tracked handle, got %d", got)
	}

	fake.RemoveWindow(1)
	if _, err := cache.ForceRefresh(1); !errors.Is(err, winstate.ErrHandleInvalid) {
		t.Fatalf("expected ErrHandleInvalid, got %v", err)
	}
	if got := len(cache.Tracked()); got != 0 {
		t.Fatalf("expected dead handle to be dropped, still tracking %d", got)
	}
}

func TestCacheInvalidateAllForcesResample(t *testing.T) {
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{Client: platform.Rect{Width: 100, Height: 100}, DPI: 96})

	now := time.Unix(1000, 0)
	cache := winstate.NewCache(fake, time.Hour, logging.Nop(),
		winstate.WithClock(fixedClock(&now)))

	if _, err := cache.Get(1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.SetDPI(1, 144)
	cache.InvalidateAll()

	// The clock has not moved, so only invalidation explains a resample.
	st, err := cache.Get(1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DPI != 144 {
		t.Fatalf("expected resample after InvalidateAll, got dpi %d", st.DPI)
	}
}

func TestCacheDPILayering(t *testing.T) {
	tests := []struct {
		name       string
		scale      winstate.ScaleProvider
		failWindow bool
		failSystem bool
		windowDPI  int
		systemDPI  int
		wantDPI    int
		wantScale  float64
	}{
		{
			name:      "toolkit scale provider preferred",
			scale:     func(platform.Handle) (float64, error) { return 1.5, nil },
			windowDPI: 120,
			wantDPI:   144,
			wantScale: 1.5,
		},
		{
			name:      "per-window dpi when no provider",
			windowDPI: 144,
			wantDPI:   144,
			wantScale: 1.5,
		},
		{
			name:       "system dpi when window query fails",
			failWindow: true,
			systemDPI:  120,
			wantDPI:    120,
			wantScale:  1.25,
		},
		{
			name:       "hardcoded default when everything fails",
			failWindow: true,
			failSystem: true,
			wantDPI:    96,
			wantScale:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := platformtest.New()
			fake.AddWindow(1, platformtest.Window{
				Client: platform.Rect{Width: 100, Height: 100},
				DPI:    tt.windowDPI,
			})
			fake.FailWindowDPI = tt.failWindow
			fake.FailSystemDPI = tt.failSystem
			if tt.systemDPI != 0 {
				fake.SetSystemDPI(tt.systemDPI)
			}

			opts := []winstate.CacheOption{}
			if tt.scale != nil {
				opts = append(opts, winstate.WithScaleProvider(tt.scale))
			}
			cache := winstate.NewCache(fake, time.Second, logging.Nop(), opts...)

			st, err := cache.Get(1, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.DPI != tt.wantDPI {
				t.Fatalf("expected dpi %d, got %d", tt.wantDPI, st.DPI)
			}
			if st.ScaleFactor != tt.wantScale {
				t.Fatalf("expected scale %v, got %v", tt.wantScale, st.ScaleFactor)
			}
		})
	}
}

func TestStateBorderMath(t *testing.T) {
	fake := platformtest.New()
	fake.AddWindow(1, platformtest.Window{
		Client: platform.Rect{X: 8, Y: 31, Width: 960, Height: 540},
		Frame:  platform.Rect{X: 0, Y: 0, Width: 976, Height: 579},
	})

	cache := winstate.NewCache(fake, time.Second, logging.Nop())
	st, err := cache.Get(1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.BorderWidth() != 16 || st.BorderHeight() != 39 {
		t.Fatalf("expected border (16,39), got (%d,%d)", st.BorderWidth(), st.BorderHeight())
	}
}
