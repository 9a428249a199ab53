package radio

import (
	"context"
	"errors"
	"testing"

	"github.com/coex-control/coexd/internal/coex"
)

func TestLoopbackApply(t *testing.T) {
	l := NewLoopback()
	ctx := context.Background()

	if err := l.ApplyPower(ctx, coex.TechnologyWiFi, 93); err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyChannel(ctx, coex.TechnologyBLE, 5); err != nil {
		t.Fatal(err)
	}

	if p, ok := l.Power(coex.TechnologyWiFi); !ok || p != 93 {
		t.Errorf("wifi power: got (%d, %v), want (93, true)", p, ok)
	}
	if _, ok := l.Power(coex.TechnologyBLE); ok {
		t.Error("ble power must be unset")
	}
	if ch, ok := l.Channel(coex.TechnologyBLE); !ok || ch != 5 {
		t.Errorf("ble channel: got (%d, %v), want (5, true)", ch, ok)
	}
}

func TestLoopbackRejectsInvalidSettings(t *testing.T) {
	l := NewLoopback()
	ctx := context.Background()

	if err := l.ApplyPower(ctx, coex.TechnologyWiFi, 0); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("power 0: got %v, want ErrInvalidSetting", err)
	}
	if err := l.ApplyPower(ctx, coex.TechnologyWiFi, 101); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("power 101: got %v, want ErrInvalidSetting", err)
	}
	if err := l.ApplyChannel(ctx, coex.TechnologyWiFi, -1); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("channel -1: got %v, want ErrInvalidSetting", err)
	}
}
