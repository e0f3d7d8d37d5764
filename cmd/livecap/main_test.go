package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/livecap/internal/config"
	"github.com/verte-zerg/livecap/internal/logging"
	"github.com/verte-zerg/livecap/internal/model"
)

func setCaptureFlags(t *testing.T, lang, position string, opacity, intervalMS, graceMS int) {
	t.Helper()
	prev := []any{captureLang, capturePosition, captureOpacity, captureIntervalMS, captureGraceMS}
	t.Cleanup(func() {
		captureLang = prev[0].(string)
		capturePosition = prev[1].(string)
		captureOpacity = prev[2].(int)
		captureIntervalMS = prev[3].(int)
		captureGraceMS = prev[4].(int)
	})
	captureLang, capturePosition = lang, position
	captureOpacity, captureIntervalMS, captureGraceMS = opacity, intervalMS, graceMS
}

func TestBuildCaptureConfig(t *testing.T) {
	setCaptureFlags(t, "German", "Bottom Right", 65, 250, 0)
	cfg, err := buildCaptureConfig()
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if cfg.Lang != "de-DE" || cfg.Position != model.BottomRight || cfg.Opacity != 65 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PollInterval != 250*time.Millisecond || cfg.LaunchGrace != 0 {
		t.Fatalf("unexpected durations %+v", cfg)
	}
}

func TestBuildCaptureConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name                     string
		lang, pos                string
		opacity, interval, grace int
	}{
		{"language", "xx", defaultPosition, 80, 500, 0},
		{"position", defaultLang, "middle", 80, 500, 0},
		{"opacity", defaultLang, defaultPosition, 101, 500, 0},
		{"interval", defaultLang, defaultPosition, 80, 0, 0},
		{"grace", defaultLang, defaultPosition, 80, 500, -1},
	}
	for _, tc := range cases {
		setCaptureFlags(t, tc.lang, tc.pos, tc.opacity, tc.interval, tc.grace)
		if _, err := buildCaptureConfig(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Capture.Opacity != nil || cfg.Target.Process != nil {
		t.Fatalf("expected all template values to be commented out")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"tail", "history", "show", "langs", "config", "doctor"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("expected %s subcommand: %v", name, err)
		}
	}
	if root.PersistentFlags().Lookup("opacity") == nil {
		t.Fatalf("expected persistent --opacity flag")
	}
}

type recordingSettings struct {
	positions []model.Position
	opacities []model.Opacity
}

func (r *recordingSettings) SetPosition(pos model.Position) {
	r.positions = append(r.positions, pos)
}

func (r *recordingSettings) SetOpacity(opacity model.Opacity) error {
	if err := opacity.Validate(); err != nil {
		return err
	}
	r.opacities = append(r.opacities, opacity)
	return nil
}

func TestApplyReloadSkipsPinnedFlags(t *testing.T) {
	pos, opacity := "center-top", 40
	fc := config.FileConfig{Capture: config.CaptureConfig{Position: &pos, Opacity: &opacity}}

	target := &recordingSettings{}
	applyReload(target, fc, map[string]bool{"position": true}, logging.NewNop())
	if len(target.positions) != 0 {
		t.Fatalf("expected the --position flag to win, got %v", target.positions)
	}
	if len(target.opacities) != 1 || target.opacities[0] != 40 {
		t.Fatalf("expected opacity from file, got %v", target.opacities)
	}

	target = &recordingSettings{}
	applyReload(target, fc, nil, logging.NewNop())
	if len(target.positions) != 1 || target.positions[0] != model.CenterTop {
		t.Fatalf("expected position from file, got %v", target.positions)
	}
}

func TestApplyReloadIgnoresInvalidValues(t *testing.T) {
	pos, opacity := "middle", 150
	fc := config.FileConfig{Capture: config.CaptureConfig{Position: &pos, Opacity: &opacity}}
	target := &recordingSettings{}
	applyReload(target, fc, nil, logging.NewNop())
	if len(target.positions) != 0 || len(target.opacities) != 0 {
		t.Fatalf("expected invalid values to be skipped, got %+v", target)
	}
	if err := target.SetOpacity(150); !errors.Is(err, model.ErrInvalidOpacity) {
		t.Fatalf("expected ErrInvalidOpacity, got %v", err)
	}
}
