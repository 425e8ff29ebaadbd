package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
# processing service
server_url = http://photos.local:9000
save_dir: "/tmp/passport photos"

[notify]
save = true
copy = false
error = false

[serve]
addr = :8080
upload_dir = /srv/uploads
max_upload_mb = 4

// face detection
[facecheck]
cascade = /opt/pigo/facefinder

[unknown]
anything = goes
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.ServerURL != "http://photos.local:9000" {
		t.Errorf("server_url %q", cfg.ServerURL)
	}
	if cfg.SaveDir != "/tmp/passport photos" {
		t.Errorf("save_dir %q", cfg.SaveDir)
	}
	if want := (Notify{Save: true}); cfg.Notify != want {
		t.Errorf("notify %+v, want %+v", cfg.Notify, want)
	}
	if want := (Serve{Addr: ":8080", UploadDir: "/srv/uploads", MaxUploadMB: 4}); cfg.Serve != want {
		t.Errorf("serve %+v, want %+v", cfg.Serve, want)
	}
	if cfg.FaceCheck.Cascade != "/opt/pigo/facefinder" {
		t.Errorf("cascade %q", cfg.FaceCheck.Cascade)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != DefaultServerURL || !cfg.Notify.Error || cfg.Serve.MaxUploadMB != 16 {
		t.Fatalf("defaults %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	for name, input := range map[string]string{
		"bool": "[notify]\nsave = sometimes\n",
		"size": "[serve]\nmax_upload_mb = -1\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCircular(t *testing.T) {
	cfg := New()
	cfg.SaveDir = "/home/user/photos"
	cfg.Notify = Notify{Save: true, Copy: true}
	cfg.Serve.UploadDir = "/var/tmp/up"
	cfg.FaceCheck.Cascade = "facefinder"

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}
	if *cfg != *cfg2 {
		t.Errorf("round trip mismatch:\n%+v\n%+v", cfg, cfg2)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	env := map[string]string{
		"PASSPORTFRAME_SERVER_URL": "http://env:1",
		"PASSPORTFRAME_CASCADE":    " ",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.ServerURL != "http://env:1" {
		t.Errorf("server_url %q", cfg.ServerURL)
	}
	if cfg.FaceCheck.Cascade != "" {
		t.Errorf("blank env value applied: %q", cfg.FaceCheck.Cascade)
	}
}

func testLoader(t *testing.T, version, override string) (*Loader, string, string) {
	t.Helper()
	home, wd := t.TempDir(), t.TempDir()
	l := NewLoader(version, override)
	l.homeDir = func() (string, error) { return home, nil }
	l.workDir = func() (string, error) { return wd, nil }
	return l, home, wd
}

func TestLoaderSearchOrder(t *testing.T) {
	l, home, wd := testLoader(t, "dev", "")
	if got := l.Path(); got != "" {
		t.Fatalf("expected no config, got %q", got)
	}

	xdg := filepath.Join(home, ".config", "passportframe", "config.rc")
	if err := Save(xdg, New()); err != nil {
		t.Fatal(err)
	}
	if got := l.Path(); got != xdg {
		t.Fatalf("path %q, want %q", got, xdg)
	}

	local := filepath.Join(wd, ".passportframerc")
	if err := os.WriteFile(local, []byte("save_dir = here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := l.Path(); got != local {
		t.Fatalf("dev build should prefer %q, got %q", local, got)
	}
	l.Version = "v1.0.0"
	if got := l.Path(); got != xdg {
		t.Fatalf("release build should ignore the working directory, got %q", got)
	}
}

func TestLoaderOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom.rc")
	if err := os.WriteFile(override, []byte("server_url = http://override\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, _, _ := testLoader(t, "dev", override)
	t.Setenv("PASSPORTFRAME_SERVER_URL", "")
	cfg, err := l.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://override" {
		t.Fatalf("server_url %q", cfg.ServerURL)
	}
	if l.DefaultPath() != override {
		t.Fatalf("default path %q", l.DefaultPath())
	}
}
