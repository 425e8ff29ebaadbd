package config

import (
	"fmt"
	"strings"
)

// DefaultServerURL is the processing service used when nothing else is set.
const DefaultServerURL = "http://127.0.0.1:8000"

// Notify holds notification settings.
type Notify struct {
	Save  bool
	Copy  bool
	Error bool
}

// Serve holds settings for the processing service.
type Serve struct {
	Addr        string
	UploadDir   string
	MaxUploadMB int
}

// FaceCheck holds face detection settings.
type FaceCheck struct {
	Cascade string
}

// Config holds the application configuration.
type Config struct {
	ServerURL string
	SaveDir   string
	Notify    Notify
	Serve     Serve
	FaceCheck FaceCheck
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		ServerURL: DefaultServerURL,
		Notify:    Notify{Error: true},
		Serve: Serve{
			Addr:        "127.0.0.1:8000",
			MaxUploadMB: 16,
		},
	}
}

// ApplyEnv overrides fields from PASSPORTFRAME_* variables. Empty values are
// ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for name, dst := range map[string]*string{
		"PASSPORTFRAME_SERVER_URL": &c.ServerURL,
		"PASSPORTFRAME_SAVE_DIR":   &c.SaveDir,
		"PASSPORTFRAME_ADDR":       &c.Serve.Addr,
		"PASSPORTFRAME_UPLOAD_DIR": &c.Serve.UploadDir,
		"PASSPORTFRAME_CASCADE":    &c.FaceCheck.Cascade,
	} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.ServerURL != "" {
		fmt.Fprintf(&sb, "server_url = %s\n", c.ServerURL)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)

	sb.WriteString("\n[serve]\n")
	if c.Serve.Addr != "" {
		fmt.Fprintf(&sb, "addr = %s\n", c.Serve.Addr)
	}
	if c.Serve.UploadDir != "" {
		fmt.Fprintf(&sb, "upload_dir = %s\n", c.Serve.UploadDir)
	}
	fmt.Fprintf(&sb, "max_upload_mb = %d\n", c.Serve.MaxUploadMB)

	if c.FaceCheck.Cascade != "" {
		sb.WriteString("\n[facecheck]\n")
		fmt.Fprintf(&sb, "cascade = %s\n", c.FaceCheck.Cascade)
	}
	return sb.String()
}
