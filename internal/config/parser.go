package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads configuration from an io.Reader. Unknown sections and keys are
// ignored so newer files still load.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		key, value, ok := splitEntry(line)
		if !ok {
			continue
		}
		if err := cfg.set(section, key, value); err != nil {
			where := "root section"
			if section != "" {
				where = "section [" + section + "]"
			}
			return nil, fmt.Errorf("line %d, %s: %w", lineNo, where, err)
		}
	}
	return cfg, scanner.Err()
}

// splitEntry accepts both "key = value" and "key: value". A value may be
// wrapped in double quotes.
func splitEntry(line string) (key, value string, ok bool) {
	sep := strings.IndexAny(line, "=:")
	if sep < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:sep]))
	value = strings.TrimSpace(line[sep+1:])
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

func (c *Config) set(section, key, value string) error {
	switch section {
	case "":
		switch key {
		case "server_url":
			c.ServerURL = value
		case "save_dir":
			c.SaveDir = value
		}
	case "notify":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		switch key {
		case "save":
			c.Notify.Save = b
		case "copy":
			c.Notify.Copy = b
		case "error":
			c.Notify.Error = b
		}
	case "serve":
		switch key {
		case "addr":
			c.Serve.Addr = value
		case "upload_dir":
			c.Serve.UploadDir = value
		case "max_upload_mb":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid size for key %s: %q", key, value)
			}
			c.Serve.MaxUploadMB = n
		}
	case "facecheck":
		if key == "cascade" {
			c.FaceCheck.Cascade = value
		}
	}
	return nil
}
