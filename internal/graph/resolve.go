package graph

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnresolvable is returned when a locator cannot be turned into an engine reference.
var ErrUnresolvable = errors.New("graph: source locator cannot be resolved")

// Resolve turns a locator into the reference the engine consumes: a file:// URI
// for image and video files, the device path for live devices.
func Resolve(src Source) (string, error) {
	loc := strings.TrimSpace(src.Locator)
	if loc == "" {
		return "", fmt.Errorf("%w: empty locator", ErrUnresolvable)
	}

	switch src.Kind {
	case KindImage, KindVideo:
		return fileURI(loc)
	case KindLiveVideoDevice:
		if _, err := os.Stat(loc); err != nil {
			return "", fmt.Errorf("%w: device %s: %v", ErrUnresolvable, loc, err)
		}
		return loc, nil
	default:
		return "", fmt.Errorf("%w: unsupported source kind %v", ErrUnresolvable, src.Kind)
	}
}

func fileURI(loc string) (string, error) {
	path := loc
	if strings.Contains(loc, "://") {
		u, err := url.Parse(loc)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnresolvable, loc, err)
		}
		if u.Scheme != "file" {
			return "", fmt.Errorf("%w: %s: only file:// URIs are supported", ErrUnresolvable, loc)
		}
		path = u.Path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnresolvable, loc, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnresolvable, loc, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnresolvable, loc)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
