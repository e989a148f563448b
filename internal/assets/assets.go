// Package assets holds the static payloads of the consent page.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File names of the page assets
const (
	HTMLFile = "gdpr.html"
	JSFile   = "gdpr.js"
	CSSFile  = "gdpr.css"
)

//go:embed gdpr.html gdpr.js gdpr.css
var embedded embed.FS

// Assets are the page, script and stylesheet served under /gdpr
type Assets struct {
	HTML []byte
	JS   []byte
	CSS  []byte
}

// Default returns the embedded assets
func Default() *Assets {
	a := &Assets{}
	if err := load(embedded, ".", a, true); err != nil {
		// the files are compiled in, so this only fails on a broken build
		panic(err)
	}
	return a
}

// Load returns the embedded assets with any file found in dir taking
// precedence. An empty dir yields the embedded defaults.
func Load(dir string) (*Assets, error) {
	a := Default()
	if dir == "" {
		return a, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %s is not a directory", dir)
	}

	if err := load(os.DirFS(dir), dir, a, false); err != nil {
		return nil, err
	}
	return a, nil
}

func load(fsys fs.FS, origin string, a *Assets, required bool) error {
	targets := []struct {
		name string
		dst  *[]byte
	}{
		{HTMLFile, &a.HTML},
		{JSFile, &a.JS},
		{CSSFile, &a.CSS},
	}
	for _, target := range targets {
		data, err := fs.ReadFile(fsys, target.name)
		if err != nil {
			if !required && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read asset %s: %w", filepath.Join(origin, target.name), err)
		}
		*target.dst = data
	}
	return nil
}
