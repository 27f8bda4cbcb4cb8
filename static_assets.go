package aquarium

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveStaticAssetsDir locates the directory holding the browser client
// (page markup, canvas renderer, fish sprites). The server streams fine
// without it; callers treat an error as "no static assets mounted".
func ResolveStaticAssetsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve static assets: %w", err)
	}
	if dir, ok := resolveStaticAssetsDirFrom(cwd); ok {
		return dir, nil
	}
	exePath, err := os.Executable()
	if err == nil {
		base := filepath.Dir(exePath)
		if dir, ok := resolveStaticAssetsDirFrom(base); ok {
			return dir, nil
		}
	}
	return "", fmt.Errorf("static assets directory not found")
}

func resolveStaticAssetsDirFrom(base string) (string, bool) {
	candidates := []string{
		filepath.Join(base, "static"),
		filepath.Join(base, "..", "static"),
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			return abs, true
		}
	}
	return "", false
}
