package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rumen/internal/config"
)

// Result describes one persisted result file.
type Result struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ListResults returns result files for the folder's output directory, newest
// first. An empty folder name lists the global output directory.
func ListResults(cfg *config.Config, folderName string, limit int) ([]Result, error) {
	dir := cfg.Paths.OutputDir
	if strings.TrimSpace(folderName) != "" {
		folder, ok := cfg.FolderByName(folderName)
		if !ok {
			return nil, fmt.Errorf("unknown folder %q", folderName)
		}
		dir = cfg.ResolveOutputDir(folder)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		results = append(results, Result{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ModTime.Equal(results[j].ModTime) {
			return results[i].Name > results[j].Name
		}
		return results[i].ModTime.After(results[j].ModTime)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
