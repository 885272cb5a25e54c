package parser

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/scanner"
)

// DirScanner lists image files of a local directory. Option "recursive"
// descends into subdirectories.
type DirScanner struct{}

// NewDirScanner builds the directory strategy.
func NewDirScanner() *DirScanner {
	return &DirScanner{}
}

// Name identifies the strategy inside the registry.
func (d *DirScanner) Name() string {
	return "dir"
}

// Scan returns uploads sorted by path.
func (d *DirScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Upload, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("no path provided for source %s", req.SourceName)
	}
	recursive, _ := strconv.ParseBool(req.Option("recursive", "false"))

	var uploads []domain.Upload
	err := filepath.WalkDir(req.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if path != req.Path && !recursive {
				return filepath.SkipDir
			}
			return nil
		}

		mt, ok := mediaType(entry.Name())
		if !ok {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		uploads = append(uploads, domain.Upload{
			Name:      entry.Name(),
			Size:      info.Size(),
			MediaType: mt,
			Locator:   path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", req.Path, err)
	}

	sort.Slice(uploads, func(i, j int) bool { return uploads[i].Locator < uploads[j].Locator })
	return uploads, nil
}

func statUpload(path string) (domain.Upload, bool) {
	mt, ok := mediaType(path)
	if !ok {
		return domain.Upload{}, false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.Upload{}, false
	}
	return domain.Upload{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: mt,
		Locator:   path,
	}, true
}
