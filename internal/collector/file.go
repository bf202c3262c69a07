package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"EquitySheet/internal/model"
)

// FileProvider reads payloads from <Dir>/<CODE.EXCH>.json. A shared
// <Dir>/benchmark.json, when present, fills payloads without a benchmark.
type FileProvider struct {
	Dir string
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir}
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Fetch(ctx context.Context, key model.SecurityKey, _ time.Time) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p Payload
	if err := readJSON(filepath.Join(f.Dir, key.String()+".json"), &p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.UnresolvableSecurityError{Identifier: key.String()}
		}
		return nil, err
	}
	if len(p.Benchmark) == 0 {
		var bench []DatedDTO
		err := readJSON(filepath.Join(f.Dir, "benchmark.json"), &bench)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		p.Benchmark = bench
	}
	return &p, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
