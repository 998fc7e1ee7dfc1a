package storage

import (
	"context"
	json "github.com/goccy/go-json"
	"os"
	"sync"
)

// FileStore keeps the whole key space in one compressed JSON file that is
// rewritten through a temp file and rename on every Set.
type FileStore struct {
	mu         sync.Mutex
	path       string
	compressor CompressorInterface
}

func NewFileStore(path string, compressor CompressorInterface) *FileStore {
	return &FileStore{
		path:       path,
		compressor: compressor,
	}
}

func (f *FileStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *FileStore) Set(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		all[k] = v
	}
	return f.save(all)
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) load() (map[string][]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]byte), nil
		}
		return nil, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, err
	}

	all := make(map[string][]byte)
	if err := json.Unmarshal(decompressed, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (f *FileStore) save(all map[string][]byte) error {
	jsonData, err := json.Marshal(all)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := f.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, f.path)
}
