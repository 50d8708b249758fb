package generator

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/segmentio/fasthash/fnv1a"
)

const (
	dbFile    = "data"
	dbVersion = 1
)

// snapshot is the encoded form of a Database. Snapshots of another version
// are discarded.
type snapshot struct {
	Version int
	// hash of a script path -> hash of its content
	Scripts map[uint64]uint64
}

// A Database remembers a digest of the script last generated at each path,
// so unchanged scripts are not rewritten and make does not see them as new.
type Database struct {
	dir     string
	scripts map[uint64]uint64
}

// NewDatabase opens the database kept in dir. Missing, corrupt or outdated
// data yields an empty database, which only costs one rewrite per script.
func NewDatabase(dir string) *Database {
	db := &Database{dir: dir}
	scripts, err := readSnapshot(filepath.Join(dir, dbFile))
	if err != nil {
		scripts = make(map[uint64]uint64)
	}
	db.scripts = scripts
	return db
}

// NewCacheDatabase keeps the database of the project in wd below a shared
// cache directory.
func NewCacheDatabase(cache, wd string) *Database {
	return NewDatabase(filepath.Join(cache, url.PathEscape(wd)))
}

// Location returns the directory the database is saved to.
func (db *Database) Location() string {
	return db.dir
}

// Has reports whether content is what was last recorded for path.
func (db *Database) Has(path, content string) bool {
	h, ok := db.scripts[fnv1a.HashString64(path)]
	return ok && h == fnv1a.HashString64(content)
}

// Insert records content as the current script at path.
func (db *Database) Insert(path, content string) {
	db.scripts[fnv1a.HashString64(path)] = fnv1a.HashString64(content)
}

// Save writes the database. The previous data stays intact until the new
// data is complete.
func (db *Database) Save() error {
	if err := os.MkdirAll(db.dir, os.ModePerm); err != nil {
		return fmt.Errorf("save generator database: %w", err)
	}
	tmp, err := os.CreateTemp(db.dir, dbFile+".*")
	if err != nil {
		return fmt.Errorf("save generator database: %w", err)
	}
	err = writeSnapshot(tmp, snapshot{Version: dbVersion, Scripts: db.scripts})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), filepath.Join(db.dir, dbFile))
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save generator database: %w", err)
	}
	return nil
}

func writeSnapshot(w io.Writer, s snapshot) error {
	zw := gzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(s); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func readSnapshot(path string) (map[uint64]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var s snapshot
	if err := gob.NewDecoder(zr).Decode(&s); err != nil {
		return nil, err
	}
	if s.Version != dbVersion {
		return nil, fmt.Errorf("generator database version %d, want %d", s.Version, dbVersion)
	}
	if s.Scripts == nil {
		s.Scripts = make(map[uint64]uint64)
	}
	return s.Scripts, nil
}
