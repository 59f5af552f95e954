package ledger

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"recuento/internal/core"
)

const filePrefix = "DEV_"

// Store is the only component that reads or writes day ledger files. It
// serializes writers per bucket and replaces files atomically, so a reader
// never observes a half-written file.
type Store struct {
	dir     string
	columns []string

	mu      sync.Mutex
	buckets map[core.BucketKey]*sync.Mutex
}

// File is a parsed handle on one day ledger file. It identifies the bucket;
// mutations re-read the file on disk under the bucket lock, so a handle can
// be held across appends without going stale.
type File struct {
	Bucket core.BucketKey
	Path   string

	rows [][]string
}

// NewStore opens (creating if needed) the ledger directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &Store{
		dir:     dir,
		columns: core.Headers,
		buckets: make(map[core.BucketKey]*sync.Mutex),
	}, nil
}

// FileName derives the deterministic file name for a bucket.
func FileName(key core.BucketKey) string {
	return filePrefix + string(key) + ".csv"
}

func (s *Store) path(key core.BucketKey) string {
	return filepath.Join(s.dir, FileName(key))
}

// bucketLock returns the mutex serializing writers for one bucket.
func (s *Store) bucketLock(key core.BucketKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.buckets[key]
	if !ok {
		lock = &sync.Mutex{}
		s.buckets[key] = lock
	}
	return lock
}

// EnsureFile opens the bucket's day file, creating it with the fixed title
// and header rows when absent. An existing file whose header does not match
// the expected columns fails with *CorruptLedgerError.
func (s *Store) EnsureFile(ctx context.Context, key core.BucketKey) (*File, error) {
	lock := s.bucketLock(key)
	lock.Lock()
	defer lock.Unlock()
	return s.ensureLocked(ctx, key)
}

func (s *Store) ensureLocked(ctx context.Context, key core.BucketKey) (*File, error) {
	path := s.path(key)
	f := &File{Bucket: key, Path: path}

	rows, err := readRows(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", FileName(key), err)
	}
	if rows == nil {
		rows = newFileRows(s.columns)
		if err := writeRowsAtomic(path, rows); err != nil {
			return nil, fmt.Errorf("create ledger %s: %w", FileName(key), err)
		}
		slog.InfoContext(ctx, "Ledger file created",
			"bucket", key, "file", FileName(key))
	} else if err := validateStructure(key, FileName(key), rows, s.columns); err != nil {
		return nil, err
	}

	f.rows = rows
	return f, nil
}

// AppendEntries inserts entries as data rows after the last existing data
// row and before any trailing total-marker row. The whole read-parse-modify-
// write cycle runs under the bucket lock and the file is swapped into place
// atomically: either all rows land, or the file keeps its prior state.
func (s *Store) AppendEntries(ctx context.Context, f *File, entries []core.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	lock := s.bucketLock(f.Bucket)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; the handle may predate another writer.
	fresh, err := s.ensureLocked(ctx, f.Bucket)
	if err != nil {
		return err
	}

	rows := fresh.rows
	at := insertionIndex(rows)
	inserted := make([][]string, len(entries))
	for i, e := range entries {
		inserted[i] = e.Fields()
	}
	rows = append(rows[:at:at], append(inserted, rows[at:]...)...)

	if err := writeRowsAtomic(f.Path, rows); err != nil {
		return fmt.Errorf("write ledger %s: %w", FileName(f.Bucket), err)
	}

	f.rows = rows
	slog.InfoContext(ctx, "Ledger entries appended",
		"bucket", f.Bucket, "file", FileName(f.Bucket), "rows", len(entries))
	return nil
}

// ListEntries decodes the data rows of the file, keeping entries whose date
// falls within [from, to]. Zero bounds are open. Rows whose date does not
// parse are kept: they belong to the file's bucket and must not be dropped.
// Persisted amounts are canonical dot-decimal regardless of the input
// separator convention, so rows are always decoded with the dot style.
func (s *Store) ListEntries(ctx context.Context, f *File, from, to core.Date) ([]core.Entry, error) {
	rows, err := readRows(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", FileName(f.Bucket), err)
	}
	if rows == nil {
		return nil, nil
	}

	var entries []core.Entry
	for _, row := range dataRows(rows) {
		e := core.EntryFromRow(row, core.SeparatorDot)
		if !e.Fecha.IsUnknown() {
			if !from.IsUnknown() && e.Fecha.Before(from.Time) {
				continue
			}
			if !to.IsUnknown() && e.Fecha.After(to.Time) {
				continue
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// dataRows returns the contiguous data block: rows after the header, up to
// the first total-marker row, skipping blanks.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= DataRowIndex {
		return nil
	}
	var out [][]string
	for _, row := range rows[DataRowIndex:] {
		if isTotalMarker(row) {
			break
		}
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}

var dayFilePattern = regexp.MustCompile(`^DEV_(\d{8})\.csv$`)

// MonthBuckets scans the ledger directory for day files of the given month,
// sorted by date. The unknown-date sentinel never matches: it is excluded
// from date-scoped reports by construction.
func (s *Store) MonthBuckets(year, month int) ([]core.BucketKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan ledger directory: %w", err)
	}
	prefix := fmt.Sprintf("%04d%02d", year, month)
	var keys []core.BucketKey
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		m := dayFilePattern.FindStringSubmatch(ent.Name())
		if m == nil || !strings.HasPrefix(m[1], prefix) {
			continue
		}
		keys = append(keys, core.BucketKey(m[1]))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// readRows loads a ledger file preserving blank structural rows. Returns
// (nil, nil) when the file does not exist. Files are one CSV record per
// line; data cells never contain newlines (the normalizer strips them).
func readRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows := [][]string{}
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			rows = append(rows, []string{})
			continue
		}
		r := csv.NewReader(strings.NewReader(line))
		r.FieldsPerRecord = -1
		record, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("parse row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, record)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// writeRowsAtomic writes rows to a temporary file in the same directory and
// renames it into place, so a failed or timed-out write never leaves the
// ledger mid-rewrite.
func writeRowsAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		tmp = nil
		os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
