package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/synclist/pkg/core"
)

// EntryPattern matches journal entry file names (e.g. "000000000042.event.yaml").
const EntryPattern = "*.event.{json,yaml,yml}"

// Journal persists change events as one file per event, named by a
// monotonically increasing sequence number. An entry is never overwritten,
// even by a writer in another process; any number of readers may list and
// read it concurrently.
type Journal[T any] struct {
	Dir string
	// Format is the extension used by Append (".json", ".yaml" or ".yml").
	Format string

	serializers map[string]Serializer

	mu   sync.Mutex
	last uint64
	scan bool
}

// Ref points at one journal entry on disk.
type Ref struct {
	Seq  uint64
	Path string
}

// Entry is a decoded journal entry.
type Entry[T any] struct {
	Ref
	Event core.ChangeEvent[T]
}

// NewJournal creates a journal rooted at dir. An empty format means ".json".
func NewJournal[T any](dir, format string) *Journal[T] {
	if format == "" {
		format = ".json"
	}
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return &Journal[T]{
		Dir:         dir,
		Format:      format,
		serializers: DefaultSerializers(),
	}
}

// Initialize creates the journal directory if needed.
func (j *Journal[T]) Initialize() error {
	if _, ok := j.serializers[j.Format]; !ok {
		return fmt.Errorf("unsupported journal format %q: %w", j.Format, core.ErrInvalidArgument)
	}
	if err := os.MkdirAll(j.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}
	return nil
}

// maxAppendAttempts bounds retries when concurrent writers race for a sequence number.
const maxAppendAttempts = 8

// Append writes ev as the next entry and returns its sequence number.
// An existing entry is never overwritten; if another writer took the number,
// Append rescans the directory and tries the next free one.
func (j *Journal[T]) Append(ev core.ChangeEvent[T]) (uint64, error) {
	s, ok := j.serializers[j.Format]
	if !ok {
		return 0, fmt.Errorf("unsupported journal format %q: %w", j.Format, core.ErrInvalidArgument)
	}
	data, err := s.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", ev, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.scan {
		last, err := j.lastSeq()
		if err != nil {
			return 0, err
		}
		j.last, j.scan = last, true
	}

	for attempt := 0; ; attempt++ {
		seq := j.last + 1
		err := j.taken(seq)
		if err == nil {
			err = writeEntry(filepath.Join(j.Dir, entryName(seq, j.Format)), data, 0644)
		}
		if err == nil {
			j.last = seq
			return seq, nil
		}
		if !errors.Is(err, ErrEntryExists) || attempt >= maxAppendAttempts {
			return 0, err
		}
		// Another writer got there first: move past whatever is on disk now.
		last, scanErr := j.lastSeq()
		if scanErr != nil {
			return 0, scanErr
		}
		j.last = max(last, seq)
	}
}

// List returns references to the entries with a sequence number greater than after, in order.
func (j *Journal[T]) List(after uint64) ([]Ref, error) {
	dirEntries, err := os.ReadDir(j.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}

	var refs []Ref
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		seq, ok := parseEntryName(de.Name())
		if !ok || seq <= after {
			continue
		}
		refs = append(refs, Ref{Seq: seq, Path: filepath.Join(j.Dir, de.Name())})
	}

	slices.SortFunc(refs, func(a, b Ref) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return refs, nil
}

// Read decodes the entry behind ref. Decoding validates the event.
func (j *Journal[T]) Read(ref Ref) (Entry[T], error) {
	s, ok := j.serializers[filepath.Ext(ref.Path)]
	if !ok {
		return Entry[T]{}, fmt.Errorf("no serializer for %s", filepath.Base(ref.Path))
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return Entry[T]{}, fmt.Errorf("failed to read entry %d: %w", ref.Seq, err)
	}

	var ev core.ChangeEvent[T]
	if err := s.Unmarshal(data, &ev); err != nil {
		return Entry[T]{}, fmt.Errorf("entry %d: %w", ref.Seq, err)
	}
	return Entry[T]{Ref: ref, Event: ev}, nil
}

// Entries lists and decodes every entry after the given sequence number.
// It stops at the first entry that cannot be decoded.
func (j *Journal[T]) Entries(after uint64) ([]Entry[T], error) {
	refs, err := j.List(after)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry[T], 0, len(refs))
	for _, ref := range refs {
		e, err := j.Read(ref)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (j *Journal[T]) lastSeq() (uint64, error) {
	refs, err := j.List(0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}
	return refs[len(refs)-1].Seq, nil
}

// taken reports ErrEntryExists if seq is already used in any format.
func (j *Journal[T]) taken(seq uint64) error {
	for ext := range j.serializers {
		_, err := os.Lstat(filepath.Join(j.Dir, entryName(seq, ext)))
		if err == nil {
			return fmt.Errorf("%s: %w", entryName(seq, ext), ErrEntryExists)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check entry %d: %w", seq, err)
		}
	}
	return nil
}

func entryName(seq uint64, ext string) string {
	return fmt.Sprintf("%012d.event%s", seq, ext)
}

// parseEntryName extracts the sequence number from an entry file name.
func parseEntryName(name string) (uint64, bool) {
	if match, err := doublestar.Match(EntryPattern, name); err != nil || !match {
		return 0, false
	}
	prefix, _, _ := strings.Cut(name, ".")
	seq, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil || seq == 0 {
		return 0, false
	}
	return seq, true
}
