// Package ledger persists which artifact fingerprint was last applied to
// the relational mirror, table by table. The manifest and the mirror can
// diverge when a mirror update partially fails after the manifest has
// already advanced; the ledger lets a re-run find exactly the tables that
// never landed, even though the diff now reports them unchanged.
package ledger

import (
	"bufio"
	"bytes"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type Ledger struct {
	mu      sync.Mutex
	path    string
	applied map[string]string
}

// Load reads the ledger file. A missing file is an empty ledger: every
// manifest table will be applied, which is correct and idempotent.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, applied: map[string]string{}}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening ledger %v", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fp, table, ok := strings.Cut(line, " ")
		if !ok {
			return nil, errors.Errorf("ledger %v: malformed line %q", path, line)
		}
		l.applied[table] = fp
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading ledger %v", path)
	}
	return l, nil
}

// Applied reports whether the table's mirror already carries fp.
func (l *Ledger) Applied(table, fp string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applied[table] == fp
}

// Record marks fp as applied for table and persists the ledger.
func (l *Ledger) Record(table, fp string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applied[table] = fp
	return l.flush()
}

// Remove forgets a table, after its mirror copy was dropped.
func (l *Ledger) Remove(table string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.applied, table)
	return l.flush()
}

// Tables returns the tracked table names, sorted.
func (l *Ledger) Tables() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.applied))
	for name := range l.applied {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Ledger) flush() error {
	buf := bytes.Buffer{}
	names := make([]string, 0, len(l.applied))
	for name := range l.applied {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buf.WriteString(l.applied[name])
		buf.WriteByte(' ')
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return errors.Wrapf(os.WriteFile(l.path, buf.Bytes(), 0o644), "writing ledger %v", l.path)
}
