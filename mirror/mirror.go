// Package mirror keeps the serverless relational store in sync with the
// published manifest. Each table is replaced atomically: rows are bulk
// loaded into a shadow table which is then swapped over the live one, so
// readers never observe a half-populated table.
package mirror

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"martpub/artifact"
	"martpub/consts"
	"martpub/ledger"
	"martpub/log"
	"martpub/model"
	"martpub/staging"
	"martpub/store"
	"martpub/util"
)

type Action string

const (
	ActionReplace Action = "replace"
	ActionDrop    Action = "drop"
	ActionSkip    Action = "skip"
)

// Result reports the outcome of one table's mirror update.
type Result struct {
	Table  string
	Action Action
	Err    error
}

type Updater struct {
	db  *DB
	dir staging.Dir
	st  store.Store
	led *ledger.Ledger
}

func NewUpdater(db *DB, dir staging.Dir, st store.Store, led *ledger.Ledger) *Updater {
	return &Updater{db: db, dir: dir, st: st, led: led}
}

// Run reconciles the mirror against a durable, already-published manifest.
// Work is derived from manifest x ledger rather than the change set: after
// a partial failure the diff reports already-published tables unchanged,
// but the ledger still knows which ones never landed. Tables are updated
// best-effort on a bounded pool; any failure makes the whole run fail with
// the failing tables enumerated, without stopping the others.
func (u *Updater) Run(ctx context.Context, manifest *model.Manifest) ([]Result, error) {
	var results []Result
	var todo []func() Result

	for _, table := range manifest.TableNames() {
		table, entry := table, manifest.Tables[table]
		if u.led.Applied(table, entry.Fingerprint) {
			results = append(results, Result{Table: table, Action: ActionSkip})
			log.Debugf("mirror %s already at %s, skipped", table, util.ShortFP(entry.Fingerprint))
			continue
		}
		todo = append(todo, func() Result {
			return Result{Table: table, Action: ActionReplace, Err: u.replace(ctx, table, entry)}
		})
	}
	for _, table := range u.led.Tables() {
		table := table
		if _, ok := manifest.Tables[table]; ok {
			continue
		}
		todo = append(todo, func() Result {
			return Result{Table: table, Action: ActionDrop, Err: u.drop(ctx, table)}
		})
	}

	mu := sync.Mutex{}
	limit := make(chan bool, consts.MirrorLimit)
	for i := 0; i < cap(limit); i++ {
		limit <- true
	}
	wg := sync.WaitGroup{}
	wg.Add(len(todo))
	for i := range todo {
		work := todo[i]
		<-limit
		go func() {
			defer func() {
				limit <- true
				wg.Done()
			}()
			res := work()
			if res.Err != nil {
				log.Errorf("mirror %s of %s failed: %v", res.Action, res.Table, res.Err)
			} else {
				log.Infof("mirror %s of %s done", res.Action, res.Table)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Table < results[j].Table })
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Table)
		}
	}
	if len(failed) > 0 {
		return results, errors.Errorf("mirror update failed for %d table(s): %s",
			len(failed), strings.Join(failed, ", "))
	}
	return results, nil
}

func (u *Updater) replace(ctx context.Context, table string, entry model.Artifact) error {
	path, err := u.ensureArtifact(ctx, table, entry)
	if err != nil {
		return err
	}
	schema, rows, err := artifact.Read(ctx, path, table)
	if err != nil {
		return err
	}

	staged := table + consts.StagingSuffix
	// A crashed earlier run may have left the shadow table behind.
	if _, err := u.db.Exec(ctx, "DROP TABLE IF EXISTS "+u.db.dialect.quote(staged)); err != nil {
		return errors.Wrapf(err, "dropping stale shadow table %v", staged)
	}

	if u.db.dialect.txSwap() {
		err = u.replaceInTx(ctx, table, staged, schema, rows)
	} else {
		err = u.replaceWithRename(ctx, table, staged, schema, rows)
	}
	if err != nil {
		return err
	}
	return u.led.Record(table, entry.Fingerprint)
}

// replaceInTx loads and swaps inside a single transaction (SQLite).
func (u *Updater) replaceInTx(ctx context.Context, live, staged string, schema model.Schema, rows []model.Row) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, u.db.dialect.createTable(staged, schema)); err != nil {
		return errors.Wrapf(err, "creating shadow table %v", staged)
	}
	if err := insertChunks(ctx, tx, u.db.dialect, staged, schema, rows); err != nil {
		return err
	}
	stmts, err := u.db.dialect.swapStmts(ctx, u.db, live, staged)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "swapping %v into place", live)
		}
	}
	return tx.Commit()
}

// replaceWithRename loads in a transaction and swaps with an atomic rename
// afterwards, for stores whose DDL commits implicitly (MySQL).
func (u *Updater) replaceWithRename(ctx context.Context, live, staged string, schema model.Schema, rows []model.Row) error {
	if _, err := u.db.Exec(ctx, u.db.dialect.createTable(staged, schema)); err != nil {
		return errors.Wrapf(err, "creating shadow table %v", staged)
	}
	cleanup := func() {
		_, _ = u.db.Exec(ctx, "DROP TABLE IF EXISTS "+u.db.dialect.quote(staged))
	}
	tx, err := u.db.Begin(ctx)
	if err != nil {
		cleanup()
		return err
	}
	if err := insertChunks(ctx, tx, u.db.dialect, staged, schema, rows); err != nil {
		_ = tx.Rollback()
		cleanup()
		return err
	}
	if err := tx.Commit(); err != nil {
		cleanup()
		return err
	}
	stmts, err := u.db.dialect.swapStmts(ctx, u.db, live, staged)
	if err != nil {
		cleanup()
		return err
	}
	for _, stmt := range stmts {
		if _, err := u.db.Exec(ctx, stmt); err != nil {
			cleanup()
			return errors.Wrapf(err, "swapping %v into place", live)
		}
	}
	return nil
}

func (u *Updater) drop(ctx context.Context, table string) error {
	if _, err := u.db.Exec(ctx, "DROP TABLE IF EXISTS "+u.db.dialect.quote(table)); err != nil {
		return errors.Wrapf(err, "dropping removed table %v", table)
	}
	return u.led.Remove(table)
}

// ensureArtifact returns the local path of the table's staged artifact,
// fetching it from the object store when the staging copy is missing or
// does not match the manifest fingerprint. A fresh machine can therefore
// reconcile the mirror from remote state alone.
func (u *Updater) ensureArtifact(ctx context.Context, table string, entry model.Artifact) (string, error) {
	path := u.dir.ArtifactPath(table)
	if fp, _, err := artifact.Fingerprint(path); err == nil && fp == entry.Fingerprint {
		return path, nil
	}
	data, err := u.st.Get(ctx, entry.Key)
	if err != nil {
		return "", errors.Wrapf(err, "fetching artifact %v", entry.Key)
	}
	if fp := artifact.FingerprintBytes(data); fp != entry.Fingerprint {
		return "", errors.Errorf("artifact %v does not match manifest fingerprint", entry.Key)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "staging fetched artifact for %v", table)
	}
	return path, nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, d dialect, table string, schema model.Schema, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = d.quote(c.Name)
	}
	rowHole := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	prefix := "INSERT INTO " + d.quote(table) + " (" + strings.Join(cols, ", ") + ") VALUES "

	for start := 0; start < len(rows); start += consts.InsertBatch {
		end := start + consts.InsertBatch
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		buf := strings.Builder{}
		buf.WriteString(prefix)
		args := make([]interface{}, 0, len(chunk)*len(cols))
		for i, row := range chunk {
			if len(row) != len(cols) {
				return errors.Errorf("row %d of %v has %d values, want %d", start+i, table, len(row), len(cols))
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(rowHole)
			for _, v := range row {
				args = append(args, v.Arg())
			}
		}
		if _, err := tx.ExecContext(ctx, buf.String(), args...); err != nil {
			return errors.Wrapf(err, "inserting rows %d..%d into %v", start, end, table)
		}
	}
	return nil
}
