// Package service contains the user directory store.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/model"
	"github.com/and161185/userdir/internal/remote"
	"github.com/and161185/userdir/internal/view"
)

// Seeder is the remote side: one listing for seeding, one write per create.
type Seeder interface {
	FetchUsers(ctx context.Context) ([]remote.User, error)
	Mirror(ctx context.Context, u model.User) error
}

// SnapshotStore persists whole directory snapshots.
type SnapshotStore interface {
	Load(ctx context.Context) (model.Snapshot, bool, error)
	Save(ctx context.Context, snap model.Snapshot) error
	Clear(ctx context.Context) error
}

// Recorder receives operation metrics. *metrics.Metrics implements it.
type Recorder interface {
	Operation(op, outcome string)
	DirectorySize(n int)
	SeedFetch(d time.Duration)
}

// IDPolicy selects how ids are allocated on create.
type IDPolicy string

const (
	// IDMaxPlusOne assigns max(existing ids)+1, or 1 for an empty directory.
	// A deleted max id can be handed out again.
	IDMaxPlusOne IDPolicy = "max"
	// IDMonotonic never reissues an id: a persisted high-water mark only grows.
	IDMonotonic IDPolicy = "monotonic"
)

// MirrorMode selects how the remote mirror call on create affects the local commit.
type MirrorMode string

const (
	// MirrorBestEffort commits locally whatever the mirror outcome; failures are logged.
	MirrorBestEffort MirrorMode = "best-effort"
	// MirrorStrict aborts the create when the mirror call fails.
	MirrorStrict MirrorMode = "strict"
	// MirrorOff never calls the remote on create.
	MirrorOff MirrorMode = "off"
)

// Options tune store behavior.
type Options struct {
	IDPolicy   IDPolicy
	MirrorMode MirrorMode
}

type state int

const (
	stateIdle state = iota
	stateLoading
	stateReady
	stateFailed
	stateBroken // the cache exists but cannot be read safely; nothing may overwrite it
)

// Directory owns the user list and keeps the snapshot store equal to it after every mutation.
//
// Operations run one at a time: opMu serializes Init and all mutations, mu guards
// the fields for concurrent readers. Mutations are refused while loading.
type Directory struct {
	opMu sync.Mutex
	mu   sync.RWMutex

	users   []model.User
	nextID  int
	state   state
	lastErr error

	seeder Seeder
	store  SnapshotStore
	log    *zap.Logger
	rec    Recorder
	opts   Options
}

// NewDirectory constructs the store. rec may be nil.
func NewDirectory(seeder Seeder, store SnapshotStore, log *zap.Logger, rec Recorder, opts Options) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if opts.IDPolicy == "" {
		opts.IDPolicy = IDMaxPlusOne
	}
	if opts.MirrorMode == "" {
		opts.MirrorMode = MirrorBestEffort
	}
	return &Directory{seeder: seeder, store: store, log: log, rec: rec, opts: opts}
}

// Start waits for delay (the bootstrap placeholder period) and then runs Init.
func (d *Directory) Start(ctx context.Context, delay time.Duration) error {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return d.Init(ctx)
}

// Init populates the directory once: from the snapshot store if it holds users,
// otherwise from the remote seed listing. A failed fetch leaves the directory
// empty and is reported by Status until the next Reset.
func (d *Directory) Init(ctx context.Context) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	if d.state != stateIdle {
		d.mu.Unlock()
		return nil
	}
	d.state = stateLoading
	d.mu.Unlock()

	snap, found, err := d.store.Load(ctx)
	switch {
	case errors.Is(err, errs.ErrCacheSealed), errors.Is(err, errs.ErrCacheVersion):
		d.mu.Lock()
		d.state, d.lastErr = stateBroken, err
		d.mu.Unlock()
		d.rec.Operation("init", ErrorClass(err))
		d.log.Error("cache cannot be opened", zap.Error(err))
		return err
	case err != nil:
		d.log.Warn("cache unreadable, reseeding", zap.Error(err))
		found = false
	}
	// an empty enveloped cache was emptied on purpose; an empty legacy array was never seeded
	if found && (len(snap.Users) > 0 || snap.Version > 0) {
		d.finish(snap.Users, snap.NextID, nil)
		d.rec.Operation("init", "cache")
		d.log.Info("directory loaded from cache", zap.Int("count", len(snap.Users)), zap.Int("version", snap.Version))
		return nil
	}

	start := time.Now()
	remoteUsers, err := d.seeder.FetchUsers(ctx)
	d.rec.SeedFetch(time.Since(start))
	if err != nil {
		ferr := fmt.Errorf("%w: %v", errs.ErrFetchFailed, err)
		d.finish(nil, 0, ferr)
		d.rec.Operation("init", ErrorClass(ferr))
		d.log.Error("seed fetch failed", zap.Error(err))
		return ferr
	}

	users := make([]model.User, 0, len(remoteUsers))
	for _, r := range remoteUsers {
		users = append(users, remote.ToUser(r))
	}
	if err := d.store.Save(ctx, d.snapshot(users, 0)); err != nil {
		// the seeded users are still served; the next mutation retries the write
		d.log.Warn("persist seeded users failed", zap.Error(err))
	}
	d.finish(users, 0, nil)
	d.rec.Operation("init", "seed")
	d.log.Info("directory seeded", zap.Int("count", len(users)))
	return nil
}

func (d *Directory) finish(users []model.User, nextID int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = users
	d.nextID = nextID
	d.lastErr = err
	if err != nil {
		d.state = stateFailed
	} else {
		d.state = stateReady
	}
	d.rec.DirectorySize(len(users))
}

// Add assigns an id to u, mirrors it to the remote per MirrorMode, appends and persists it.
// On failure the directory is unchanged and the error wraps errs.ErrCreateFailed.
func (d *Directory) Add(ctx context.Context, u model.User) (model.User, error) {
	if err := d.ready(); err != nil {
		return model.User{}, err
	}
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if err := d.ready(); err != nil {
		return model.User{}, err
	}

	cur, nextID := d.current()
	u.ID = allocateID(cur, nextID, d.opts.IDPolicy)
	if u.Department == "" {
		u.Department = model.UnknownDepartment
	}

	switch d.opts.MirrorMode {
	case MirrorOff:
	case MirrorStrict:
		if err := d.seeder.Mirror(ctx, u); err != nil {
			d.rec.Operation("add", "mirror_failed")
			d.log.Warn("mirror failed, create aborted", zap.Int("id", u.ID), zap.Error(err))
			return model.User{}, fmt.Errorf("%w: mirror: %v", errs.ErrCreateFailed, err)
		}
	default:
		if err := d.seeder.Mirror(ctx, u); err != nil {
			d.rec.Operation("add", "mirror_failed")
			d.log.Warn("mirror failed, committing locally", zap.Int("id", u.ID), zap.Error(err))
		}
	}

	next := make([]model.User, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, u)
	if err := d.commit(ctx, next, u.ID+1); err != nil {
		err = fmt.Errorf("%w: %v", errs.ErrCreateFailed, err)
		d.rec.Operation("add", ErrorClass(err))
		return model.User{}, err
	}
	d.rec.Operation("add", "ok")
	d.log.Info("user added", zap.Int("id", u.ID))
	return u, nil
}

// Edit replaces the user with u.ID in place. No remote call is made.
func (d *Directory) Edit(ctx context.Context, u model.User) (model.User, error) {
	if err := d.ready(); err != nil {
		return model.User{}, err
	}
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if err := d.ready(); err != nil {
		return model.User{}, err
	}

	cur, nextID := d.current()
	idx := indexOf(cur, u.ID)
	if idx < 0 {
		d.rec.Operation("edit", ErrorClass(errs.ErrNotFound))
		return model.User{}, errs.ErrNotFound
	}
	if u.Department == "" {
		u.Department = model.UnknownDepartment
	}
	next := append([]model.User(nil), cur...)
	next[idx] = u
	if err := d.commit(ctx, next, nextID); err != nil {
		err = fmt.Errorf("%w: %v", errs.ErrUpdateFailed, err)
		d.rec.Operation("edit", ErrorClass(err))
		return model.User{}, err
	}
	d.rec.Operation("edit", "ok")
	d.log.Info("user updated", zap.Int("id", u.ID))
	return u, nil
}

// Delete removes the user with id. Deleting an unknown id succeeds and changes nothing.
func (d *Directory) Delete(ctx context.Context, id int) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}

	cur, nextID := d.current()
	next := make([]model.User, 0, len(cur))
	for _, u := range cur {
		if u.ID != id {
			next = append(next, u)
		}
	}
	if err := d.commit(ctx, next, nextID); err != nil {
		err = fmt.Errorf("%w: %v", errs.ErrDeleteFailed, err)
		d.rec.Operation("delete", ErrorClass(err))
		return err
	}
	d.rec.Operation("delete", "ok")
	d.log.Info("user deleted", zap.Int("id", id), zap.Bool("existed", len(next) != len(cur)))
	return nil
}

// Submit dispatches a draft to Add or Edit and resets it on success.
func (d *Directory) Submit(ctx context.Context, draft *model.Draft) (model.User, error) {
	var (
		u   model.User
		err error
	)
	if draft.Editing {
		u, err = d.Edit(ctx, draft.User)
	} else {
		u, err = d.Add(ctx, draft.User)
	}
	if err != nil {
		return model.User{}, err
	}
	draft.Reset()
	return u, nil
}

// Reset clears the persisted snapshot and the in-memory directory; the next Init reseeds.
func (d *Directory) Reset(ctx context.Context) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if err := d.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	d.mu.Lock()
	d.users, d.nextID, d.lastErr, d.state = nil, 0, nil, stateIdle
	d.mu.Unlock()
	d.rec.DirectorySize(0)
	d.rec.Operation("reset", "ok")
	d.log.Info("directory reset")
	return nil
}

// View projects the directory through st. It has no side effects.
func (d *Directory) View(st model.ViewState) (model.View, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return view.Build(d.users, st)
}

// Users returns a copy of the directory in insertion order.
func (d *Directory) Users() []model.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.User, len(d.users))
	copy(out, d.users)
	return out
}

// Status reports the lifecycle flags.
func (d *Directory) Status() model.Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := model.Status{
		Loading: d.state == stateIdle || d.state == stateLoading,
		Ready:   d.state == stateReady || d.state == stateFailed,
		Count:   len(d.users),
	}
	if d.lastErr != nil {
		st.Error = d.lastErr.Error()
	}
	return st
}

func (d *Directory) ready() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch d.state {
	case stateIdle, stateLoading:
		return errs.ErrLoading
	case stateBroken:
		return d.lastErr
	}
	return nil
}

func (d *Directory) current() ([]model.User, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users, d.nextID
}

// commit persists next and only then swaps it in, so a failed write leaves memory untouched.
func (d *Directory) commit(ctx context.Context, next []model.User, nextID int) error {
	if d.opts.IDPolicy == IDMonotonic {
		if cur := d.nextIDSnapshot(); cur > nextID {
			nextID = cur
		}
	}
	if err := d.store.Save(ctx, d.snapshot(next, nextID)); err != nil {
		d.log.Error("persist directory failed", zap.Error(err))
		return err
	}
	d.mu.Lock()
	d.users = next
	d.nextID = nextID
	d.mu.Unlock()
	d.rec.DirectorySize(len(next))
	return nil
}

func (d *Directory) nextIDSnapshot() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.nextID
}

func (d *Directory) snapshot(users []model.User, nextID int) model.Snapshot {
	snap := model.Snapshot{Version: model.SnapshotVersion, Users: users}
	if d.opts.IDPolicy == IDMonotonic {
		snap.NextID = nextID
	}
	return snap
}

func allocateID(users []model.User, nextID int, policy IDPolicy) int {
	id := 1
	for _, u := range users {
		if u.ID >= id {
			id = u.ID + 1
		}
	}
	if policy == IDMonotonic && nextID > id {
		id = nextID
	}
	return id
}

func indexOf(users []model.User, id int) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// ErrorClass maps store errors onto short labels for logs and metrics.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrLoading):
		return "loading"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, errs.ErrCacheSealed), errors.Is(err, errs.ErrCacheVersion):
		return "cache_unavailable"
	case errors.Is(err, errs.ErrCreateFailed), errors.Is(err, errs.ErrUpdateFailed), errors.Is(err, errs.ErrDeleteFailed):
		return "failed"
	default:
		return "error"
	}
}

type nopRecorder struct{}

func (nopRecorder) Operation(string, string) {}
func (nopRecorder) DirectorySize(int)        {}
func (nopRecorder) SeedFetch(time.Duration)  {}
