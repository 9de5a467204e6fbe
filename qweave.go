// Package qweave executes quantum circuits on remote simulator and
// hardware backends by compiling them into workflow submissions for an
// Orquestra-style quantum engine.
//
// A Device is declared once with a wire set and a backend, then asked to
// execute circuits. Every execution serializes the circuit and its
// observables into a backend-neutral form, fingerprints the job, and
// answers from the session's result cache when the same job already ran.
// Cache misses are grouped into batches, submitted as workflows through
// the engine's qe CLI, and polled concurrently until their results can
// be decoded into expectation values, variances, probabilities or
// samples.
package qweave

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qweave/qweave/backend"
	"github.com/qweave/qweave/circuit"
	"github.com/qweave/qweave/decode"
	"github.com/qweave/qweave/internal/qe"
	"github.com/qweave/qweave/internal/store"
	"github.com/qweave/qweave/internal/workflow"
)

// State is the device phase for the most recent execution.
type State string

const (
	// StateIdle means nothing has been executed since construction or
	// the last Reset.
	StateIdle State = "idle"
	// StateQueued means cache misses exist and await batch submission.
	StateQueued State = "queued"
	// StateSubmitted means every batch group has an engine-assigned
	// workflow id and is being polled.
	StateSubmitted State = "submitted"
	// StateCached means the whole execution was answered from the result
	// cache without touching the engine.
	StateCached State = "cached"
	// StateCompleted means the most recent execution decoded cleanly.
	StateCompleted State = "completed"
	// StateFailed means the most recent execution ended in an error
	// after validation had already passed.
	StateFailed State = "failed"
)

// IDGenerator mints the ids that name workflow files. One id is minted
// per execution; batch groups share it and are told apart by the offset
// in the filename.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator mints time-sortable UUIDv7 file ids, so a data
// directory lists workflow files in submission order.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Device executes circuits on one remote backend. It is safe for use
// from multiple goroutines, but executions are serialized: the device
// models a single logical caller.
type Device struct {
	wires    *circuit.WireMap
	family   *backend.Family
	specJSON string
	shots    int
	shotsSet bool

	batchSize      int
	timeout        time.Duration
	pollInterval   time.Duration
	keepFiles      bool
	partialResults bool
	resources      *workflow.Resources
	dataDir        string
	storePath      string

	client qe.Client
	store  *store.Store
	idGen  IDGenerator
	rng    *rand.Rand

	// Raw option values resolved during New.
	familyName string
	deviceName string
	apiToken   string

	execMu sync.Mutex // one execution at a time

	mu          sync.Mutex // guards the fields below
	state       State
	last        *decode.Result
	activeWires []string
}

// New builds a device over the declared wires. Wire labels are
// caller-chosen and resolve to register indices in declaration order;
// the first wire is the most significant bit of every bitstring and
// basis-state index. A backend family must be selected via WithBackend,
// and the family/device/shots combination is validated here, before
// anything runs.
func New(wires []string, opts ...Option) (*Device, error) {
	wm, err := circuit.NewWireMap(wires)
	if err != nil {
		return nil, err
	}

	d := &Device{
		wires:        wm,
		batchSize:    DefaultBatchSize,
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.familyName == "" {
		return nil, &backend.UnknownBackendError{Reason: "a backend family is required"}
	}
	family, err := backend.Lookup(d.familyName)
	if err != nil {
		return nil, err
	}
	if !d.shotsSet {
		d.shots = family.DefaultShots
	}
	spec, err := family.CreateSpecs(d.deviceName, d.shots, d.apiToken)
	if err != nil {
		return nil, err
	}
	specJSON, err := spec.JSON()
	if err != nil {
		return nil, err
	}
	d.family = family
	d.specJSON = specJSON

	if d.batchSize <= 0 {
		return nil, &ValidationError{Field: "batch size", Reason: fmt.Sprintf("%d is not positive", d.batchSize)}
	}
	if d.timeout <= 0 {
		return nil, &ValidationError{Field: "timeout", Reason: fmt.Sprintf("%s is not positive", d.timeout)}
	}
	if d.pollInterval <= 0 {
		return nil, &ValidationError{Field: "poll interval", Reason: fmt.Sprintf("%s is not positive", d.pollInterval)}
	}

	if d.dataDir == "" {
		d.dataDir = defaultDataDir()
	}
	if d.client == nil {
		d.client = qe.NewCLIClient()
	}
	if d.idGen == nil {
		d.idGen = UUIDv7Generator{}
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	st, err := store.Open(d.storePath)
	if err != nil {
		return nil, err
	}
	d.store = st

	slog.Debug("device ready",
		"wires", wm.Size(),
		"backend", family.Name,
		"device", d.deviceName,
		"shots", d.shots,
		"batch_size", d.batchSize,
	)
	return d, nil
}

// defaultDataDir is where workflow files land unless WithDataDir says
// otherwise.
func defaultDataDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "qweave")
}

// Close releases the device's cache store. The device is unusable
// afterwards.
func (d *Device) Close() error {
	return d.store.Close()
}

// Reset returns the device to its initial state: the result cache,
// submission journal and execution counters are cleared and the state
// machine goes back to Idle. It is the only transition back. Files kept
// on disk survive a reset.
func (d *Device) Reset(ctx context.Context) error {
	d.execMu.Lock()
	defer d.execMu.Unlock()

	if err := d.store.Reset(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	d.state = StateIdle
	d.last = nil
	d.activeWires = nil
	d.mu.Unlock()

	slog.Debug("device reset")
	return nil
}

// State returns the device phase for the most recent execution.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Shots returns the configured shot count, zero in analytic mode.
func (d *Device) Shots() int { return d.shots }

// Analytic reports whether the device requests exact statistics.
func (d *Device) Analytic() bool { return d.shots == 0 }

// Wires returns the declared wire labels in order.
func (d *Device) Wires() []string { return d.wires.Labels() }

// Backend returns the resolved backend family name.
func (d *Device) Backend() string { return d.family.Name }

// LatestID returns the most recently submitted workflow id, or an empty
// string when nothing has been submitted this session.
func (d *Device) LatestID(ctx context.Context) (string, error) {
	return d.store.LatestWorkflowID(ctx)
}

// Filenames returns the journaled workflow filenames in submission
// order. When files are kept, each workflow file sits next to a
// -results.json companion carrying the raw payloads.
func (d *Device) Filenames(ctx context.Context) ([]string, error) {
	return d.store.Filenames(ctx)
}

// Executions returns how many circuits the device has executed this
// session, cache hits and identity shortcuts included.
func (d *Device) Executions(ctx context.Context) (int64, error) {
	return d.store.Counter(ctx, store.CounterExecutions)
}

// lastResult returns the decoded result and active wires of the most
// recent execution.
func (d *Device) lastResult() (*decode.Result, []string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return nil, nil, &decode.StateNotAvailableError{Reason: "no execution result is available"}
	}
	return d.last, d.activeWires, nil
}

// checkAccessWires validates a device-level accessor's wire subset: the
// wires must be declared and touched by the executed circuit.
func (d *Device) checkAccessWires(wires, active []string) error {
	activeSet := make(map[string]struct{}, len(active))
	for _, w := range active {
		activeSet[w] = struct{}{}
	}
	for _, w := range wires {
		if !d.wires.Contains(w) {
			return &circuit.InvalidWireError{Wire: w, Reason: "not declared on this device"}
		}
		if _, ok := activeSet[w]; !ok {
			return &circuit.InvalidWireError{Wire: w, Reason: "not touched by the executed circuit"}
		}
	}
	return nil
}

// AccessState returns the raw amplitude vector of the most recent
// execution. Available only when the backend returned a full state
// vector; fails with StateNotAvailableError otherwise.
func (d *Device) AccessState() ([]complex128, error) {
	r, _, err := d.lastResult()
	if err != nil {
		return nil, err
	}
	return r.AccessState()
}

// DensityMatrix returns the reduced density matrix over the given wires
// for the most recent execution, tracing out the rest. A nil slice
// selects the wires the circuit touched. Available only when the
// backend returned a full state vector.
func (d *Device) DensityMatrix(wires []string) ([][]complex128, error) {
	r, active, err := d.lastResult()
	if err != nil {
		return nil, err
	}
	if wires == nil {
		wires = active
	}
	if err := d.checkAccessWires(wires, active); err != nil {
		return nil, err
	}
	idx, err := d.wires.Indices(wires)
	if err != nil {
		return nil, err
	}
	return r.DensityMatrix(idx)
}

// Probability returns the marginal probability distribution over the
// given wires for the most recent execution, in the canonical bit order
// where the first requested wire is the most significant bit. A nil
// slice selects the wires the circuit touched.
func (d *Device) Probability(wires []string) ([]float64, error) {
	r, active, err := d.lastResult()
	if err != nil {
		return nil, err
	}
	if wires == nil {
		wires = active
	}
	if err := d.checkAccessWires(wires, active); err != nil {
		return nil, err
	}
	idx, err := d.wires.Indices(wires)
	if err != nil {
		return nil, err
	}
	return r.Probability(idx)
}
