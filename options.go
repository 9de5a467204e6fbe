package qweave

import (
	"math/rand"
	"time"

	"github.com/qweave/qweave/internal/qe"
	"github.com/qweave/qweave/internal/workflow"
)

// Defaults for the execution options.
const (
	DefaultBatchSize    = 10
	DefaultTimeout      = 600 * time.Second
	DefaultPollInterval = time.Second
)

// Option configures a Device at construction.
type Option func(*Device)

// WithBackend selects the backend family and, for families that need
// one, the concrete device within it. The family must be declared in
// the backend catalog.
func WithBackend(family, device string) Option {
	return func(d *Device) {
		d.familyName = family
		d.deviceName = device
	}
}

// WithShots sets the number of shots per circuit. Zero selects analytic
// mode, which the chosen backend must support; construction fails
// otherwise. Default: the backend family's default shot count.
func WithShots(n int) Option {
	return func(d *Device) {
		d.shots = n
		d.shotsSet = true
	}
}

// WithBatchSize caps how many circuits share one workflow submission.
// Default: 10.
func WithBatchSize(n int) Option {
	return func(d *Device) {
		d.batchSize = n
	}
}

// WithTimeout bounds how long the device polls for each submitted
// workflow, measured from its submission. Default: 600s.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) {
		d.timeout = timeout
	}
}

// WithPollInterval sets the wait between result polls. Default: 1s.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Device) {
		d.pollInterval = interval
	}
}

// WithKeepFiles keeps the generated workflow files and raw result
// payloads on disk after a successful execution. Default: artifacts are
// deleted once decoded.
func WithKeepFiles(keep bool) Option {
	return func(d *Device) {
		d.keepFiles = keep
	}
}

// WithResources attaches per-step compute asks to every generated
// workflow step. Empty strings are omitted from the workflow.
func WithResources(cpu, memory, disk string) Option {
	return func(d *Device) {
		d.resources = &workflow.Resources{CPU: cpu, Memory: memory, Disk: disk}
	}
}

// WithAPIToken passes the API token for token-gated backends. Without
// it the token environment variable is consulted at construction.
func WithAPIToken(token string) Option {
	return func(d *Device) {
		d.apiToken = token
	}
}

// WithPartialResults lets a batch return the completed groups' results
// alongside the timeout error when other groups are still unresolved.
// This is a construction-time contract, not a per-call override.
// Default: an unresolved group fails the whole call with no results.
func WithPartialResults(allow bool) Option {
	return func(d *Device) {
		d.partialResults = allow
	}
}

// WithDataDir overrides where workflow files are written. Default: a
// qweave directory under the user cache dir.
func WithDataDir(dir string) Option {
	return func(d *Device) {
		d.dataDir = dir
	}
}

// WithStorePath persists the result cache and submission journal at the
// given SQLite path instead of in memory. A persisted store carries
// cached results across device instances.
func WithStorePath(path string) Option {
	return func(d *Device) {
		d.storePath = path
	}
}

// WithClient overrides the engine client. Tests use this to run against
// a fake engine.
func WithClient(c qe.Client) Option {
	return func(d *Device) {
		d.client = c
	}
}

// WithIDGenerator overrides how workflow file ids are minted. Tests use
// a fixed sequence for reproducible filenames.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Device) {
		d.idGen = g
	}
}

// WithRand seeds the generator behind sample emulation, making drawn
// shots reproducible.
func WithRand(seed int64) Option {
	return func(d *Device) {
		d.rng = rand.New(rand.NewSource(seed))
	}
}
