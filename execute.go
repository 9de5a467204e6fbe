package qweave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qweave/qweave/circuit"
	"github.com/qweave/qweave/decode"
	"github.com/qweave/qweave/internal/qe"
	"github.com/qweave/qweave/internal/store"
	"github.com/qweave/qweave/internal/workflow"
	"github.com/qweave/qweave/observable"
)

// detailsEvery is how many result polls pass between workflow status
// checks. Status needs a second engine round-trip, so it runs at a
// coarser cadence; it exists to catch failed workflows whose results
// would otherwise stay "not ready" until the deadline.
const detailsEvery = 20

// job is one circuit compiled for execution.
type job struct {
	qasm         string
	operators    []string
	fingerprint  string
	identityOnly bool
	unit         int // index into the call's unit list, -1 when identity-only
	active       []string
}

// unit is one unique remote job within a call. Circuits with the same
// fingerprint share a unit, so a fingerprint is submitted at most once.
type unit struct {
	fingerprint string
	qasm        string
	operators   []string
	cached      bool
	payload     []byte
	result      *decode.Result
}

// submission is one batch group sent to the engine as a workflow.
type submission struct {
	workflowID string
	filename   string
	path       string
	units      []*unit
	submitted  time.Time
}

// Execute runs one circuit and returns its measurement values in
// request order.
func (d *Device) Execute(ctx context.Context, circ Circuit) ([]MeasurementValue, error) {
	results, err := d.BatchExecute(ctx, []Circuit{circ})
	if len(results) == 1 {
		return results[0], err
	}
	return nil, err
}

// BatchExecute runs many circuits in one call. Cache misses are grouped
// into workflows of at most the batch size, submitted in order, then
// polled concurrently; results are attributed back to circuits by
// workflow id and step index, never by completion order. The returned
// slice is indexed like circuits, each entry holding that circuit's
// measurement values.
//
// Identical circuits share one submission within the call and across
// the session: a fingerprint already in the result cache is answered
// locally. Measurement lists made only of identity observables are
// answered without touching the engine at all.
func (d *Device) BatchExecute(ctx context.Context, circuits []Circuit) ([][]MeasurementValue, error) {
	d.execMu.Lock()
	defer d.execMu.Unlock()

	if len(circuits) == 0 {
		return nil, &ValidationError{Field: "circuits", Reason: "at least one circuit is required"}
	}

	// Validation and encoding happen up front: a bad circuit fails the
	// call before anything is submitted and leaves the device usable.
	jobs := make([]*job, len(circuits))
	units := make([]*unit, 0, len(circuits))
	unitIdx := make(map[string]int)
	for i := range circuits {
		j, err := d.compile(&circuits[i])
		if err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
		if j.identityOnly {
			j.unit = -1
		} else if u, ok := unitIdx[j.fingerprint]; ok {
			j.unit = u
		} else {
			j.unit = len(units)
			unitIdx[j.fingerprint] = j.unit
			units = append(units, &unit{
				fingerprint: j.fingerprint,
				qasm:        j.qasm,
				operators:   j.operators,
			})
		}
		jobs[i] = j
	}

	if err := d.store.AddCounter(ctx, store.CounterExecutions, int64(len(circuits))); err != nil {
		return nil, err
	}

	out, err := d.dispatch(ctx, circuits, jobs, units)
	if err != nil {
		d.setState(StateFailed)
		if d.partialResults && out != nil {
			return out, err
		}
		return nil, err
	}
	return out, nil
}

// dispatch resolves every unit (cache, then remote submission) and
// decodes the per-circuit results. On a pure timeout it returns the
// completed circuits' values alongside the error so the device contract
// can decide whether to expose them.
func (d *Device) dispatch(ctx context.Context, circuits []Circuit, jobs []*job, units []*unit) ([][]MeasurementValue, error) {
	var missing []*unit
	for _, u := range units {
		entry, err := d.store.GetResult(ctx, u.fingerprint)
		switch {
		case err == nil:
			u.payload = entry.Payload
			u.cached = true
		case errors.Is(err, sql.ErrNoRows):
			missing = append(missing, u)
		default:
			return nil, err
		}
	}

	slog.Debug("batch compiled",
		"circuits", len(circuits),
		"unique_jobs", len(units),
		"cache_hits", len(units)-len(missing),
		"to_submit", len(missing),
	)

	var subs []*submission
	if len(missing) > 0 {
		d.setState(StateQueued)

		var err error
		subs, err = d.submitGroups(ctx, missing)
		if err != nil {
			return nil, err
		}
		d.setState(StateSubmitted)

		if err := d.pollSubmissions(ctx, subs); err != nil {
			if !IsWorkflowTimeout(err) {
				return nil, err
			}
			// Timed-out groups stay unresolved; completed ones decoded
			// below for the partial-results contract.
			out, aerr := d.assembleResults(circuits, jobs, units)
			if aerr != nil {
				return nil, aerr
			}
			return out, err
		}
	}

	out, err := d.assembleResults(circuits, jobs, units)
	if err != nil {
		return nil, err
	}

	if err := d.finishArtifacts(subs); err != nil {
		return nil, err
	}

	switch {
	case len(subs) > 0:
		d.setState(StateCompleted)
	case len(units) > 0:
		d.setState(StateCached)
	default:
		d.setState(StateCompleted)
	}

	slog.Info("batch complete",
		"circuits", len(circuits),
		"submissions", len(subs),
		"cache_hits", len(units)-len(missing),
		"state", d.State(),
	)
	return out, nil
}

// submitGroups splits the missing units into groups of at most the
// batch size and submits one workflow per group. The workflow file
// offset is the group's first unit index, so a split submission writes
// circuit-run-<id>-0.yaml, circuit-run-<id>-10.yaml and so on.
func (d *Device) submitGroups(ctx context.Context, missing []*unit) ([]*submission, error) {
	fileID := d.idGen.Generate()

	var subs []*submission
	for start := 0; start < len(missing); start += d.batchSize {
		group := missing[start:min(start+d.batchSize, len(missing))]

		qasms := make([]string, len(group))
		operators := make([][]string, len(group))
		for i, u := range group {
			qasms[i] = u.qasm
			operators[i] = u.operators
		}

		wf, err := workflow.Generate(d.family, d.specJSON, qasms, operators, d.resources)
		if err != nil {
			return nil, err
		}

		filename := workflow.Filename(fileID, start)
		path, err := workflow.WriteFile(d.dataDir, filename, wf)
		if err != nil {
			return nil, err
		}

		id, err := d.client.Submit(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("submit %s: %w", filename, err)
		}
		sub := &submission{
			workflowID: id,
			filename:   filename,
			path:       path,
			units:      group,
			submitted:  time.Now(),
		}
		if err := d.store.RecordWorkflow(ctx, id, filename, sub.submitted); err != nil {
			return nil, err
		}
		subs = append(subs, sub)

		slog.Info("workflow submitted",
			"workflow_id", id,
			"filename", filename,
			"circuits", len(group),
			"batch", len(subs)-1,
		)
	}
	return subs, nil
}

// pollSubmissions polls every submission concurrently until each one is
// terminal or past its deadline, then attributes payloads and fills the
// result cache. A group's failure never cancels its siblings; they run
// to their own terminal status, bounded by the same timeout.
//
// Error precedence is deterministic: the first non-timeout failure in
// submission order wins; otherwise every timed-out workflow id is
// folded into one WorkflowTimeoutError.
func (d *Device) pollSubmissions(ctx context.Context, subs []*submission) error {
	groupErrs := make([]error, len(subs))
	results := make([]map[string]qe.StepResult, len(subs))

	var g errgroup.Group
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			res, err := d.awaitWorkflow(ctx, sub.workflowID, sub.submitted)
			results[i] = res
			groupErrs[i] = err

			state := store.WorkflowSucceeded
			if err != nil {
				state = store.WorkflowFailed
			}
			jctx := context.WithoutCancel(ctx)
			if jerr := d.store.FinishWorkflow(jctx, sub.workflowID, state, time.Now()); jerr != nil {
				slog.Warn("journal update failed", "workflow_id", sub.workflowID, "error", jerr)
			}
			return err
		})
	}
	// Outcomes are aggregated below in submission order; Wait only
	// joins the pollers.
	_ = g.Wait()

	now := time.Now()
	var timedOut []string
	var firstErr error
	for i, sub := range subs {
		err := groupErrs[i]
		if err == nil {
			if derr := d.distribute(ctx, sub, results[i], now); derr != nil {
				err = derr
				groupErrs[i] = derr
			}
		}
		if err == nil {
			continue
		}
		var te *WorkflowTimeoutError
		if errors.As(err, &te) {
			timedOut = append(timedOut, te.WorkflowIDs...)
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		slog.Error("workflow failed", "workflow_id", sub.workflowID, "error", err)
	}

	if firstErr != nil {
		return firstErr
	}
	if len(timedOut) > 0 {
		slog.Error("workflow polling timed out", "workflow_ids", timedOut, "timeout", d.timeout)
		return &WorkflowTimeoutError{WorkflowIDs: timedOut, Timeout: d.timeout}
	}
	return nil
}

// awaitWorkflow polls one workflow until its results are published, the
// engine reports it failed, or the deadline passes. The deadline is the
// submission time plus the configured timeout.
func (d *Device) awaitWorkflow(ctx context.Context, id string, submitted time.Time) (map[string]qe.StepResult, error) {
	pollCtx, cancel := context.WithDeadline(ctx, submitted.Add(d.timeout))
	defer cancel()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	timeout := func() error {
		if ctx.Err() != nil {
			// The caller gave up; not a workflow timeout.
			return ctx.Err()
		}
		return &WorkflowTimeoutError{WorkflowIDs: []string{id}, Timeout: d.timeout}
	}

	for try := 1; ; try++ {
		select {
		case <-pollCtx.Done():
			return nil, timeout()
		case <-ticker.C:
		}

		if try%detailsEvery == 0 {
			status, err := d.client.Status(pollCtx, id)
			if err == nil && status == qe.StatusFailed {
				diag, derr := d.client.Details(pollCtx, id)
				if derr != nil {
					diag = ""
				}
				return nil, &RemoteExecutionError{WorkflowID: id, Diagnostic: diag}
			}
			// Status errors are treated as transient; the results poll
			// below still bounds the wait.
		}

		results, err := d.client.Results(pollCtx, id)
		if errors.Is(err, qe.ErrResultsNotReady) {
			continue
		}
		if err != nil {
			if pollCtx.Err() != nil {
				return nil, timeout()
			}
			return nil, fmt.Errorf("workflow %s: %w", id, err)
		}

		slog.Debug("workflow results received", "workflow_id", id, "steps", len(results), "polls", try)
		return results, nil
	}
}

// distribute matches a finished workflow's step payloads back to the
// submission's units by step index and stores each one in the result
// cache. Insertion is write-once: if another session already cached the
// fingerprint, the existing entry wins.
func (d *Device) distribute(ctx context.Context, sub *submission, stepResults map[string]qe.StepResult, completed time.Time) error {
	for name, sr := range stepResults {
		idx, err := workflow.StepIndex(name)
		if err != nil {
			return &qe.UnexpectedResponseError{Op: "results", WorkflowID: sub.workflowID, Response: name}
		}
		if idx < 0 || idx >= len(sub.units) {
			return &qe.UnexpectedResponseError{
				Op:         "results",
				WorkflowID: sub.workflowID,
				Response:   fmt.Sprintf("step %s out of range", name),
			}
		}
		sub.units[idx].payload = sr.Payload
	}

	for i, u := range sub.units {
		if u.payload == nil {
			return &qe.UnexpectedResponseError{
				Op:         "results",
				WorkflowID: sub.workflowID,
				Response:   fmt.Sprintf("no result for step %s%d", workflow.StepPrefix, i),
			}
		}
		_, err := d.store.PutResult(ctx, store.ResultEntry{
			Fingerprint: u.fingerprint,
			WorkflowID:  sub.workflowID,
			StepName:    fmt.Sprintf("%s%d", workflow.StepPrefix, i),
			Payload:     u.payload,
			CreatedAt:   completed,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// finishArtifacts applies the keep-files contract after a successful
// decode: either the raw payloads are persisted next to their workflow
// files, or the workflow files are removed. Failed calls skip this and
// leave everything on disk for inspection.
func (d *Device) finishArtifacts(subs []*submission) error {
	for _, sub := range subs {
		if !d.keepFiles {
			if err := os.Remove(sub.path); err != nil {
				slog.Warn("workflow file cleanup failed", "path", sub.path, "error", err)
			}
			continue
		}

		payloads := make(map[string]json.RawMessage, len(sub.units))
		for i, u := range sub.units {
			payloads[fmt.Sprintf("%s%d", workflow.StepPrefix, i)] = u.payload
		}
		raw, err := json.MarshalIndent(payloads, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results for %s: %w", sub.workflowID, err)
		}
		path := strings.TrimSuffix(sub.path, ".yaml") + "-results.json"
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("write results for %s: %w", sub.workflowID, err)
		}
	}
	return nil
}

// assembleResults decodes every resolved unit once and builds the
// per-circuit measurement values. Circuits whose unit has no payload
// (an unresolved group) keep a nil row. The last circuit that produced
// a row becomes the device's most recent execution for the state
// accessors.
func (d *Device) assembleResults(circuits []Circuit, jobs []*job, units []*unit) ([][]MeasurementValue, error) {
	out := make([][]MeasurementValue, len(circuits))

	var lastRes *decode.Result
	var lastActive []string
	resolved := false
	for i := range circuits {
		j := jobs[i]
		var r *decode.Result
		if j.unit >= 0 {
			u := units[j.unit]
			if u.payload == nil {
				continue
			}
			if u.result == nil {
				res, err := d.decodePayload(u.payload)
				if err != nil {
					return nil, fmt.Errorf("circuit %d: %w", i, err)
				}
				u.result = res
			}
			r = u.result
		}

		values, err := d.assemble(&circuits[i], r)
		if err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
		out[i] = values
		lastRes = r
		lastActive = j.active
		resolved = true
	}

	if resolved {
		d.mu.Lock()
		d.last = lastRes
		d.activeWires = lastActive
		d.mu.Unlock()
	}
	return out, nil
}

// compile validates one circuit and encodes it for submission: the
// OpenQASM source (with diagonalizing rotations appended in sampled
// mode), the serialized operator list, and the job fingerprint. Every
// failure here is a local validation error.
func (d *Device) compile(circ *Circuit) (*job, error) {
	if len(circ.Measurements) == 0 {
		return nil, &ValidationError{Field: "measurements", Reason: "at least one measurement is required"}
	}
	for i, m := range circ.Measurements {
		switch m.Kind {
		case Probability:
			if m.Observable != nil {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("measurement %d", i),
					Reason: "probability takes wires, not an observable",
				}
			}
			for _, w := range m.Wires {
				if !d.wires.Contains(w) {
					return nil, &circuit.InvalidWireError{Wire: w, Reason: "not declared on this device"}
				}
			}
		case ExpVal, Variance, Sample:
			if m.Observable == nil {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("measurement %d", i),
					Reason: fmt.Sprintf("%s requires an observable", m.Kind),
				}
			}
			if m.Kind == Sample && d.Analytic() {
				return nil, &ValidationError{
					Field:  "shots",
					Reason: "sample measurements need a finite shot count",
				}
			}
			for _, w := range m.Observable.ObservedWires() {
				if !d.wires.Contains(w) {
					return nil, &circuit.InvalidWireError{Wire: w, Reason: "not declared on this device"}
				}
			}
		default:
			return nil, &ValidationError{
				Field:  fmt.Sprintf("measurement %d", i),
				Reason: fmt.Sprintf("unknown measurement kind %d", m.Kind),
			}
		}
	}

	var rotations []circuit.Operation
	if !d.Analytic() {
		var err error
		rotations, err = d.sampledRotations(circ.Measurements)
		if err != nil {
			return nil, err
		}
	}

	qasm, err := circuit.Serialize(circ.Operations, d.wires, rotations)
	if err != nil {
		return nil, err
	}

	j := &job{qasm: qasm, identityOnly: true}
	for _, m := range circ.Measurements {
		if m.Kind == Probability {
			j.identityOnly = false
			continue
		}
		if m.Observable.IsIdentity() {
			continue
		}
		j.identityOnly = false
		s, err := observable.Serialize(m.Observable, d.wires, d.Analytic())
		if err != nil {
			return nil, err
		}
		j.operators = append(j.operators, s)
	}

	if !j.identityOnly {
		fp, err := workflow.JobFingerprint(j.qasm, j.operators, d.specJSON)
		if err != nil {
			return nil, err
		}
		j.fingerprint = fp
	}

	j.active = d.activeFor(circ)
	return j, nil
}

// activeFor lists the declared wires the circuit actually touches,
// through operations or measurements, in register order. The state
// accessors marginalize over this set.
func (d *Device) activeFor(circ *Circuit) []string {
	touched := make(map[string]struct{})
	for _, op := range circ.Operations {
		for _, w := range op.Wires {
			touched[w] = struct{}{}
		}
	}
	for _, m := range circ.Measurements {
		if m.Kind == Probability {
			wires := m.Wires
			if wires == nil {
				wires = d.wires.Labels()
			}
			for _, w := range wires {
				touched[w] = struct{}{}
			}
			continue
		}
		for _, w := range m.Observable.ObservedWires() {
			touched[w] = struct{}{}
		}
	}

	var active []string
	for _, w := range d.wires.Labels() {
		if _, ok := touched[w]; ok {
			active = append(active, w)
		}
	}
	return active
}

// basisClaim records that a wire is measured in a named single-qubit
// eigenbasis.
type basisClaim struct {
	wire string
	base string
}

// measurementBases walks an observable and returns one claim per
// non-identity leaf factor. Observables without a fixed single-qubit
// measurement basis cannot be sampled.
func measurementBases(o *observable.Observable) ([]basisClaim, error) {
	switch o.Name {
	case "Identity":
		return nil, nil
	case "PauliX", "PauliY", "PauliZ", "Hadamard":
		return []basisClaim{{wire: o.Wires[0], base: o.Name}}, nil
	case "Tensor":
		var claims []basisClaim
		for _, f := range o.Factors {
			sub, err := measurementBases(f)
			if err != nil {
				return nil, err
			}
			claims = append(claims, sub...)
		}
		return claims, nil
	case "Hermitian":
		return nil, &circuit.UnsupportedOperationError{
			Name:   "Hermitian",
			Reason: "matrix observables cannot be sampled without an eigenbasis rotation",
		}
	case "Hamiltonian":
		return nil, &circuit.UnsupportedOperationError{
			Name:   "Hamiltonian",
			Reason: "sampled-mode measurement requires commuting-term grouping",
		}
	default:
		return nil, &circuit.UnsupportedOperationError{Name: o.Name, Reason: "unknown observable"}
	}
}

// sampledRotations builds the diagonalizing rotations for a sampled
// circuit. Every measurement claims a basis per wire; conflicting
// claims are rejected, because one shot can only be read out in one
// basis per wire. Each rotated wire gets its rotation exactly once, in
// first-claim order.
func (d *Device) sampledRotations(measurements []Measurement) ([]circuit.Operation, error) {
	bases := make(map[string]string)
	var order []string

	claim := func(wire, base string) error {
		prev, ok := bases[wire]
		if !ok {
			bases[wire] = base
			order = append(order, wire)
			return nil
		}
		if prev != base {
			return &circuit.UnsupportedOperationError{
				Name:   base,
				Reason: fmt.Sprintf("wire %q is already measured in the %s basis", wire, prev),
			}
		}
		return nil
	}

	for _, m := range measurements {
		if m.Kind == Probability {
			wires := m.Wires
			if wires == nil {
				wires = d.wires.Labels()
			}
			for _, w := range wires {
				if err := claim(w, "PauliZ"); err != nil {
					return nil, err
				}
			}
			continue
		}
		claims, err := measurementBases(m.Observable)
		if err != nil {
			return nil, err
		}
		for _, c := range claims {
			if err := claim(c.wire, c.base); err != nil {
				return nil, err
			}
		}
	}

	var rotations []circuit.Operation
	for _, w := range order {
		base := bases[w]
		if base == "PauliZ" {
			continue
		}
		ops, err := observable.Diagonalize(&observable.Observable{Name: base, Wires: []string{w}})
		if err != nil {
			return nil, err
		}
		rotations = append(rotations, ops...)
	}
	return rotations, nil
}

// assemble computes one circuit's measurement values from its decoded
// result. r is nil exactly when the circuit was identity-only.
func (d *Device) assemble(circ *Circuit, r *decode.Result) ([]MeasurementValue, error) {
	values := make([]MeasurementValue, len(circ.Measurements))
	for i, m := range circ.Measurements {
		v := MeasurementValue{Kind: m.Kind}
		switch m.Kind {
		case Probability:
			idx, err := d.wires.Indices(m.Wires)
			if err != nil {
				return nil, err
			}
			if m.Wires == nil {
				idx = nil
			}
			dist, err := r.Probability(idx)
			if err != nil {
				return nil, err
			}
			v.Distribution = dist

		case ExpVal:
			if m.Observable.IsIdentity() {
				v.Value = 1
				break
			}
			terms, err := d.measurementTerms(m.Observable)
			if err != nil {
				return nil, err
			}
			v.Value, err = r.ExpVal(terms)
			if err != nil {
				return nil, err
			}

		case Variance:
			if m.Observable.IsIdentity() {
				v.Value = 0
				break
			}
			terms, err := d.measurementTerms(m.Observable)
			if err != nil {
				return nil, err
			}
			v.Value, err = r.Var(terms)
			if err != nil {
				return nil, err
			}

		case Sample:
			if m.Observable.IsIdentity() {
				v.Samples = ones(d.shots)
				break
			}
			terms, err := d.measurementTerms(m.Observable)
			if err != nil {
				return nil, err
			}
			v.Samples, err = r.Sample(terms)
			if err != nil {
				return nil, err
			}
		}
		values[i] = v
	}
	return values, nil
}

// measurementTerms maps an observable to the Pauli terms the decoder
// evaluates: the exact decomposition in analytic mode; in sampled mode
// a single unit-coefficient Z-string over the observed wires, because
// the compiled rotations already moved every factor onto its
// eigenbasis.
func (d *Device) measurementTerms(o *observable.Observable) ([]observable.Term, error) {
	if d.Analytic() {
		return observable.Decompose(o, d.wires)
	}

	idx, err := d.wires.Indices(o.ObservedWires())
	if err != nil {
		return nil, err
	}
	sort.Ints(idx)
	factors := make([]observable.Factor, len(idx))
	for i, w := range idx {
		factors[i] = observable.Factor{Axis: observable.AxisZ, Wire: w}
	}
	return []observable.Term{{Coeff: 1, Factors: factors}}, nil
}

// decodePayload parses and canonicalizes one raw step payload. When a
// sampled run comes back with exact amplitudes anyway (simulator
// backends do this), per-shot rows are drawn from the exact
// distribution so downstream estimators see the sampled statistics the
// caller asked for.
func (d *Device) decodePayload(raw []byte) (*decode.Result, error) {
	p, err := decode.ParsePayload(raw)
	if err != nil {
		return nil, err
	}
	if err := p.Normalize(d.family.ReversedBits, d.wires.Size()); err != nil {
		return nil, err
	}
	r, err := decode.FromPayload(p, d.wires.Size())
	if err != nil {
		return nil, err
	}

	if d.shots > 0 && r.Analytic() {
		rows, err := r.GenerateSamples(d.rng, d.shots)
		if err != nil {
			return nil, err
		}
		return decode.FromPayload(&decode.Payload{Samples: rows}, d.wires.Size())
	}
	return r, nil
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
