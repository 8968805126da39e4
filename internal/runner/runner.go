// Copyright (C) 2025 Sanders Data, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package runner is the invocation contract between the external
// scheduler and a job: run it once and map the result to one of three
// terminal outcomes. "Found nothing to process" is a success the
// scheduler must not retry; real failures propagate unchanged so the
// orchestrator's retry and alerting policy sees the true cause.
package runner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sandersdata/customer-platform/internal/logctx"
)

// ErrInvalidJob means the supplied job cannot be invoked at all. This
// is a configuration error, raised before any I/O.
var ErrInvalidJob = errors.New("job does not satisfy the run contract")

// Outcome is the invoker-visible terminal state of one run.
type Outcome string

const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeSucceededNoWork Outcome = "succeeded_no_work"
	OutcomeFailed          Outcome = "failed"
)

// Result is what a job reports back on a clean return. The no-work case
// is a value here, not an error: it is visible in the type system and
// cannot be confused with a failure.
type Result struct {
	// NoWork means the run completed cleanly but found nothing to
	// process. Treated as success for scheduling purposes.
	NoWork bool
	// Date is the logical processing date the run operated on.
	Date string
	// Rows is the number of feature records produced.
	Rows int
}

// Job is anything runnable by the scheduler entry point. Implementations
// are chosen at startup; nothing is loaded by path at runtime.
type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

var (
	runCount    metric.Int64Counter
	runDuration metric.Float64Histogram
)

func init() {
	meter := otel.Meter("github.com/sandersdata/customer-platform/internal/runner")

	var err error
	runCount, err = meter.Int64Counter(
		"scp.jobs.runs",
		metric.WithDescription("Number of job invocations by outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create jobs.runs counter: %w", err))
	}

	runDuration, err = meter.Float64Histogram(
		"scp.jobs.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Wall-clock duration of a job invocation"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create jobs.duration histogram: %w", err))
	}
}

// Run invokes the job once and maps its result to an Outcome. On
// failure the job's error is returned unchanged alongside OutcomeFailed
// so the caller can propagate it to the process exit path.
func Run(ctx context.Context, job Job) (Outcome, error) {
	if isNilJob(job) {
		logctx.FromContext(ctx).Error("No job supplied to runner")
		return OutcomeFailed, ErrInvalidJob
	}

	runID := uuid.New().String()
	ctx = logctx.With(ctx, "job", job.Name(), "run_id", runID)
	ll := logctx.FromContext(ctx)

	ll.Info("Starting job")
	start := time.Now()
	res, err := job.Run(ctx)
	elapsed := time.Since(start)

	outcome := outcomeFor(res, err)
	runCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job.Name()),
		attribute.String("outcome", string(outcome)),
	))
	runDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("job", job.Name()),
	))

	switch outcome {
	case OutcomeFailed:
		ll.Error("Job failed", "error", err, "elapsed", elapsed.String())
		return OutcomeFailed, err
	case OutcomeSucceededNoWork:
		ll.Warn("No work found (treated as success)", "date", res.Date, "elapsed", elapsed.String())
		return OutcomeSucceededNoWork, nil
	default:
		ll.Info("Job succeeded", "date", res.Date, "rows", res.Rows, "elapsed", elapsed.String())
		return OutcomeSucceeded, nil
	}
}

func outcomeFor(res Result, err error) Outcome {
	switch {
	case err != nil:
		return OutcomeFailed
	case res.NoWork:
		return OutcomeSucceededNoWork
	default:
		return OutcomeSucceeded
	}
}

// isNilJob catches both a nil interface and a typed-nil implementation,
// the residual miswiring hazard now that the compiler enforces the Run
// signature.
func isNilJob(job Job) bool {
	if job == nil {
		return true
	}
	v := reflect.ValueOf(job)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
