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

package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name   string
	result Result
	err    error
	calls  int
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(_ context.Context) (Result, error) {
	j.calls++
	return j.result, j.err
}

func TestRun_Succeeded(t *testing.T) {
	job := &fakeJob{
		name:   "daily-features",
		result: Result{Date: "2026-02-04", Rows: 2},
	}

	outcome, err := Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome)
	assert.Equal(t, 1, job.calls)
}

func TestRun_SucceededNoWork(t *testing.T) {
	job := &fakeJob{
		name:   "daily-features",
		result: Result{NoWork: true, Date: "2026-02-04"},
	}

	outcome, err := Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceededNoWork, outcome)
}

func TestRun_Failed_PropagatesErrorUnchanged(t *testing.T) {
	boom := errors.New("partition exploded")
	job := &fakeJob{name: "daily-features", err: boom}

	outcome, err := Run(context.Background(), job)
	assert.Equal(t, OutcomeFailed, outcome)
	require.ErrorIs(t, err, boom)
}

func TestRun_NilJob(t *testing.T) {
	outcome, err := Run(context.Background(), nil)
	assert.Equal(t, OutcomeFailed, outcome)
	require.ErrorIs(t, err, ErrInvalidJob)
}

func TestRun_TypedNilJob(t *testing.T) {
	var job *fakeJob

	outcome, err := Run(context.Background(), job)
	assert.Equal(t, OutcomeFailed, outcome)
	require.ErrorIs(t, err, ErrInvalidJob)
}

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, OutcomeFailed, outcomeFor(Result{}, errors.New("x")))
	// An error wins even if the job also claimed no work.
	assert.Equal(t, OutcomeFailed, outcomeFor(Result{NoWork: true}, errors.New("x")))
	assert.Equal(t, OutcomeSucceededNoWork, outcomeFor(Result{NoWork: true}, nil))
	assert.Equal(t, OutcomeSucceeded, outcomeFor(Result{Rows: 5}, nil))
}
