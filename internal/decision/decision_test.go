package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reconciled/internal/agent"
)

// fakeUpdater records guarded status updates.
type fakeUpdater struct {
	calls []int64
	err   error
}

func (f *fakeUpdater) MarkReconciled(_ context.Context, id int64) error {
	f.calls = append(f.calls, id)
	return f.err
}

func defaultThresholds() Thresholds {
	return Thresholds{MinConfidence: 80, AutoReconcile: 90, EnableAutoReconcile: true}
}

func newTestEngine(t *testing.T, updater StatusUpdater, th Thresholds) *Engine {
	t.Helper()
	e, err := NewEngine(updater, th, nil)
	require.NoError(t, err)
	return e
}

func verdict(status agent.Status, confidence int) agent.Verdict {
	return agent.Verdict{Status: status, Confidence: confidence, ReceiptID: 42}
}

func TestDecideAutoReconcilesHighConfidenceValid(t *testing.T) {
	updater := &fakeUpdater{}
	e := newTestEngine(t, updater, defaultThresholds())

	out := e.Decide(context.Background(), verdict(agent.StatusValid, 95))

	assert.Equal(t, ActionReconciled, out.Action)
	assert.Equal(t, BucketReconciled, out.Bucket)
	// Exactly one guarded update, keyed by record identity.
	assert.Equal(t, []int64{42}, updater.calls)
}

func TestDecideUpdateFailureLandsInFailedBucket(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("row locked")}
	e := newTestEngine(t, updater, defaultThresholds())

	out := e.Decide(context.Background(), verdict(agent.StatusValid, 95))

	assert.Equal(t, ActionUpdateFailed, out.Action)
	assert.Equal(t, BucketFailed, out.Bucket)
	assert.Len(t, updater.calls, 1)
}

func TestDecideValidBelowAutoBarNeedsReview(t *testing.T) {
	updater := &fakeUpdater{}
	e := newTestEngine(t, updater, defaultThresholds())

	out := e.Decide(context.Background(), verdict(agent.StatusValid, 85))

	assert.Equal(t, ActionNeedsReview, out.Action)
	assert.Equal(t, BucketNeedsReview, out.Bucket)
	assert.Empty(t, updater.calls)
}

func TestDecideValidBelowMinimumNeedsReviewNotFailed(t *testing.T) {
	updater := &fakeUpdater{}
	e := newTestEngine(t, updater, defaultThresholds())

	out := e.Decide(context.Background(), verdict(agent.StatusValid, 75))

	assert.Equal(t, ActionNeedsReview, out.Action)
	assert.Equal(t, BucketNeedsReview, out.Bucket)
	assert.Empty(t, updater.calls)
}

func TestDecideInvalidNeverUpdates(t *testing.T) {
	updater := &fakeUpdater{}
	e := newTestEngine(t, updater, defaultThresholds())

	out := e.Decide(context.Background(), verdict(agent.StatusInvalid, 99))

	assert.Equal(t, ActionInvalid, out.Action)
	assert.Equal(t, BucketFailed, out.Bucket)
	assert.Empty(t, updater.calls)
}

func TestDecideErrorAndReviewOutcomesGoToReview(t *testing.T) {
	updater := &fakeUpdater{}
	e := newTestEngine(t, updater, defaultThresholds())

	for _, status := range []agent.Status{agent.StatusNeedsReview, agent.StatusError} {
		out := e.Decide(context.Background(), verdict(status, 100))
		assert.Equal(t, ActionNeedsReview, out.Action, "status %s", status)
		assert.Equal(t, BucketNeedsReview, out.Bucket, "status %s", status)
	}
	assert.Empty(t, updater.calls)
}

func TestDecideAutoReconcileDisabledRoutesToReview(t *testing.T) {
	updater := &fakeUpdater{}
	th := defaultThresholds()
	th.EnableAutoReconcile = false
	e := newTestEngine(t, updater, th)

	out := e.Decide(context.Background(), verdict(agent.StatusValid, 99))

	assert.Equal(t, ActionNeedsReview, out.Action)
	assert.Empty(t, updater.calls)
}

func TestDecideThresholdMonotonicity(t *testing.T) {
	// Raising the auto-reconcile threshold above a record's confidence
	// moves it from reconciled to needs-review, all else equal.
	v := verdict(agent.StatusValid, 92)

	low := newTestEngine(t, &fakeUpdater{}, Thresholds{MinConfidence: 80, AutoReconcile: 90, EnableAutoReconcile: true})
	high := newTestEngine(t, &fakeUpdater{}, Thresholds{MinConfidence: 80, AutoReconcile: 93, EnableAutoReconcile: true})

	assert.Equal(t, BucketReconciled, low.Decide(context.Background(), v).Bucket)
	assert.Equal(t, BucketNeedsReview, high.Decide(context.Background(), v).Bucket)
}

func TestNewEngineRequiresUpdaterWhenAutoReconcileEnabled(t *testing.T) {
	_, err := NewEngine(nil, defaultThresholds(), nil)
	assert.Error(t, err)

	th := defaultThresholds()
	th.EnableAutoReconcile = false
	_, err = NewEngine(nil, th, nil)
	assert.NoError(t, err)
}
