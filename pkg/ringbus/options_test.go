package ringbus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidateRejectsMissingTopic(t *testing.T) {
	o := Options{MaxPublishers: 1, MaxSubscribers: 1}
	require.ErrorIs(t, o.validate(8), ErrInvalidInput)
}

func TestOptionsValidateRejectsZeroMaxPublishers(t *testing.T) {
	o := Options{Topic: "t", MaxSubscribers: 1}
	require.ErrorIs(t, o.validate(8), ErrInvalidInput)
}

func TestOptionsValidateRejectsHistorySize(t *testing.T) {
	o := Options{Topic: "t", MaxPublishers: 1, MaxSubscribers: 1, HistorySize: 1}
	require.ErrorIs(t, o.validate(8), ErrInvalidInput)
}

func TestOptionsValidateRejectsZeroValueSize(t *testing.T) {
	o := Options{Topic: "t", MaxPublishers: 1, MaxSubscribers: 1}
	require.ErrorIs(t, o.validate(0), ErrInvalidInput)
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{Topic: "t", MaxPublishers: 1, MaxSubscribers: 1}.withDefaults()

	require.Equal(t, uint32(1), o.MaxConcurrentAcquires)
	require.Equal(t, defaultJoinTimeout, o.JoinTimeout)
	require.Equal(t, defaultInitTimeout, o.InitTimeout)
	require.NotEmpty(t, o.Dir)
}

func TestComputeLayoutIsDeterministic(t *testing.T) {
	o := Options{Topic: "t", MaxPublishers: 2, MaxSubscribers: 3, MaxConcurrentAcquires: 1}.withDefaults()

	a := computeLayout(o, 8)
	b := computeLayout(o, 8)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("computeLayout not deterministic (-first +second):\n%s", diff)
	}

	recomputed := layoutForConfig(a.headerConfig)
	if diff := cmp.Diff(a, recomputed); diff != "" {
		t.Fatalf("layoutForConfig(a.headerConfig) diverged from computeLayout (-want +got):\n%s", diff)
	}
}
