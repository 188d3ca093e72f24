package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCycleFromInterval(t *testing.T) {
	require.Equal(t, BillingCycleMonthly, CycleFromInterval("month"))
	require.Equal(t, BillingCycleMonthly, CycleFromInterval("monthly"))
	require.Equal(t, BillingCycleAnnual, CycleFromInterval("year"))
	require.Equal(t, BillingCycleAnnual, CycleFromInterval("yearly"))
	require.Equal(t, BillingCycleAnnual, CycleFromInterval("annual"))
	require.Equal(t, BillingCycleMonthly, CycleFromInterval(""))
}

func TestEpochTime(t *testing.T) {
	require.Nil(t, EpochTime(0))
	require.Nil(t, EpochTime(-5))

	ts := EpochTime(1756623600)
	require.NotNil(t, ts)
	require.Equal(t, time.Date(2025, 8, 31, 7, 0, 0, 0, time.UTC), ts.UTC())
}
