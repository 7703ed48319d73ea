package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func testPeriod(t *testing.T) *PeriodRecord {
	t.Helper()
	r, err := NewPeriodRecord(7, periodStart, periodEnd)
	require.NoError(t, err)
	return r
}

func TestNewPeriodRecord_Validation(t *testing.T) {
	_, err := NewPeriodRecord(0, periodStart, periodEnd)
	assert.Error(t, err)

	_, err = NewPeriodRecord(7, periodEnd, periodStart)
	assert.Error(t, err)
}

func TestPeriodRecord_Record(t *testing.T) {
	r := testPeriod(t)

	err := r.Record(Sample{
		BytesUp:         100,
		BytesDown:       400,
		SessionDuration: 30 * time.Minute,
		SpeedMbps:       95.5,
		ReportedAt:      periodStart.Add(6 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(100), r.TotalBytesUp())
	assert.Equal(t, uint64(400), r.TotalBytesDown())
	assert.Equal(t, uint64(500), r.TotalBytes())
	assert.Equal(t, 1, r.SessionCount())
	assert.Equal(t, 30*time.Minute, r.TotalDuration())
	assert.InDelta(t, 95.5, r.AvgSpeedMbps(), 0.001)
	assert.InDelta(t, 95.5, r.PeakSpeedMbps(), 0.001)
}

func TestPeriodRecord_Record_OutsidePeriod(t *testing.T) {
	r := testPeriod(t)

	err := r.Record(Sample{BytesUp: 1, ReportedAt: periodStart.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrSampleOutsidePeriod)

	// The period end is exclusive.
	err = r.Record(Sample{BytesUp: 1, ReportedAt: periodEnd})
	assert.ErrorIs(t, err, ErrSampleOutsidePeriod)

	err = r.Record(Sample{BytesUp: 1, ReportedAt: periodStart})
	assert.NoError(t, err)
}

func TestPeriodRecord_Record_SpeedStats(t *testing.T) {
	r := testPeriod(t)

	speeds := []float64{100, 80, 0, 120} // zero readings are skipped
	for i, s := range speeds {
		require.NoError(t, r.Record(Sample{
			BytesUp:    1,
			SpeedMbps:  s,
			ReportedAt: periodStart.Add(time.Duration(i) * time.Hour),
		}))
	}

	assert.Equal(t, 3, r.SpeedSamples())
	assert.InDelta(t, 100.0, r.AvgSpeedMbps(), 0.001)
	assert.InDelta(t, 120.0, r.PeakSpeedMbps(), 0.001)
	assert.Equal(t, 4, r.SessionCount())
}

func TestPeriodRecord_DailyBuckets(t *testing.T) {
	r := testPeriod(t)

	day1 := periodStart.Add(10 * time.Hour)
	day2 := periodStart.Add(34 * time.Hour)

	require.NoError(t, r.Record(Sample{BytesUp: 10, BytesDown: 20, ReportedAt: day1}))
	require.NoError(t, r.Record(Sample{BytesUp: 5, BytesDown: 5, ReportedAt: day1.Add(time.Hour)}))
	require.NoError(t, r.Record(Sample{BytesUp: 1, BytesDown: 2, ReportedAt: day2}))

	buckets := r.DailyBuckets()
	require.Len(t, buckets, 2)

	assert.Equal(t, "2026-03-01", buckets[0].Date)
	assert.Equal(t, uint64(15), buckets[0].BytesUp)
	assert.Equal(t, uint64(25), buckets[0].BytesDown)
	assert.Equal(t, 2, buckets[0].SessionCount)

	assert.Equal(t, "2026-03-02", buckets[1].Date)
	assert.Equal(t, 1, buckets[1].SessionCount)
}

func TestPeriodRecord_UsagePercent(t *testing.T) {
	r := testPeriod(t)
	require.NoError(t, r.Record(Sample{BytesUp: 100, BytesDown: 400, ReportedAt: periodStart}))

	assert.InDelta(t, 50.0, r.UsagePercent(1000), 0.001)
	assert.Zero(t, r.UsagePercent(0), "unlimited plans report zero")
}

func TestPeriodRecord_CrossedThresholds(t *testing.T) {
	r := testPeriod(t)
	thresholds := []int{80, 90, 100}
	const limit = 1000

	require.NoError(t, r.Record(Sample{BytesDown: 800, ReportedAt: periodStart}))
	assert.Equal(t, []int{80}, r.CrossedThresholds(limit, thresholds))

	// Same level again: nothing new fires.
	assert.Empty(t, r.CrossedThresholds(limit, thresholds))

	require.NoError(t, r.Record(Sample{BytesDown: 150, ReportedAt: periodStart}))
	assert.Equal(t, []int{90}, r.CrossedThresholds(limit, thresholds))

	require.NoError(t, r.Record(Sample{BytesDown: 60, ReportedAt: periodStart}))
	assert.Equal(t, []int{100}, r.CrossedThresholds(limit, thresholds))

	assert.Equal(t, []int{80, 90, 100}, r.AlertedThresholds())
}

func TestPeriodRecord_CrossedThresholds_JumpFiresAll(t *testing.T) {
	r := testPeriod(t)
	require.NoError(t, r.Record(Sample{BytesDown: 1010, ReportedAt: periodStart}))

	crossed := r.CrossedThresholds(1000, []int{80, 90, 100})
	assert.Equal(t, []int{80, 90, 100}, crossed)
}

func TestPeriodRecord_CrossedThresholds_Unlimited(t *testing.T) {
	r := testPeriod(t)
	require.NoError(t, r.Record(Sample{BytesDown: 1 << 40, ReportedAt: periodStart}))

	assert.Empty(t, r.CrossedThresholds(0, []int{80, 90, 100}))
	assert.Empty(t, r.AlertedThresholds())
}

func TestPeriodRecord_ReconstructKeepsAlertLedger(t *testing.T) {
	r := testPeriod(t)
	require.NoError(t, r.Record(Sample{BytesDown: 950, ReportedAt: periodStart}))
	require.Equal(t, []int{80, 90}, r.CrossedThresholds(1000, []int{80, 90, 100}))

	restored, err := Reconstruct(ReconstructParams{
		ID:                1,
		SID:               r.SID(),
		SubscriptionID:    r.SubscriptionID(),
		PeriodStart:       r.PeriodStart(),
		PeriodEnd:         r.PeriodEnd(),
		TotalBytesUp:      r.TotalBytesUp(),
		TotalBytesDown:    r.TotalBytesDown(),
		SessionCount:      r.SessionCount(),
		Daily:             r.DailyBuckets(),
		AlertedThresholds: r.AlertedThresholds(),
		Version:           r.Version(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
	})
	require.NoError(t, err)

	// A replayed report at the same level must not re-alert.
	assert.Empty(t, restored.CrossedThresholds(1000, []int{80, 90, 100}))
	assert.Equal(t, []int{80, 90}, restored.AlertedThresholds())
}
