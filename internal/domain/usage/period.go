package usage

import (
	"fmt"
	"sort"
	"time"

	"bandwave/internal/shared/biztime"
	"bandwave/internal/shared/id"
)

// DailyBucket aggregates one business day of traffic inside a period.
type DailyBucket struct {
	Date         string `json:"date"`
	BytesUp      uint64 `json:"bytes_up"`
	BytesDown    uint64 `json:"bytes_down"`
	SessionCount int    `json:"session_count"`
}

// Sample is one usage report from the access network.
type Sample struct {
	BytesUp         uint64
	BytesDown       uint64
	SessionDuration time.Duration
	SpeedMbps       float64
	ReportedAt      time.Time
}

// PeriodRecord accumulates usage for one subscription over one billing
// period. Alert thresholds fire at most once per period: the alerted ledger
// survives restarts so re-reported samples never re-alert.
type PeriodRecord struct {
	id             uint
	sid            string
	subscriptionID uint
	periodStart    time.Time
	periodEnd      time.Time

	totalBytesUp   uint64
	totalBytesDown uint64
	sessionCount   int
	totalDuration  time.Duration

	avgSpeedMbps  float64
	peakSpeedMbps float64
	speedSamples  int

	daily map[string]*DailyBucket

	alertedThresholds map[int]bool

	version   int
	createdAt time.Time
	updatedAt time.Time
}

func NewPeriodRecord(subscriptionID uint, periodStart, periodEnd time.Time) (*PeriodRecord, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	now := biztime.NowUTC()
	return &PeriodRecord{
		sid:               id.MustGenerateWithPrefix(id.PrefixUsagePeriod, id.DefaultLength),
		subscriptionID:    subscriptionID,
		periodStart:       periodStart.UTC(),
		periodEnd:         periodEnd.UTC(),
		daily:             make(map[string]*DailyBucket),
		alertedThresholds: make(map[int]bool),
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructParams carries persisted period state back into the record.
type ReconstructParams struct {
	ID                uint
	SID               string
	SubscriptionID    uint
	PeriodStart       time.Time
	PeriodEnd         time.Time
	TotalBytesUp      uint64
	TotalBytesDown    uint64
	SessionCount      int
	TotalDuration     time.Duration
	AvgSpeedMbps      float64
	PeakSpeedMbps     float64
	SpeedSamples      int
	Daily             []DailyBucket
	AlertedThresholds []int
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func Reconstruct(p ReconstructParams) (*PeriodRecord, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("period ID cannot be zero")
	}
	if p.SubscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}

	daily := make(map[string]*DailyBucket, len(p.Daily))
	for i := range p.Daily {
		b := p.Daily[i]
		daily[b.Date] = &b
	}
	alerted := make(map[int]bool, len(p.AlertedThresholds))
	for _, t := range p.AlertedThresholds {
		alerted[t] = true
	}

	return &PeriodRecord{
		id:                p.ID,
		sid:               p.SID,
		subscriptionID:    p.SubscriptionID,
		periodStart:       p.PeriodStart,
		periodEnd:         p.PeriodEnd,
		totalBytesUp:      p.TotalBytesUp,
		totalBytesDown:    p.TotalBytesDown,
		sessionCount:      p.SessionCount,
		totalDuration:     p.TotalDuration,
		avgSpeedMbps:      p.AvgSpeedMbps,
		peakSpeedMbps:     p.PeakSpeedMbps,
		speedSamples:      p.SpeedSamples,
		daily:             daily,
		alertedThresholds: alerted,
		version:           p.Version,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}, nil
}

func (r *PeriodRecord) ID() uint                     { return r.id }
func (r *PeriodRecord) SID() string                  { return r.sid }
func (r *PeriodRecord) SubscriptionID() uint         { return r.subscriptionID }
func (r *PeriodRecord) PeriodStart() time.Time       { return r.periodStart }
func (r *PeriodRecord) PeriodEnd() time.Time         { return r.periodEnd }
func (r *PeriodRecord) TotalBytesUp() uint64         { return r.totalBytesUp }
func (r *PeriodRecord) TotalBytesDown() uint64       { return r.totalBytesDown }
func (r *PeriodRecord) SessionCount() int            { return r.sessionCount }
func (r *PeriodRecord) TotalDuration() time.Duration { return r.totalDuration }
func (r *PeriodRecord) AvgSpeedMbps() float64        { return r.avgSpeedMbps }
func (r *PeriodRecord) PeakSpeedMbps() float64       { return r.peakSpeedMbps }
func (r *PeriodRecord) SpeedSamples() int            { return r.speedSamples }
func (r *PeriodRecord) Version() int                 { return r.version }
func (r *PeriodRecord) CreatedAt() time.Time         { return r.createdAt }
func (r *PeriodRecord) UpdatedAt() time.Time         { return r.updatedAt }

// TotalBytes returns combined up and down traffic for the period.
func (r *PeriodRecord) TotalBytes() uint64 {
	return r.totalBytesUp + r.totalBytesDown
}

// SetID sets the period ID (only for persistence layer use)
func (r *PeriodRecord) SetID(periodID uint) error {
	if r.id != 0 {
		return fmt.Errorf("period ID is already set")
	}
	if periodID == 0 {
		return fmt.Errorf("period ID cannot be zero")
	}
	r.id = periodID
	return nil
}

// CommitVersion advances the optimistic-lock token after a successful
// repository commit.
func (r *PeriodRecord) CommitVersion() {
	r.version++
}

// Contains reports whether a timestamp falls inside the period.
func (r *PeriodRecord) Contains(at time.Time) bool {
	return !at.Before(r.periodStart) && at.Before(r.periodEnd)
}

// Record folds one sample into the period and its business-day bucket.
func (r *PeriodRecord) Record(s Sample) error {
	if s.ReportedAt.IsZero() {
		return fmt.Errorf("sample timestamp is required")
	}
	if !r.Contains(s.ReportedAt) {
		return ErrSampleOutsidePeriod
	}
	if s.SessionDuration < 0 {
		return fmt.Errorf("session duration cannot be negative")
	}

	r.totalBytesUp += s.BytesUp
	r.totalBytesDown += s.BytesDown
	r.sessionCount++
	r.totalDuration += s.SessionDuration

	if s.SpeedMbps > 0 {
		// Running mean over the samples that carried a speed reading.
		r.avgSpeedMbps = (r.avgSpeedMbps*float64(r.speedSamples) + s.SpeedMbps) / float64(r.speedSamples+1)
		r.speedSamples++
		if s.SpeedMbps > r.peakSpeedMbps {
			r.peakSpeedMbps = s.SpeedMbps
		}
	}

	key := biztime.DateKey(s.ReportedAt)
	bucket, ok := r.daily[key]
	if !ok {
		bucket = &DailyBucket{Date: key}
		r.daily[key] = bucket
	}
	bucket.BytesUp += s.BytesUp
	bucket.BytesDown += s.BytesDown
	bucket.SessionCount++

	r.updatedAt = biztime.NowUTC()

	return nil
}

// DailyBuckets returns the per-day breakdown sorted by date.
func (r *PeriodRecord) DailyBuckets() []DailyBucket {
	out := make([]DailyBucket, 0, len(r.daily))
	for _, b := range r.daily {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// UsagePercent returns consumption against the plan's data limit. Unlimited
// plans (limit zero) report zero.
func (r *PeriodRecord) UsagePercent(dataLimitBytes uint64) float64 {
	if dataLimitBytes == 0 {
		return 0
	}
	return float64(r.TotalBytes()) / float64(dataLimitBytes) * 100
}

// AlertedThresholds returns the thresholds already fired this period, sorted
// ascending.
func (r *PeriodRecord) AlertedThresholds() []int {
	out := make([]int, 0, len(r.alertedThresholds))
	for t := range r.alertedThresholds {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// CrossedThresholds returns the configured thresholds newly crossed by the
// current usage level and marks them fired. A threshold fires at most once
// per period even when usage reports arrive out of order or are replayed;
// one sample that jumps past several thresholds fires them all. Unlimited
// plans never alert.
func (r *PeriodRecord) CrossedThresholds(dataLimitBytes uint64, thresholds []int) []int {
	if dataLimitBytes == 0 {
		return nil
	}

	percent := r.UsagePercent(dataLimitBytes)
	var crossed []int
	for _, t := range thresholds {
		if percent >= float64(t) && !r.alertedThresholds[t] {
			r.alertedThresholds[t] = true
			crossed = append(crossed, t)
		}
	}
	if len(crossed) > 0 {
		sort.Ints(crossed)
		r.updatedAt = biztime.NowUTC()
	}
	return crossed
}
