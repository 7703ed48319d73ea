package usage

import "errors"

var (
	ErrPeriodNotFound      = errors.New("usage period not found")
	ErrSampleOutsidePeriod = errors.New("sample falls outside the usage period")
)
