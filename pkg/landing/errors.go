package landing

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every MetricUnavailableError via errors.Is
var ErrUnavailable = errors.New("metric unavailable")

// MetricUnavailableError reports a metric whose underlying query found nothing
type MetricUnavailableError struct {
	Metric string
	Reason string
}

func (e *MetricUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %s", e.Metric, e.Reason)
}

func (e *MetricUnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(metric, format string, args ...any) error {
	return &MetricUnavailableError{Metric: metric, Reason: fmt.Sprintf(format, args...)}
}
