package model

import (
    "fmt"
    "time"
)

// Interval is a half-open time range [Start, End).  Start is inclusive and
// End is exclusive, so two intervals that share only a boundary point do
// not overlap.  All reservation windows are expressed as intervals and all
// timestamps are stored in UTC.
type Interval struct {
    Start time.Time `json:"start"`
    End   time.Time `json:"end"`
}

// NewInterval builds an interval with both endpoints normalised to UTC.
func NewInterval(start, end time.Time) Interval {
    return Interval{Start: start.UTC(), End: end.UTC()}
}

// Validate checks that the interval is well-formed.  Zero-length and
// inverted intervals are rejected; both cases indicate a malformed request
// rather than an unavailable resource.
func (iv Interval) Validate() error {
    if iv.Start.IsZero() || iv.End.IsZero() {
        return fmt.Errorf("interval endpoints must be set")
    }
    if !iv.Start.Before(iv.End) {
        return fmt.Errorf("interval start %s must be before end %s", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
    }
    return nil
}

// Overlaps reports whether two half-open intervals intersect.  The test is
// the minimal two-inequality form: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 && s2 < e1.  Touching boundaries do not count as overlap.
func (iv Interval) Overlaps(other Interval) bool {
    return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
    return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
    return iv.End.Sub(iv.Start)
}
