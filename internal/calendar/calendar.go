// Package calendar partitions a calendar month into fixed week buckets and
// resolves month or week windows into instant ranges.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// BucketCount is the number of week buckets in every month. The last bucket
// holds day 29 onwards and is empty for 28-day months.
const BucketCount = 5

const bucketDays = 7

var (
	// ErrBucketOutOfRange is returned for bucket indexes outside 1..BucketCount.
	ErrBucketOutOfRange = errors.New("calendar: week bucket out of range")
	// ErrEmptyBucket is returned for a bucket that contains no days in the month.
	ErrEmptyBucket = errors.New("calendar: week bucket has no days")
	// ErrInvalidMonth is returned for months outside 1..12.
	ErrInvalidMonth = errors.New("calendar: invalid month")
)

// Bucket is a contiguous run of days within a month.
type Bucket struct {
	Index    int
	StartDay int
	EndDay   int
	Label    string
}

// DaysIn returns the number of days in the given month, accounting for leap years.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CurrentWeekBucket returns the bucket containing the day of the month of today.
func CurrentWeekBucket(today time.Time) int {
	bucket := (today.Day()-1)/bucketDays + 1
	if bucket > BucketCount {
		bucket = BucketCount
	}
	return bucket
}

// DefaultWeekBucket picks the bucket preselected when the week filter is
// enabled for the given month: the current bucket when the month is today's
// month, otherwise the first bucket.
func DefaultWeekBucket(year int, month time.Month, today time.Time) int {
	if today.Year() == year && today.Month() == month {
		return CurrentWeekBucket(today)
	}
	return 1
}

// WeekBucketLabels returns exactly BucketCount labels for the month. The last
// label is "29" for 29-day months, "29 - N" for longer months and empty for
// 28-day months.
func WeekBucketLabels(year int, month time.Month) []string {
	labels := make([]string, BucketCount)
	for i := 1; i <= BucketCount; i++ {
		start, end, err := DateRangeForBucket(year, month, i)
		if err != nil {
			continue
		}
		labels[i-1] = label(start, end)
	}
	return labels
}

// DateRangeForBucket returns the inclusive day range covered by bucket.
func DateRangeForBucket(year int, month time.Month, bucket int) (startDay, endDay int, err error) {
	if month < time.January || month > time.December {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if bucket < 1 || bucket > BucketCount {
		return 0, 0, fmt.Errorf("%w: %d", ErrBucketOutOfRange, bucket)
	}

	days := DaysIn(year, month)
	startDay = (bucket-1)*bucketDays + 1
	if startDay > days {
		return 0, 0, fmt.Errorf("%w: bucket %d of %04d-%02d", ErrEmptyBucket, bucket, year, int(month))
	}

	endDay = startDay + bucketDays - 1
	if bucket == BucketCount || endDay > days {
		endDay = days
	}
	return startDay, endDay, nil
}

// Buckets lists the non-empty buckets of the month in order.
func Buckets(year int, month time.Month) []Bucket {
	buckets := make([]Bucket, 0, BucketCount)
	for i := 1; i <= BucketCount; i++ {
		start, end, err := DateRangeForBucket(year, month, i)
		if err != nil {
			continue
		}
		buckets = append(buckets, Bucket{Index: i, StartDay: start, EndDay: end, Label: label(start, end)})
	}
	return buckets
}

func label(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d - %d", start, end)
}
