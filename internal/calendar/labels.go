package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/Leganyst/session-booking/internal/apperr"
)

const clockLayout = "15:04"

// FormatLabel строит метку вида "08:00-08:15".
func FormatLabel(tr TimeRange) string {
	return tr.Start.Format(clockLayout) + "-" + tr.End.Format(clockLayout)
}

// GenerateLabels нарезает рабочий день [dayStart, dayEnd) на метки по slotMinutes.
func GenerateLabels(dayStart, dayEnd string, slotMinutes int) ([]string, error) {
	start, err := time.Parse(clockLayout, dayStart)
	if err != nil {
		return nil, fmt.Errorf("day start %q: %w", dayStart, err)
	}
	end, err := time.Parse(clockLayout, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("day end %q: %w", dayEnd, err)
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	ranges, err := SplitToTimeSlots(TimeRange{Start: start, End: end}, time.Duration(slotMinutes)*time.Minute, 0)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(ranges))
	for _, r := range ranges {
		labels = append(labels, FormatLabel(r))
	}
	return labels, nil
}

// ParseLabel разбирает метку в смещения от начала дня.
func ParseLabel(label string) (from, to time.Duration, err error) {
	left, right, ok := strings.Cut(label, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, label)
	}
	a, err := time.Parse(clockLayout, left)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, label)
	}
	b, err := time.Parse(clockLayout, right)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, label)
	}
	from = time.Duration(a.Hour())*time.Hour + time.Duration(a.Minute())*time.Minute
	to = time.Duration(b.Hour())*time.Hour + time.Duration(b.Minute())*time.Minute
	if to <= from {
		return 0, 0, fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, label)
	}
	return from, to, nil
}

// LabelRange переводит (дата, метка) в конкретный интервал в часовом поясе loc.
func LabelRange(day time.Time, label string, loc *time.Location) (TimeRange, error) {
	from, to, err := ParseLabel(label)
	if err != nil {
		return TimeRange{}, err
	}
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return TimeRange{Start: midnight.Add(from), End: midnight.Add(to)}, nil
}

// ValidateCatalog проверяет, что метки разбираются и не пересекаются.
func ValidateCatalog(labels []string) error {
	seen := make([]TimeRange, 0, len(labels))
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, l := range labels {
		tr, err := LabelRange(base, l, time.UTC)
		if err != nil {
			return err
		}
		if overlap, _ := HasOverlap(tr, seen, false); overlap {
			return fmt.Errorf("%w: label %q overlaps another label", apperr.ErrValidation, l)
		}
		seen = append(seen, tr)
	}
	return nil
}
