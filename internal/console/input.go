package console

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "03:04 PM"
)

var clockLayouts = []string{clockLayout, "3:04 PM", "3:04PM", "15:04"}

// prompt prints label and reads one trimmed line. A final line without a
// newline is returned before io.EOF.
func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptDefault shows current in brackets and returns it for empty input.
func (c *Console) promptDefault(label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s [%s]", label, current)
	}
	value, err := c.prompt(label + ": ")
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func (c *Console) confirm(question string) (bool, error) {
	answer, err := c.prompt(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
}

// parseClock combines a date with a wall clock time such as "09:30 AM".
func parseClock(day time.Time, value string) (time.Time, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected hh:mm AM/PM", value)
}

func parseMonth(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01", strings.TrimSpace(value), loc)
}
