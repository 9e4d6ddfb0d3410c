package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// args decodes loosely typed operation arguments (JSON bodies, MQTT payloads).
type args struct {
	op  string
	raw map[string]any
	now time.Time
}

func (a args) invalid(key string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, a.op, key)
	}
	return fmt.Errorf("%w: %s: %s: %v", ErrInvalidArgument, a.op, key, err)
}

func (a args) has(key string) bool {
	v, ok := a.raw[key]
	return ok && v != nil
}

func (a args) value(key string) (any, error) {
	if !a.has(key) {
		return nil, a.invalid(key, fmt.Errorf("missing"))
	}
	return a.raw[key], nil
}

func (a args) String(key string) (string, error) {
	v, err := a.value(key)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", a.invalid(key, err)
	}
	if strings.TrimSpace(s) == "" {
		return "", a.invalid(key, fmt.Errorf("empty"))
	}
	return s, nil
}

func (a args) Float(key string) (float64, error) {
	v, err := a.value(key)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, a.invalid(key, err)
	}
	return f, nil
}

func (a args) Int(key string) (int, error) {
	v, err := a.value(key)
	if err != nil {
		return 0, err
	}
	if f, ok := v.(float64); ok {
		// JSON numbers
		return int(f), nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, a.invalid(key, err)
	}
	return i, nil
}

func (a args) IntOr(key string, def int) (int, error) {
	if !a.has(key) {
		return def, nil
	}
	return a.Int(key)
}

// Bool also understands "on"/"off".
func (a args) Bool(key string) (bool, error) {
	v, err := a.value(key)
	if err != nil {
		return false, err
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, a.invalid(key, err)
	}
	return b, nil
}

// Strings accepts a list or a comma separated string.
func (a args) Strings(key string) ([]string, error) {
	v, err := a.value(key)
	if err != nil {
		return nil, err
	}
	var items []string
	if s, ok := v.(string); ok {
		items = strings.Split(s, ",")
	} else {
		items, err = cast.ToStringSliceE(v)
		if err != nil {
			return nil, a.invalid(key, err)
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, a.invalid(key, fmt.Errorf("empty"))
	}
	return out, nil
}

var timeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04"}

// Time accepts "HH:MM" (today, in UTC), "YYYY-MM-DD HH:MM" or anything cast
// understands as a timestamp.
func (a args) Time(key string) (time.Time, error) {
	v, err := a.value(key)
	if err != nil {
		return time.Time{}, err
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if hm, err := time.Parse("15:04", s); err == nil {
			y, m, d := a.now.UTC().Date()
			return time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, time.UTC), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
	if err != nil {
		return time.Time{}, a.invalid(key, err)
	}
	return t, nil
}
