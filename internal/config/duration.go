package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a yaml-friendly time.Duration. Besides the usual Go
// duration syntax it accepts a "d" suffix for days, so retention
// periods can be written as "7d" instead of "168h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func parseDuration(s string) (time.Duration, error) {
	if v, err := time.ParseDuration(s); err == nil {
		return v, nil
	}
	if rest, ok := strings.CutSuffix(s, "d"); ok {
		if days, err := strconv.ParseFloat(rest, 64); err == nil {
			return time.Duration(days * float64(24*time.Hour)), nil
		}
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}
