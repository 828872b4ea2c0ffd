package activity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind is the variant tag of a Descriptor.
type Kind string

const (
	KindPeriodic      Kind = "Periodic"
	KindNonPeriodic   Kind = "NonPeriodic"
	KindSlave         Kind = "Slave"
	KindSequential    Kind = "Sequential"
	KindFileTriggered Kind = "FileTriggered"
)

// Scheduler is the requested scheduling class.
type Scheduler int

const (
	SchedOther Scheduler = iota
	SchedRT
)

func (s Scheduler) String() string {
	if s == SchedRT {
		return "ORO_SCHED_RT"
	}
	return "ORO_SCHED_OTHER"
}

// AllCPUs is the default CPU affinity mask.
const AllCPUs = ^uint(0)

// Descriptor describes the activity to build for a component. Only the
// fields relevant to Kind are meaningful.
type Descriptor struct {
	Kind        Kind
	Period      time.Duration
	Priority    int
	Scheduler   Scheduler
	CPUAffinity uint

	// Master names the component whose activity drives a Slave.
	Master string

	// File and Timeout configure a FileTriggered activity.
	File    string
	Timeout time.Duration
}

func (d Descriptor) String() string {
	switch d.Kind {
	case KindPeriodic:
		return fmt.Sprintf("Periodic(period=%s, priority=%d, %s)", d.Period, d.Priority, d.Scheduler)
	case KindSlave:
		if d.Master != "" {
			return fmt.Sprintf("Slave(master=%s)", d.Master)
		}
		return fmt.Sprintf("Slave(period=%s)", d.Period)
	case KindFileTriggered:
		return fmt.Sprintf("FileTriggered(file=%s, priority=%d, %s)", d.File, d.Priority, d.Scheduler)
	case KindNonPeriodic:
		return fmt.Sprintf("NonPeriodic(priority=%d, %s)", d.Priority, d.Scheduler)
	default:
		return string(d.Kind)
	}
}

// Validate checks the kind-specific invariants of d.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindPeriodic:
		if d.Period <= 0 {
			return fmt.Errorf("periodic activity needs a positive period")
		}
	case KindSlave:
		if d.Master == "" && d.Period <= 0 {
			return fmt.Errorf("slave activity needs a master or a positive period")
		}
	case KindNonPeriodic, KindSequential, KindFileTriggered:
	default:
		return fmt.Errorf("unknown activity kind '%s'", d.Kind)
	}
	if d.Period < 0 || d.Timeout < 0 {
		return fmt.Errorf("activity durations must not be negative")
	}
	if d.CPUAffinity == 0 {
		return fmt.Errorf("cpu affinity mask must select at least one cpu")
	}
	return nil
}

// ParseKind maps the activity type names accepted in deployment documents to
// a Kind. "Activity" is periodic when period > 0 and non periodic otherwise.
func ParseKind(name string, period time.Duration) (Kind, error) {
	switch name {
	case "Periodic", "PeriodicActivity":
		return KindPeriodic, nil
	case "NonPeriodic", "NonPeriodicActivity":
		return KindNonPeriodic, nil
	case "Activity":
		if period > 0 {
			return KindPeriodic, nil
		}
		return KindNonPeriodic, nil
	case "Slave", "SlaveActivity":
		return KindSlave, nil
	case "Sequential", "SequentialActivity":
		return KindSequential, nil
	case "FileTriggered", "FileDescriptorActivity":
		return KindFileTriggered, nil
	default:
		return "", fmt.Errorf("unknown activity type '%s'", name)
	}
}

// ParseScheduler accepts ORO_SCHED_OTHER, ORO_SCHED_RT, other, rt or 0/1.
func ParseScheduler(v any) (Scheduler, error) {
	switch s := v.(type) {
	case string:
		switch strings.ToUpper(s) {
		case "ORO_SCHED_OTHER", "OTHER", "SCHED_OTHER":
			return SchedOther, nil
		case "ORO_SCHED_RT", "RT", "SCHED_RT":
			return SchedRT, nil
		}
		return SchedOther, fmt.Errorf("unknown scheduler '%s'", s)
	case int:
		if s == 0 || s == 1 {
			return Scheduler(s), nil
		}
		return SchedOther, fmt.Errorf("unknown scheduler %d", s)
	default:
		return SchedOther, fmt.Errorf("expected scheduler name, got %T", v)
	}
}

// required lists the fields each kind cannot do without. Slave is checked
// separately because it needs one of two fields.
var required = map[Kind][]string{
	KindPeriodic:      {"Period", "Priority"},
	KindNonPeriodic:   {"Priority"},
	KindFileTriggered: {"Priority"},
}

var knownFields = map[string]bool{
	"Type": true, "Period": true, "Priority": true, "Scheduler": true,
	"CpuAffinity": true, "Master": true, "File": true, "Timeout": true,
}

// FromFields builds a Descriptor from the decoded Activity sub-tree of a
// deployment document. All problems are reported together; the returned
// descriptor is only usable when the error is nil.
func FromFields(fields map[string]any) (Descriptor, error) {
	desc := Descriptor{Scheduler: SchedOther, CPUAffinity: AllCPUs}
	var errs []error

	var unknown []string
	for key := range fields {
		if !knownFields[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, fmt.Errorf("unknown activity field '%s'", key))
	}

	if v, ok := fields["Period"]; ok {
		d, err := seconds(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("Period: %w", err))
		}
		desc.Period = d
	}
	if v, ok := fields["Timeout"]; ok {
		d, err := seconds(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("Timeout: %w", err))
		}
		desc.Timeout = d
	}
	if v, ok := fields["Priority"]; ok {
		n, isInt := v.(int)
		if !isInt {
			errs = append(errs, fmt.Errorf("Priority: expected integer, got %T", v))
		}
		desc.Priority = n
	}
	if v, ok := fields["Scheduler"]; ok {
		s, err := ParseScheduler(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("Scheduler: %w", err))
		}
		desc.Scheduler = s
	}
	if v, ok := fields["CpuAffinity"]; ok {
		n, isInt := v.(int)
		if !isInt || n <= 0 {
			errs = append(errs, fmt.Errorf("CpuAffinity: expected positive integer mask, got %v", v))
		} else {
			desc.CPUAffinity = uint(n)
		}
	}
	for _, key := range []string{"Master", "File"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			errs = append(errs, fmt.Errorf("%s: expected string, got %T", key, v))
			continue
		}
		if key == "Master" {
			desc.Master = s
		} else {
			desc.File = s
		}
	}

	typeName, _ := fields["Type"].(string)
	if typeName == "" {
		errs = append(errs, fmt.Errorf("activity needs a Type"))
		return desc, errors.Join(errs...)
	}
	kind, err := ParseKind(typeName, desc.Period)
	if err != nil {
		errs = append(errs, err)
		return desc, errors.Join(errs...)
	}
	desc.Kind = kind

	for _, field := range required[kind] {
		if _, ok := fields[field]; !ok {
			errs = append(errs, fmt.Errorf("%s activity requires '%s'", kind, field))
		}
	}
	if kind == KindSlave {
		_, hasMaster := fields["Master"]
		_, hasPeriod := fields["Period"]
		if !hasMaster && !hasPeriod {
			errs = append(errs, fmt.Errorf("Slave activity requires 'Master' or 'Period'"))
		}
	}

	if len(errs) == 0 {
		if err := desc.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return desc, errors.Join(errs...)
}

func seconds(v any) (time.Duration, error) {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second, nil
	case float64:
		return time.Duration(n * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected seconds, got %T", v)
	}
}
