package component

import (
	"fmt"
	"sort"
	"strings"
)

// BufferType selects how a connection stores samples.
type BufferType int

const (
	BufferData BufferType = iota
	BufferBuffer
	BufferCircular
)

func (b BufferType) String() string {
	switch b {
	case BufferBuffer:
		return "buffer"
	case BufferCircular:
		return "circular_buffer"
	default:
		return "data"
	}
}

// LockPolicy selects the synchronisation used by a connection.
type LockPolicy int

const (
	LockUnsync LockPolicy = iota
	LockLocked
	LockFree
)

func (l LockPolicy) String() string {
	switch l {
	case LockUnsync:
		return "unsync"
	case LockLocked:
		return "locked"
	default:
		return "lock_free"
	}
}

// ConnPolicy describes how a connection between two ports is built.
type ConnPolicy struct {
	Type       BufferType
	Init       bool
	LockPolicy LockPolicy
	Pull       bool
	Size       int
	Transport  int
	DataSize   int
	NameID     string
}

// DefaultPolicy is a lock-free data connection.
func DefaultPolicy() ConnPolicy {
	return ConnPolicy{Type: BufferData, LockPolicy: LockFree}
}

func (p ConnPolicy) String() string {
	s := fmt.Sprintf("%s/%s", p.Type, p.LockPolicy)
	if p.Type != BufferData {
		s += fmt.Sprintf(" size=%d", p.Size)
	}
	if p.Pull {
		s += " pull"
	}
	if p.NameID != "" {
		s += " name_id=" + p.NameID
	}
	return s
}

// policyFields is the fixed connection policy schema.
var policyFields = map[string]func(*ConnPolicy, any) error{
	"type": func(p *ConnPolicy, v any) error {
		n, err := enumValue(v, map[string]int{"data": 0, "buffer": 1, "circular_buffer": 2}, 2)
		p.Type = BufferType(n)
		return err
	},
	"init": func(p *ConnPolicy, v any) (err error) {
		p.Init, err = boolValue(v)
		return err
	},
	"lock_policy": func(p *ConnPolicy, v any) error {
		n, err := enumValue(v, map[string]int{"unsync": 0, "locked": 1, "lock_free": 2}, 2)
		p.LockPolicy = LockPolicy(n)
		return err
	},
	"pull": func(p *ConnPolicy, v any) (err error) {
		p.Pull, err = boolValue(v)
		return err
	},
	"size": func(p *ConnPolicy, v any) (err error) {
		p.Size, err = intValue(v)
		return err
	},
	"transport": func(p *ConnPolicy, v any) (err error) {
		p.Transport, err = intValue(v)
		return err
	},
	"data_size": func(p *ConnPolicy, v any) (err error) {
		p.DataSize, err = intValue(v)
		return err
	},
	"name_id": func(p *ConnPolicy, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		p.NameID = s
		return nil
	},
}

// PolicyFieldNames returns the schema keys accepted by ComposePolicy.
func PolicyFieldNames() []string {
	names := make([]string, 0, len(policyFields))
	for name := range policyFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComposePolicy builds a ConnPolicy from a decoded mapping. It fails when
// the mapping is empty, has a key outside the schema, or holds a value of
// the wrong type.
func ComposePolicy(fields map[string]any) (ConnPolicy, error) {
	policy := DefaultPolicy()
	if len(fields) == 0 {
		return policy, fmt.Errorf("empty connection policy")
	}
	for key, value := range fields {
		set, ok := policyFields[key]
		if !ok {
			return policy, fmt.Errorf("unknown connection policy field '%s'", key)
		}
		if err := set(&policy, value); err != nil {
			return policy, fmt.Errorf("connection policy field '%s': %w", key, err)
		}
	}
	if policy.Size < 0 || policy.DataSize < 0 {
		return policy, fmt.Errorf("connection policy sizes must not be negative")
	}
	return policy, nil
}

func boolValue(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func intValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func enumValue(v any, names map[string]int, max int) (int, error) {
	if s, ok := v.(string); ok {
		n, known := names[strings.ToLower(s)]
		if !known {
			return 0, fmt.Errorf("unknown value '%s'", s)
		}
		return n, nil
	}
	n, err := intValue(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("value %d out of range 0..%d", n, max)
	}
	return n, nil
}
