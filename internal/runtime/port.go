package runtime

import (
	"fmt"
	"sync"

	"deployer/internal/component"
)

// Port is an in-process data port. Output ports deliver every written
// sample to each of their connections; input ports buffer the samples they
// receive according to the connection policy.
type Port struct {
	name  string
	dir   component.Direction
	owner string

	mu     sync.Mutex
	conns  []*Connection
	stream *component.ConnPolicy
	buffer []any
}

func newPort(owner, name string, dir component.Direction) *Port {
	return &Port{name: name, dir: dir, owner: owner}
}

func (p *Port) Name() string                   { return p.name }
func (p *Port) Direction() component.Direction { return p.dir }

// Owner returns the name of the component the port belongs to.
func (p *Port) Owner() string { return p.owner }

// ConnectTo creates one connection between p and other. other must be a
// Port of this runtime with the opposite direction. Connecting the same
// pair twice is a no-op.
func (p *Port) ConnectTo(other component.Port, policy component.ConnPolicy) error {
	o, ok := other.(*Port)
	if !ok || o == nil {
		return fmt.Errorf("%w: %s is not an in-process port", component.ErrNotConnectable, other.Name())
	}
	if o == p || o.dir == p.dir {
		return fmt.Errorf("%w: %s.%s and %s.%s are both %s ports",
			component.ErrNotConnectable, p.owner, p.name, o.owner, o.name, p.dir)
	}

	writer, reader := p, o
	if p.dir == component.Input {
		writer, reader = o, p
	}
	for _, c := range writer.Connections() {
		if c.reader == reader {
			return nil
		}
	}

	conn := &Connection{writer: writer, reader: reader, policy: policy}
	writer.attach(conn)
	reader.attach(conn)
	if policy.Init {
		reader.mu.Lock()
		reader.buffer = nil
		reader.mu.Unlock()
	}
	return nil
}

func (p *Port) attach(c *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns = append(p.conns, c)
}

func (p *Port) detach(c *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.conns {
		if existing == c {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			return
		}
	}
}

// CreateStream attaches the port to an external stream.
func (p *Port) CreateStream(policy component.ConnPolicy) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return fmt.Errorf("%s.%s already has a stream", p.owner, p.name)
	}
	p.stream = &policy
	return nil
}

// Streamed reports whether the port has an external stream.
func (p *Port) Streamed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream != nil
}

// Disconnect removes every connection and the stream of the port.
func (p *Port) Disconnect() {
	for _, c := range p.Connections() {
		c.Disconnect()
	}
	p.mu.Lock()
	p.stream = nil
	p.mu.Unlock()
}

func (p *Port) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns) > 0 || p.stream != nil
}

// Connections returns a snapshot of the port's connections.
func (p *Port) Connections() []*Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Connection, len(p.conns))
	copy(out, p.conns)
	return out
}

// Write delivers v to every connected reader and returns how many received
// it. Writing to an input port delivers nothing.
func (p *Port) Write(v any) int {
	if p.dir != component.Output {
		return 0
	}
	conns := p.Connections()
	for _, c := range conns {
		c.reader.push(v, c.policy)
	}
	return len(conns)
}

// Read pops the oldest buffered sample of an input port.
func (p *Port) Read() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) == 0 {
		return nil, false
	}
	v := p.buffer[0]
	p.buffer = p.buffer[1:]
	return v, true
}

// Pending returns the number of buffered samples.
func (p *Port) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

func (p *Port) push(v any, policy component.ConnPolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()

	size := policy.Size
	if size <= 0 {
		size = 1
	}
	switch policy.Type {
	case component.BufferBuffer:
		if len(p.buffer) < size {
			p.buffer = append(p.buffer, v)
		}
	case component.BufferCircular:
		p.buffer = append(p.buffer, v)
		if len(p.buffer) > size {
			p.buffer = p.buffer[len(p.buffer)-size:]
		}
	default:
		p.buffer = []any{v}
	}
}

// Connection is one writer to reader link.
type Connection struct {
	writer *Port
	reader *Port
	policy component.ConnPolicy
}

func (c *Connection) Writer() *Port                { return c.writer }
func (c *Connection) Reader() *Port                { return c.reader }
func (c *Connection) Policy() component.ConnPolicy { return c.policy }

// Disconnect removes this connection only.
func (c *Connection) Disconnect() {
	c.writer.detach(c)
	c.reader.detach(c)
}
