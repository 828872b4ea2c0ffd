package activity

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	steps atomic.Int32
}

func (c *counter) Step() { c.steps.Add(1) }

func sequential() Descriptor {
	return Descriptor{Kind: KindSequential, CPUAffinity: AllCPUs}
}

func TestNewRejectsInvalidDescriptor(t *testing.T) {
	act, err := New(Descriptor{Kind: KindPeriodic, CPUAffinity: AllCPUs}, nil)
	assert.Error(t, err)
	assert.Nil(t, act)
}

func TestSlaveWithoutMaster(t *testing.T) {
	act, err := New(Descriptor{Kind: KindSlave, Master: "clock", CPUAffinity: AllCPUs}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMasterNotFound))
	assert.Nil(t, act)
}

func TestStartRequiresRunnable(t *testing.T) {
	act, err := New(sequential(), nil)
	require.NoError(t, err)
	assert.Error(t, act.Start())
	assert.False(t, act.IsRunning())
}

func TestSequentialExecute(t *testing.T) {
	act, err := New(sequential(), nil)
	require.NoError(t, err)

	c := &counter{}
	act.Attach(c)
	assert.False(t, act.Execute(), "not running yet")

	require.NoError(t, act.Start())
	assert.Error(t, act.Start(), "double start")
	assert.True(t, act.Execute())
	assert.True(t, act.Trigger())
	assert.Equal(t, int32(2), c.steps.Load())

	require.NoError(t, act.Stop())
	assert.NoError(t, act.Stop(), "stop is idempotent")
	assert.False(t, act.Trigger())
}

func TestMasterStepsSlaves(t *testing.T) {
	master, err := New(sequential(), nil)
	require.NoError(t, err)
	slave, err := New(Descriptor{Kind: KindSlave, Master: "clock", CPUAffinity: AllCPUs}, master)
	require.NoError(t, err)

	mc, sc := &counter{}, &counter{}
	master.Attach(mc)
	slave.Attach(sc)
	require.NoError(t, master.Start())

	master.Execute()
	assert.Equal(t, int32(0), sc.steps.Load(), "stopped slave is skipped")

	require.NoError(t, slave.Start())
	master.Execute()
	assert.Equal(t, int32(2), mc.steps.Load())
	assert.Equal(t, int32(1), sc.steps.Load())

	require.NoError(t, master.Stop())
	require.NoError(t, slave.Stop())
}

func slaveCount(act Activity) int {
	d := act.(*driver)
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slaves)
}

func TestStoppedSlaveLeavesItsMaster(t *testing.T) {
	master, err := New(sequential(), nil)
	require.NoError(t, err)
	master.Attach(&counter{})
	require.NoError(t, master.Start())
	defer master.Stop()

	desc := Descriptor{Kind: KindSlave, Master: "clock", CPUAffinity: AllCPUs}
	old, err := New(desc, master)
	require.NoError(t, err)
	old.Attach(&counter{})
	require.NoError(t, old.Start())
	require.Equal(t, 1, slaveCount(master))

	// Replacing a slave stops the old one before the new one is started.
	require.NoError(t, old.Stop())
	assert.Equal(t, 0, slaveCount(master))

	replacement, err := New(desc, master)
	require.NoError(t, err)
	sc := &counter{}
	replacement.Attach(sc)
	require.NoError(t, replacement.Start())
	assert.Equal(t, 1, slaveCount(master))

	master.Execute()
	assert.Equal(t, int32(1), sc.steps.Load())

	require.NoError(t, replacement.Stop())
	assert.Equal(t, 0, slaveCount(master))
	require.NoError(t, replacement.Start())
	assert.Equal(t, 1, slaveCount(master), "restarted slave rejoins its master")
	require.NoError(t, replacement.Stop())
}

func TestPeriodicActivity(t *testing.T) {
	act, err := New(Descriptor{Kind: KindPeriodic, Period: 5 * time.Millisecond, CPUAffinity: AllCPUs}, nil)
	require.NoError(t, err)

	c := &counter{}
	act.Attach(c)
	require.NoError(t, act.Start())
	assert.False(t, act.Execute(), "periodic activities cannot be executed directly")

	assert.Eventually(t, func() bool { return c.steps.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, act.Stop())

	after := c.steps.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, c.steps.Load(), "no steps after stop")
}

func TestNonPeriodicTrigger(t *testing.T) {
	act, err := New(Descriptor{Kind: KindNonPeriodic, CPUAffinity: AllCPUs}, nil)
	require.NoError(t, err)

	c := &counter{}
	act.Attach(c)
	require.NoError(t, act.Start())
	assert.True(t, act.Trigger())
	assert.Eventually(t, func() bool { return c.steps.Load() >= 1 }, time.Second, time.Millisecond)
	require.NoError(t, act.Stop())
}

func TestFileTriggeredActivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	act, err := New(Descriptor{Kind: KindFileTriggered, File: path, CPUAffinity: AllCPUs}, nil)
	require.NoError(t, err)

	c := &counter{}
	act.Attach(c)
	require.NoError(t, act.Start())

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	assert.Eventually(t, func() bool { return c.steps.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, act.Stop())
}

func TestFileTriggeredMissingDirectory(t *testing.T) {
	act, err := New(Descriptor{Kind: KindFileTriggered, File: "/does/not/exist/file", CPUAffinity: AllCPUs}, nil)
	require.NoError(t, err)
	act.Attach(&counter{})
	assert.Error(t, act.Start())
	assert.False(t, act.IsRunning())
}
