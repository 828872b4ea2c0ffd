package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deployer/internal/activity"
	"deployer/internal/component"
	"deployer/internal/config"
	"deployer/internal/connection"
	"deployer/internal/properties"
	"deployer/internal/registry"
	"deployer/internal/runtime"
)

type recordingHooks struct {
	reject   string
	loaded   []string
	unloaded []string
}

func (h *recordingHooks) OnLoaded(rec *registry.Record) error {
	if rec.Name == h.reject {
		return errors.New("rejected by test")
	}
	h.loaded = append(h.loaded, rec.Name)
	return nil
}

func (h *recordingHooks) OnUnloaded(rec *registry.Record) {
	h.unloaded = append(h.unloaded, rec.Name)
}

type phaseSpy struct {
	phases []string
	counts map[component.Status]int
}

func (s *phaseSpy) PhaseCompleted(phase string, group int, _ time.Duration, failures int, _ error) {
	s.phases = append(s.phases, fmt.Sprintf("%s/%d/%d", phase, group, failures))
}

func (s *phaseSpy) ComponentStates(counts map[component.Status]int) {
	s.counts = counts
}

func testRuntime() *runtime.Runtime {
	return runtime.New([]runtime.TypeSpec{
		{
			Name:       "Sensor",
			Ports:      []runtime.PortSpec{{Name: "out", Direction: component.Output}},
			Properties: map[string]any{"rate": 10},
		},
		{
			Name: "Filter",
			Ports: []runtime.PortSpec{
				{Name: "in", Direction: component.Input},
				{Name: "out", Direction: component.Output},
			},
		},
		{
			Name:  "Sink",
			Ports: []runtime.PortSpec{{Name: "in", Direction: component.Input}},
		},
		{
			Name:  "Tap",
			Ports: []runtime.PortSpec{{Name: "out", Direction: component.Input}},
		},
		{Name: "Lazy", NeedsConfigure: true},
		{Name: "Display", Package: "gui"},
	}, runtime.Options{Services: []string{"marshalling"}})
}

func newTestOrchestrator(t *testing.T, opts ...func(*Config)) (*Orchestrator, *runtime.Runtime) {
	t.Helper()
	rt := testRuntime()
	cfg := Config{Runtime: rt, PollInterval: 5 * time.Millisecond}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg), rt
}

func writeDoc(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

const pipelineDoc = `
sensor:
  Type: Sensor
  AutoConf: true
  AutoStart: true
  Ports:
    out: samples
left:
  Type: Sink
  AutoConf: true
  AutoStart: true
  Ports:
    in: samples
right:
  Type: Sink
  AutoConf: true
  AutoStart: true
  Ports:
    in: samples
`

func TestKickStartAndKickOutAll(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	path := writeDoc(t, t.TempDir(), "pipeline.yaml", pipelineDoc)
	ctx := context.Background()

	group, err := o.KickStart(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, group)
	assert.Equal(t, 1, o.NextGroup())

	for _, info := range o.Status() {
		assert.Equal(t, component.StatusRunning, info.Status, info.Name)
		assert.Equal(t, 0, info.Group)
	}

	sensor, ok := rt.Instance("sensor")
	require.True(t, ok)
	out, _ := sensor.DataPort("out")
	assert.Len(t, out.Connections(), 2, "one writer feeds every reader")

	conns := o.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "samples", conns[0].Label)
	assert.Equal(t, 2, conns[0].Connected)

	require.NoError(t, o.KickOutAll(ctx))
	assert.Equal(t, 0, o.NextGroup())
	assert.Empty(t, o.Status())
	assert.Empty(t, o.Connections())
	assert.Empty(t, o.Components())
	_, ok = rt.Instance("sensor")
	assert.False(t, ok, "loaded components are destroyed")
}

func TestConfigureTwiceLeavesRunningComponentsAlone(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	dir := t.TempDir()
	writeDoc(t, dir, "sensor.yaml", "rate: 20\n")
	doc := `
sensor:
  Type: Sensor
  AutoConf: true
  AutoStart: true
  PropertyFile: sensor.yaml
  Properties:
    mode: coarse
  Ports:
    out: samples
sink:
  Type: Sink
  AutoConf: true
  AutoStart: true
  Ports:
    in: samples
`
	ctx := context.Background()

	group, err := o.KickStart(ctx, writeDoc(t, dir, "pipeline.yaml", doc))
	require.NoError(t, err)

	sensor, _ := rt.Instance("sensor")
	rate, _ := sensor.Property("rate")
	assert.Equal(t, 20, rate)
	mode, _ := sensor.Property("mode")
	assert.Equal(t, "coarse", mode)

	require.NoError(t, sensor.SetProperty("rate", 99))
	require.NoError(t, sensor.SetProperty("mode", "fine"))
	require.NoError(t, o.ConfigureGroup(ctx, group))

	rate, _ = sensor.Property("rate")
	assert.Equal(t, 99, rate, "property file is not applied again")
	mode, _ = sensor.Property("mode")
	assert.Equal(t, "fine", mode, "document properties are not applied again")
	assert.Equal(t, 1, sensor.ConfigureCount())
	assert.Equal(t, component.StatusRunning, sensor.Status())
	out, _ := sensor.DataPort("out")
	assert.Len(t, out.Connections(), 1, "connections are not duplicated")
}

func TestFailedStepSkipsAutoConfigure(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	dir := t.TempDir()
	writeDoc(t, dir, "lazy.yaml", "bogus: 1\n")
	doc := `
lazy:
  Type: Lazy
  AutoConf: true
  PropertyFile: lazy.yaml
`
	ctx := context.Background()
	group, err := o.LoadComponents(ctx, writeDoc(t, dir, "d.yaml", doc))
	require.NoError(t, err)

	err = o.ConfigureGroup(ctx, group)
	assert.ErrorIs(t, err, component.ErrUnknownProperty)
	assert.False(t, o.Valid(group))

	lazy, _ := rt.Instance("lazy")
	assert.Equal(t, 0, lazy.ConfigureCount())
	assert.Equal(t, component.StatusPreOperational, lazy.Status())
}

func TestConnectionWithoutWriterInvalidatesGroup(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	doc := `
a:
  Type: Sink
  AutoStart: true
  Ports:
    in: orphan
b:
  Type: Sink
  Ports:
    in: orphan
`
	ctx := context.Background()
	group, err := o.LoadComponents(ctx, writeDoc(t, t.TempDir(), "d.yaml", doc))
	require.NoError(t, err)

	err = o.ConfigureGroup(ctx, group)
	require.Error(t, err)
	assert.True(t, errors.Is(err, connection.ErrNoWriter))
	assert.False(t, o.Valid(group))

	err = o.StartGroup(ctx, group)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	c, _ := o.Component("a")
	assert.Equal(t, component.StatusStopped, c.Status(), "nothing is started")
}

func TestGroupsAreTornDownInReverse(t *testing.T) {
	hooks := &recordingHooks{}
	o, _ := newTestOrchestrator(t, func(c *Config) { c.Hooks = hooks })
	dir := t.TempDir()
	ctx := context.Background()

	g0, err := o.LoadComponents(ctx, writeDoc(t, dir, "a.yaml", "a1:\n  Type: Sensor\na2:\n  Type: Sink\n"))
	require.NoError(t, err)
	g1, err := o.LoadComponents(ctx, writeDoc(t, dir, "b.yaml", "b1:\n  Type: Sink\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, []int{g0, g1})
	assert.Equal(t, []string{"a1", "a2", "b1"}, hooks.loaded)
	assert.Len(t, o.Groups(), 2)

	require.NoError(t, o.UnloadComponents(ctx))
	assert.Equal(t, []string{"b1", "a2", "a1"}, hooks.unloaded)
	assert.Equal(t, 0, o.NextGroup())
}

func TestStartFailureIsContained(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	doc := `
first:
  Type: Sensor
  AutoStart: true
broken:
  Type: Lazy
  AutoStart: true
last:
  Type: Sensor
  AutoStart: true
`
	ctx := context.Background()
	group, err := o.LoadComponents(ctx, writeDoc(t, t.TempDir(), "d.yaml", doc))
	require.NoError(t, err)
	require.NoError(t, o.ConfigureGroup(ctx, group))

	err = o.StartGroup(ctx, group)
	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseStart, phaseErr.Phase)
	assert.Equal(t, []string{"broken"}, phaseErr.Failed())

	for _, name := range []string{"first", "last"} {
		c, _ := o.Component(name)
		assert.Equal(t, component.StatusRunning, c.Status(), name)
	}
}

func TestLoadIsBestEffort(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	doc := `
sensor:
  Type: Sensor
  AutoStart: true
  Foo: 1
ghost:
  AutoConf: true
sink:
  Type: Sink
`
	ctx := context.Background()
	group, err := o.LoadComponents(ctx, writeDoc(t, t.TempDir(), "d.yaml", doc))
	require.Error(t, err)

	var errs *config.ConfigurationErrorCollection
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs.GetErrorsByEntry("sensor"), 1)
	assert.Len(t, errs.GetErrorsByEntry("ghost"), 1)
	assert.Contains(t, errs.GetErrorsByEntry("ghost")[0].Message, "no Type")

	info := o.Status()
	require.Len(t, info, 2)
	assert.Equal(t, "sensor", info[0].Name)
	assert.True(t, info[0].Flags.AutoStart, "valid fields still apply")
	assert.Equal(t, "Sensor", info[0].Type)

	_, ok := o.Descriptor("ghost")
	assert.False(t, ok, "unresolved components are not merged")
	assert.Equal(t, []string{"sensor", "sink"}, o.Components())
	assert.False(t, o.Valid(group))
}

func TestSlaveActivities(t *testing.T) {
	t.Run("master must exist", func(t *testing.T) {
		o, _ := newTestOrchestrator(t)
		doc := `
slave:
  Type: Sink
  Activity:
    Type: SlaveActivity
    Master: nobody
`
		_, err := o.LoadComponents(context.Background(), writeDoc(t, t.TempDir(), "d.yaml", doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), activity.ErrMasterNotFound.Error())
		assert.Empty(t, o.Status()[0].Activity)
	})

	t.Run("slave becomes a peer of its master", func(t *testing.T) {
		o, _ := newTestOrchestrator(t)
		doc := `
master:
  Type: Sensor
  Activity:
    Type: PeriodicActivity
    Period: 0.01
slave:
  Type: Sink
  Activity:
    Type: SlaveActivity
    Master: master
`
		ctx := context.Background()
		group, err := o.LoadComponents(ctx, writeDoc(t, t.TempDir(), "d.yaml", doc))
		require.NoError(t, err)

		master, _ := o.Component("master")
		assert.Contains(t, master.Peers(), "slave")
		assert.True(t, o.Status()[1].Pending)

		require.NoError(t, o.ConfigureGroup(ctx, group))
		for _, info := range o.Status() {
			assert.False(t, info.Pending, info.Name)
			assert.NotEmpty(t, info.Activity, info.Name)
		}

		require.NoError(t, o.KickOutAll(ctx))
		assert.Empty(t, o.Status())
	})
}

func TestSetActivity(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.LoadComponent(context.Background(), "s", "Sensor"))

	require.NoError(t, o.SetActivity("s", activity.Descriptor{Kind: activity.KindSequential}))
	c, _ := o.Component("s")
	require.NotNil(t, c.Activity())
	assert.False(t, o.Status()[0].Pending)

	assert.ErrorIs(t, o.SetActivity("nope", activity.Descriptor{Kind: activity.KindSequential}), ErrUnknownComponent)
}

func TestLoadHookCanReject(t *testing.T) {
	hooks := &recordingHooks{reject: "sensor"}
	o, rt := newTestOrchestrator(t, func(c *Config) { c.Hooks = hooks })

	_, err := o.LoadComponents(context.Background(), writeDoc(t, t.TempDir(), "d.yaml", "sensor:\n  Type: Sensor\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected by test")
	_, ok := rt.Instance("sensor")
	assert.False(t, ok)
	assert.Empty(t, o.Status())
}

func TestCleanupSavesProperties(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	dir := t.TempDir()
	props := writeDoc(t, dir, "sensor.yaml", "rate: 20\n")
	doc := `
sensor:
  Type: Sensor
  AutoConf: true
  AutoSave: true
  PropertyFile: sensor.yaml
unsaved:
  Type: Sensor
  AutoConf: true
  AutoSave: true
`
	ctx := context.Background()
	group, err := o.LoadComponents(ctx, writeDoc(t, dir, "d.yaml", doc))
	require.NoError(t, err)
	require.NoError(t, o.ConfigureGroup(ctx, group))

	sensor, _ := rt.Instance("sensor")
	rate, _ := sensor.Property("rate")
	assert.Equal(t, 20, rate)
	require.NoError(t, sensor.SetProperty("rate", 42))

	require.NoError(t, o.CleanupGroup(ctx, group))
	assert.Equal(t, component.StatusPreOperational, sensor.Status())

	values, err := properties.Read(props)
	require.NoError(t, err)
	assert.Equal(t, 42, values["rate"])

	require.NoError(t, o.CleanupGroup(ctx, group), "cleaning up twice is harmless")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no property file is invented for AutoSave without one")
}

func TestRunningComponentsBlockTeardown(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()
	group, err := o.KickStart(ctx, writeDoc(t, t.TempDir(), "pipeline.yaml", pipelineDoc))
	require.NoError(t, err)

	err = o.CleanupGroup(ctx, group)
	assert.ErrorIs(t, err, ErrComponentRunning)

	err = o.UnloadGroup(ctx, group)
	assert.ErrorIs(t, err, ErrComponentRunning)
	assert.Len(t, o.Status(), 3, "running components keep their records")
	assert.Equal(t, 1, o.NextGroup())

	require.NoError(t, o.StopGroup(ctx, group))
	require.NoError(t, o.UnloadGroup(ctx, group))
	assert.Empty(t, o.Status())
	assert.Equal(t, 0, o.NextGroup())
}

func TestIncludeLoadsIntoTheSameGroup(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	writeDoc(t, dir, "parts/sink.yaml", "sink:\n  Type: Sink\n  Ports:\n    in: samples\n")
	main := writeDoc(t, dir, "main.yaml", "Include: parts/sink.yaml\nsensor:\n  Type: Sensor\n  Ports:\n    out: samples\n")

	group, err := o.LoadComponents(context.Background(), main)
	require.NoError(t, err)
	assert.Equal(t, []string{"sink", "sensor"}, o.Components())
	for _, info := range o.Status() {
		assert.Equal(t, group, info.Group)
	}
	require.NoError(t, o.ConfigureGroup(context.Background(), group))
	assert.Equal(t, 1, o.Connections()[0].Connected)
}

func TestIncludeCycle(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	writeDoc(t, dir, "b.yaml", "Include: a.yaml\n")
	a := writeDoc(t, dir, "a.yaml", "Include: b.yaml\n")

	_, err := o.LoadComponents(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestLoadComponentsInGroup(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	ctx := context.Background()
	first := writeDoc(t, dir, "sensor.yaml", "sensor:\n  Type: Sensor\n  Ports:\n    out: samples\n")
	second := writeDoc(t, dir, "sink.yaml", "sink:\n  Type: Sink\n  Ports:\n    in: samples\n")

	assert.Error(t, o.LoadComponentsInGroup(ctx, second, 0), "group 0 is not open yet")

	group, err := o.LoadComponents(ctx, first)
	require.NoError(t, err)
	require.NoError(t, o.LoadComponentsInGroup(ctx, second, group))

	assert.Equal(t, 1, o.NextGroup())
	assert.Equal(t, []string{"sensor", "sink"}, o.RootConfig().Names())
	for _, info := range o.Status() {
		assert.Equal(t, group, info.Group)
	}
}

func TestDirectives(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	dir := t.TempDir()
	writeDoc(t, dir, "libextra.so", "")

	_, err := o.LoadComponents(context.Background(), writeDoc(t, dir, "no-import.yaml", "screen:\n  Type: Display\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imported")

	doc := "Import: gui\nLoadLibrary: libextra.so\nPath: plugins\nscreen:\n  Type: Display\n  Service: marshalling\n"
	_, err = o.LoadComponents(context.Background(), writeDoc(t, dir, "d.yaml", doc))
	require.NoError(t, err)
	assert.True(t, rt.Imported("gui"))
	assert.Equal(t, []string{filepath.Join(dir, "libextra.so")}, rt.Libraries())
	assert.Equal(t, []string{filepath.Join(dir, "plugins")}, rt.Paths())

	screen, _ := rt.Instance("screen")
	assert.Equal(t, []string{"marshalling"}, screen.Services())
	assert.Equal(t, []string{"marshalling"}, o.Status()[0].Plugins)
}

func TestKickOut(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	dir := t.TempDir()
	ctx := context.Background()

	_, err := o.KickStart(ctx, writeDoc(t, dir, "base.yaml", "keep:\n  Type: Sensor\n  AutoStart: true\n"))
	require.NoError(t, err)
	path := writeDoc(t, dir, "pipeline.yaml", pipelineDoc)
	_, err = o.KickStart(ctx, path)
	require.NoError(t, err)

	require.NoError(t, o.KickOut(path))
	assert.Equal(t, []string{"keep"}, o.Components())
	_, ok := rt.Instance("sensor")
	assert.False(t, ok)
	assert.Equal(t, 1, o.NextGroup())

	assert.ErrorIs(t, o.KickOutComponent("sensor"), ErrUnknownComponent)
}

func TestKickOutReportsAbsentComponents(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	ctx := context.Background()

	_, err := o.KickStart(ctx, writeDoc(t, dir, "base.yaml", "keep:\n  Type: Sensor\n  AutoStart: true\n"))
	require.NoError(t, err)

	path := writeDoc(t, dir, "mixed.yaml", "keep:\n  Type: Sensor\nghost:\n  Type: Sink\n")
	err = o.KickOut(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownComponent)
	assert.Contains(t, err.Error(), "ghost")
	assert.Empty(t, o.Status(), "present components are still kicked out")
}

func TestKickOutAllReleasesAdoptedComponents(t *testing.T) {
	hooks := &recordingHooks{}
	o, _ := newTestOrchestrator(t, func(c *Config) { c.Hooks = hooks })
	ctx := context.Background()

	elsewhere := testRuntime()
	proxy, err := elsewhere.Instantiate(ctx, "remote", "Sensor")
	require.NoError(t, err)
	require.NoError(t, proxy.Start())
	shared, err := elsewhere.Instantiate(ctx, "shared", "Sink")
	require.NoError(t, err)
	require.NoError(t, shared.Start())

	require.NoError(t, o.Adopt(proxy, true))
	require.NoError(t, o.Adopt(shared, false))
	_, err = o.KickStart(ctx, writeDoc(t, t.TempDir(), "pipeline.yaml", pipelineDoc))
	require.NoError(t, err)

	require.NoError(t, o.KickOutAll(ctx))
	assert.Equal(t, 0, o.NextGroup())
	assert.Empty(t, o.Status())
	assert.Empty(t, o.Connections())
	assert.Contains(t, hooks.unloaded, "remote")
	assert.Contains(t, hooks.unloaded, "shared")

	assert.Equal(t, component.StatusRunning, proxy.Status(), "adopted components keep running")
	assert.Equal(t, component.StatusRunning, shared.Status())
	_, ok := elsewhere.Instance("remote")
	assert.True(t, ok, "adopted components are not destroyed")
}

func TestKickOutAllTearsDownGroupsInReverse(t *testing.T) {
	spy := &phaseSpy{}
	o, _ := newTestOrchestrator(t, func(c *Config) { c.Observer = spy })
	dir := t.TempDir()
	ctx := context.Background()

	docs := []string{
		pipelineDoc,
		"b:\n  Type: Sensor\n  AutoConf: true\n  AutoStart: true\n  Ports:\n    out: second\nb-sink:\n  Type: Sink\n  AutoConf: true\n  AutoStart: true\n  Ports:\n    in: second\n",
		"c:\n  Type: Sensor\n  AutoConf: true\n  AutoStart: true\n",
	}
	for i, doc := range docs {
		group, err := o.KickStart(ctx, writeDoc(t, dir, fmt.Sprintf("doc%d.yaml", i), doc))
		require.NoError(t, err)
		require.Equal(t, i, group)
	}
	require.Equal(t, 3, o.NextGroup())
	require.Len(t, o.Connections(), 2)

	spy.phases = nil
	require.NoError(t, o.KickOutAll(ctx))
	assert.Equal(t, []string{
		"stop/2/0", "cleanup/2/0", "unload/2/0",
		"stop/1/0", "cleanup/1/0", "unload/1/0",
		"stop/0/0", "cleanup/0/0", "unload/0/0",
	}, spy.phases)
	assert.Equal(t, 0, o.NextGroup())
	assert.Empty(t, o.Connections())
	assert.Equal(t, 0, o.RootConfig().Len())
	assert.Empty(t, o.Status())
}

func TestKickOutAllResetsTheCounterWithLeftovers(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	dir := t.TempDir()
	ctx := context.Background()

	_, err := o.KickStart(ctx, writeDoc(t, dir, "a.yaml", "a:\n  Type: Sensor\n  AutoStart: true\n"))
	require.NoError(t, err)
	_, err = o.KickStart(ctx, writeDoc(t, dir, "b.yaml", "stuck:\n  Type: Sensor\n"))
	require.NoError(t, err)

	// Destroyed behind the orchestrator's back, so unloading it fails.
	stuck, _ := rt.Instance("stuck")
	require.NoError(t, rt.Destroy(stuck))

	err = o.KickOutAll(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, o.NextGroup())
	status := o.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "stuck", status[0].Name)
	assert.Equal(t, 0, status[0].Group, "leftovers move to group 0")

	group, err := o.KickStart(ctx, writeDoc(t, dir, "c.yaml", "c:\n  Type: Sensor\n  AutoStart: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, group)
}

func TestManualWiring(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, o.LoadComponent(ctx, "s", "Sensor"))
	require.NoError(t, o.LoadComponent(ctx, "f", "Filter"))
	require.NoError(t, o.LoadComponent(ctx, "tap", "Tap"))
	assert.Error(t, o.LoadComponent(ctx, "s", "Sensor"))

	require.NoError(t, o.Connect("f.in", "s.out", component.DefaultPolicy()))
	s, _ := rt.Instance("s")
	out, _ := s.DataPort("out")
	assert.Len(t, out.Connections(), 1)

	assert.Error(t, o.Connect("s.out", "f.out", component.DefaultPolicy()))
	assert.Error(t, o.Connect("s", "f.in", component.DefaultPolicy()))
	assert.Error(t, o.Connect("s.nope", "f.in", component.DefaultPolicy()))

	require.NoError(t, o.ConnectPorts("s", "tap"))
	assert.Len(t, out.Connections(), 2)

	require.NoError(t, o.ConnectPeers("s", "f"))
	assert.Equal(t, []string{"f"}, s.Peers())

	require.NoError(t, o.Stream("f.out", component.DefaultPolicy()))
	f, _ := rt.Instance("f")
	fout, _ := f.DataPort("out")
	assert.True(t, fout.Streamed())

	require.NoError(t, o.UnloadComponent("f"))
	assert.Empty(t, s.Peers(), "unloading severs peers")
	assert.Len(t, out.Connections(), 1)
}

func TestConfigureFromFile(t *testing.T) {
	o, rt := newTestOrchestrator(t)
	require.NoError(t, o.LoadComponent(context.Background(), "s", "Sensor"))
	path := writeDoc(t, t.TempDir(), "props.yaml", "rate: 5\nextra: on\n")

	require.NoError(t, o.ConfigureFromFile("s", path))
	s, _ := rt.Instance("s")
	rate, _ := s.Property("rate")
	assert.Equal(t, 5, rate)
	_, ok := s.Property("extra")
	assert.True(t, ok)
	assert.Equal(t, path, o.Status()[0].PropertyFile)
}

func TestObserverSeesEveryPhase(t *testing.T) {
	spy := &phaseSpy{}
	o, _ := newTestOrchestrator(t, func(c *Config) { c.Observer = spy })
	ctx := context.Background()

	_, err := o.KickStart(ctx, writeDoc(t, t.TempDir(), "pipeline.yaml", pipelineDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"load/0/0", "configure/0/0", "start/0/0"}, spy.phases)
	assert.Equal(t, 3, spy.counts[component.StatusRunning])

	require.NoError(t, o.KickOutAll(ctx))
	assert.Equal(t, []string{"stop/0/0", "cleanup/0/0", "unload/0/0"}, spy.phases[3:])
}

func TestLoadDocument(t *testing.T) {
	o, _ := newTestOrchestrator(t, func(c *Config) { c.Variables = map[string]any{"kind": "Sensor"} })
	group, err := o.LoadDocument(context.Background(), "inline", []byte("s:\n  Type: {{ .kind }}\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, group)
	assert.Equal(t, "Sensor", o.Status()[0].Type)

	_, err = o.LoadDocument(context.Background(), "broken", []byte("- not a mapping\n"))
	assert.Error(t, err)
	assert.Equal(t, 2, o.NextGroup())
}

func TestWaitForInterrupt(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	o.ResetWaitForInterrupt()
	require.NoError(t, o.WaitForInterrupt(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, o.WaitForInterrupt(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- o.WaitForInterrupt(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	o.ResetWaitForInterrupt()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait was not reset")
	}
}
