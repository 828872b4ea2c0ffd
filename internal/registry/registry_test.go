package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deployer/internal/component"
)

func TestRegistry(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(&Record{Name: "a", Group: 0}))
	require.NoError(t, r.Add(&Record{Name: "b", Group: 1}))
	require.NoError(t, r.Add(&Record{Name: "c", Group: 0}))
	require.NoError(t, r.Add(&Record{Name: "d", Group: 0}))

	assert.Error(t, r.Add(&Record{Name: "a"}), "duplicate name")
	assert.Error(t, r.Add(&Record{}), "empty name")
	assert.Error(t, r.Add(nil))

	assert.Equal(t, 4, r.Len())
	assert.Equal(t, []string{"a", "b", "c", "d"}, r.Names())
	assert.Equal(t, []string{"a", "c", "d"}, names(r.InGroup(0)))
	assert.Equal(t, []string{"d", "c", "a"}, names(r.InGroupReverse(0)))
	assert.Empty(t, r.InGroup(7))

	rec, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Group)

	assert.True(t, r.Remove("c"))
	assert.False(t, r.Remove("c"))
	assert.Equal(t, []string{"a", "b", "d"}, names(r.All()))
}

func TestRecord(t *testing.T) {
	rec := &Record{Name: "x", Loaded: true}
	assert.True(t, rec.Managed())
	assert.Equal(t, component.StatusInit, rec.Status(), "no instance yet")

	rec.Proxy = true
	assert.False(t, rec.Managed())
	assert.False(t, (&Record{}).Managed())
}

func TestSequencer(t *testing.T) {
	s := NewSequencer()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	assert.Equal(t, 0, s.Peek())
	g0 := s.Next("a.yaml")
	g1 := s.Next("b.yaml")
	assert.Equal(t, 0, g0.ID)
	assert.Equal(t, 1, g1.ID)
	assert.Equal(t, 2, s.Peek())
	assert.Equal(t, fixed, g1.LoadedAt)
	assert.NotEqual(t, g0.LoadID, g1.LoadID)
	_, err := uuid.Parse(g0.LoadID)
	assert.NoError(t, err)

	info, ok := s.Info(1)
	require.True(t, ok)
	assert.Equal(t, "b.yaml", info.Source)
	assert.Len(t, s.Groups(), 2)

	s.Rewind()
	assert.Equal(t, 1, s.Peek())
	_, ok = s.Info(1)
	assert.False(t, ok)

	s.Rewind()
	s.Rewind()
	assert.Equal(t, 0, s.Peek(), "never negative")

	s.Next("c.yaml")
	s.Reset()
	assert.Equal(t, 0, s.Peek())
	assert.Empty(t, s.Groups())
}

func names(recs []*Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}
