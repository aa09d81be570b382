package registry

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestSet_IdentityNotContent(t *testing.T) {
	t.Parallel()

	a := &html.Node{Type: html.ElementNode, Data: "article"}
	b := &html.Node{Type: html.ElementNode, Data: "article"}

	s := NewSet[html.Node]()
	assert.True(t, s.Add(a))
	assert.False(t, s.Add(a), "second insert of the same node")

	assert.True(t, s.Has(a))
	assert.False(t, s.Has(b), "equal content, different identity")
	assert.Equal(t, 1, s.Len())

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestSet_Remove(t *testing.T) {
	t.Parallel()

	n := &html.Node{Type: html.ElementNode, Data: "article"}
	s := NewSet[html.Node]()
	require.True(t, s.Add(n))

	s.Remove(n)
	assert.False(t, s.Has(n))
	assert.True(t, s.Add(n), "removed key can be added again")

	runtime.KeepAlive(n)
}

func TestSet_NilKey(t *testing.T) {
	t.Parallel()

	s := NewSet[html.Node]()
	assert.False(t, s.Add(nil))
	assert.False(t, s.Has(nil))
	assert.Zero(t, s.Len())
}

func TestSet_DoesNotKeepKeysAlive(t *testing.T) {
	s := NewSet[html.Node]()

	func() {
		for range 10 {
			s.Add(&html.Node{Type: html.ElementNode, Data: "article"})
		}
	}()
	kept := &html.Node{Type: html.ElementNode, Data: "article"}
	s.Add(kept)

	require.Eventually(t, func() bool {
		runtime.GC()
		return s.Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, s.Has(kept))
	runtime.KeepAlive(kept)
}

func TestMap_StoreLoadDelete(t *testing.T) {
	t.Parallel()

	key := &html.Node{Type: html.ElementNode, Data: "button"}
	m := NewMap[html.Node, string]()

	_, ok := m.Load(key)
	assert.False(t, ok)

	m.Store(key, "first")
	m.Store(key, "second")
	v, ok := m.Load(key)
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, m.Len())

	m.Delete(key)
	_, ok = m.Load(key)
	assert.False(t, ok)
	assert.Zero(t, m.Len())

	runtime.KeepAlive(key)
}
