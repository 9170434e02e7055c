package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDense(t *testing.T, l *EntityList) {
	t.Helper()
	for i := 0; i < l.Size(); i++ {
		require.NotNil(t, l.At(i), "hole at slot %d", i)
	}
	require.Equal(t, l.Size(), l.Cap())
}

func TestEntityListGrowsByBlock(t *testing.T) {
	l := NewEntityList(5)
	ents := make([]*Entity, 6)
	for i := range ents {
		ents[i] = NewEntity(TypeObject, 0, 0)
		slot, err := l.Add(ents[i])
		require.NoError(t, err)
		assert.Equal(t, i, slot)
		if i < 5 {
			assert.Equal(t, 5, l.Cap())
		}
	}
	assert.Equal(t, 10, l.Cap())
	assert.Equal(t, 6, l.Size())

	for i := l.Size(); i < l.Cap(); i++ {
		assert.Nil(t, l.entities[i], "trailing slot %d must be nil", i)
	}
}

func TestEntityListFirstFitAfterPop(t *testing.T) {
	l := NewEntityList(5)
	ents := make([]*Entity, 6)
	for i := range ents {
		ents[i] = NewEntity(TypeObject, 0, 0)
		_, err := l.Add(ents[i])
		require.NoError(t, err)
	}

	assert.Same(t, ents[3], l.Pop(ents[3]))
	assert.Nil(t, l.At(3))
	assert.Equal(t, 6, l.Size(), "pop does not compact")

	slot, err := l.Add(NewEntity(TypeObject, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, slot)
}

func TestEntityListPopMissing(t *testing.T) {
	l := NewEntityList(5)
	_, err := l.Add(NewEntity(TypeObject, 0, 0))
	require.NoError(t, err)

	assert.Nil(t, l.Pop(NewEntity(TypeObject, 0, 0)))
	assert.Nil(t, l.Pop(nil))
}

func TestEntityListAddNil(t *testing.T) {
	l := NewEntityList(5)
	slot, err := l.Add(nil)
	assert.ErrorIs(t, err, ErrNullReference)
	assert.Equal(t, -1, slot)
	assert.Equal(t, 0, l.Size())
}

func TestEntityListLimit(t *testing.T) {
	l := NewEntityList(4)
	l.SetLimit(6)
	for i := 0; i < 6; i++ {
		_, err := l.Add(NewEntity(TypeObject, 0, 0))
		require.NoError(t, err)
	}
	assert.Equal(t, 6, l.Cap())

	slot, err := l.Add(NewEntity(TypeObject, 0, 0))
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Equal(t, -1, slot)
	assert.Equal(t, 6, l.Size())
	assert.Equal(t, 6, l.Cap())
}

func TestEntityListRemoveAtChecksIdentity(t *testing.T) {
	l := NewEntityList(5)
	a := NewEntity(TypeObject, 0, 0)
	b := NewEntity(TypeObject, 0, 0)
	_, _ = l.Add(a)

	assert.False(t, l.RemoveAt(0, b))
	assert.False(t, l.RemoveAt(7, a))
	assert.True(t, l.RemoveAt(0, a))
	assert.Nil(t, l.At(0))
}

func TestEntityListShrink(t *testing.T) {
	tests := []struct {
		name  string
		build func(l *EntityList) []*Entity
		want  int
	}{
		{
			name:  "empty",
			build: func(l *EntityList) []*Entity { return nil },
			want:  0,
		},
		{
			name: "dense",
			build: func(l *EntityList) []*Entity {
				var out []*Entity
				for i := 0; i < 3; i++ {
					e := NewEntity(TypeObject, 0, 0)
					_, _ = l.Add(e)
					out = append(out, e)
				}
				return out
			},
			want: 3,
		},
		{
			name: "holes",
			build: func(l *EntityList) []*Entity {
				var all []*Entity
				for i := 0; i < 9; i++ {
					e := NewEntity(TypeObject, 0, 0)
					_, _ = l.Add(e)
					all = append(all, e)
				}
				l.Pop(all[0])
				l.Pop(all[4])
				l.Pop(all[5])
				l.Pop(all[8])
				return []*Entity{all[1], all[2], all[3], all[6], all[7]}
			},
			want: 5,
		},
		{
			name: "all popped",
			build: func(l *EntityList) []*Entity {
				for i := 0; i < 4; i++ {
					e := NewEntity(TypeObject, 0, 0)
					_, _ = l.Add(e)
					l.Pop(e)
				}
				return nil
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewEntityList(4)
			live := tt.build(l)
			l.Shrink()

			requireDense(t, l)
			assert.Equal(t, tt.want, l.Size())
			for _, e := range live {
				assert.True(t, l.Contains(e))
			}
		})
	}
}

func TestEntityListEmpty(t *testing.T) {
	w := newTestWorld(Options{GridWidth: 2, GridHeight: 2, CellWidth: 8, CellHeight: 8})
	e := NewEntity(TypeObject, 1, 1)
	require.NoError(t, w.AddEntity(e))

	l := NewEntityList(2)
	_, _ = l.Add(e)
	l.Empty(false)
	assert.Equal(t, 0, l.Size())
	assert.Equal(t, 0, l.Cap())
	assert.Equal(t, 0, e.ID(), "entity untouched without destroy")

	_, _ = l.Add(e)
	l.Empty(true)
	assert.Equal(t, IDNotAssigned, e.ID())
}
