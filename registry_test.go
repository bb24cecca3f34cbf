package shovel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func body() Body {
	return func(context.Context, []string) error { return nil }
}

func TestRegisterVirtualThenConcreteMergesDependencies(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "lint", Dependencies: []string{"vet"}})
	reg.Register(&Task{Name: "vet", Body: body()})
	reg.Register(&Task{Name: "lint", Body: body(), Dependencies: []string{"golangci"}})

	task, ok := reg.Lookup("lint")
	require.True(t, ok)
	assert.False(t, task.IsVirtual())
	assert.Equal(t, []string{"vet", "golangci"}, task.Dependencies)
}

func TestRegisterDuplicateConcreteKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "build", ShortDescription: "first", Body: body()})
	reg.Register(&Task{Name: "build", ShortDescription: "second", Body: body()})

	task, ok := reg.Lookup("build")
	require.True(t, ok)
	assert.Equal(t, "first", task.ShortDescription)
}

func TestParentDeclarationCreatesVirtualTarget(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "unit", Parent: "test", Body: body()})

	parent, ok := reg.Lookup("test")
	require.True(t, ok)
	assert.True(t, parent.IsVirtual())
	assert.Equal(t, []string{"unit"}, parent.Dependencies)
}

func TestParentDeclarationAppendsToExistingConcreteParent(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "test", Body: body()})
	reg.Register(&Task{Name: "unit", Parent: "test", Body: body()})

	parent, ok := reg.Lookup("test")
	require.True(t, ok)
	assert.False(t, parent.IsVirtual())
	assert.Equal(t, []string{"unit"}, parent.Dependencies)
}

func TestNewRegistrySeedsHelpTask(t *testing.T) {
	reg := NewRegistry()
	task, ok := reg.Lookup("help")
	require.True(t, ok)
	assert.False(t, task.IsVirtual())
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "b", Body: body()})
	reg.Register(&Task{Name: "a", Body: body()})

	var names []string
	for _, task := range reg.All() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"help", "b", "a"}, names)
}
