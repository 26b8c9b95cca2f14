package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectsOfTypeIncludesSubtypes(t *testing.T) {
	object := &Type{Name: ObjectTypeName}
	vehicle := &Type{Name: "vehicle", Parent: object}
	truck := &Type{Name: "truck", Parent: vehicle}
	plane := &Type{Name: "plane", Parent: vehicle}
	place := &Type{Name: "place", Parent: object}

	objects := []Object{
		{Name: "t1", Type: truck},
		{Name: "t2", Type: truck},
		{Name: "p1", Type: plane},
		{Name: "depot", Type: place},
		{Name: "loose"},
	}
	p, err := NewProblem("p", "d", []*Type{object, vehicle, truck, plane, place}, objects, nil, nil, Features{})
	require.NoError(t, err)

	names := func(objs []Object) []string {
		var out []string
		for _, o := range objs {
			out = append(out, o.Name)
		}
		return out
	}

	assert.Equal(t, []string{"t1", "t2", "p1"}, names(p.ObjectsOfType(vehicle)))
	assert.Equal(t, []string{"t1", "t2"}, names(p.ObjectsOfType(truck)))
	assert.Equal(t, []string{"depot"}, names(p.ObjectsOfType(place)))
	assert.Len(t, p.ObjectsOfType(object), 5)
	assert.Len(t, p.ObjectsOfType(nil), 5)
	assert.True(t, truck.IsSubtypeOf(vehicle))
	assert.False(t, vehicle.IsSubtypeOf(truck))
}

func TestProblemLiteralIndexesObjects(t *testing.T) {
	vehicle := &Type{Name: "vehicle"}
	truck := &Type{Name: "truck", Parent: vehicle}
	p := &Problem{Objects: []Object{{Name: "t1", Type: truck}, {Name: "t2", Type: truck}, {Name: "x"}}}

	assert.Len(t, p.ObjectsOfType(truck), 2)
	assert.Len(t, p.ObjectsOfType(vehicle), 2)
	assert.Len(t, p.ObjectsOfType(nil), 3)
}

func TestNewProblemRejectsUndeclaredTypes(t *testing.T) {
	stray := &Type{Name: "ghost"}
	_, err := NewProblem("p", "d", nil, []Object{{Name: "o", Type: stray}}, nil, nil, Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `type "ghost" is not declared`)

	_, err = NewProblem("p", "d", nil, nil, []Operator{{
		Name:       "move",
		Parameters: []Parameter{{Name: "?x", Type: stray}},
	}}, nil, Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator move parameter ?x")
}

func TestEffectsByTiming(t *testing.T) {
	op := Operator{
		Name:     "fly",
		Durative: true,
		Effects: []Effect{
			{Fluent: "at", Value: BoolValue(false), Timing: TimingStart},
			{Fluent: "at", Value: BoolValue(true), Timing: TimingEnd},
			{Fluent: "fuel", Kind: EffectDecrease, Value: IntValue(3), Timing: TimingEnd},
		},
	}
	grouped := op.EffectsByTiming()
	assert.Len(t, grouped[TimingStart], 1)
	assert.Len(t, grouped[TimingEnd], 2)
	assert.Equal(t, "3", grouped[TimingEnd][1].Value.String())
}

func TestFeaturesUnion(t *testing.T) {
	a := Features{ContinuousTime: true, BoolFluents: true}
	b := Features{TimedEffects: true, BoolFluents: true}
	assert.Equal(t, Features{ContinuousTime: true, TimedEffects: true, BoolFluents: true}, a.Union(b))
	assert.Equal(t, a, a.Union(Features{}))
}
