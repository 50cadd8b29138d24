package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

func fullSnapshot() (snapshot.Snapshot, map[string]any) {
	snap := snapshot.Snapshot{}
	want := map[string]any{}
	for i, d := range Definitions() {
		if d.Derived() {
			continue
		}
		if snap[string(d.Section)] == nil {
			snap[string(d.Section)] = map[string]any{}
		}
		var v any = json.Number(fmt.Sprint(i + 1))
		switch d.Kind {
		case KindString:
			v = "value-" + d.Key
		case KindList:
			v = []any{json.Number("1"), json.Number("2")}
		case KindObject:
			v = map[string]any{"key": "abc"}
		}
		snap[string(d.Section)][d.Key] = v
		want[d.Name] = v
	}
	return snap, want
}

func TestDefinitions_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Definitions() {
		assert.False(t, seen[d.Name], "duplicate %s", d.Name)
		seen[d.Name] = true
		if d.Derived() {
			assert.Empty(t, d.Key, "derived %s must not carry a key", d.Name)
		} else {
			assert.NotEmpty(t, d.Key, "%s needs a key", d.Name)
		}
	}
	assert.Len(t, seen, 73)
}

func TestResolve_RoundTrip(t *testing.T) {
	snap, want := fullSnapshot()
	props := Resolve(snap)

	resolved := 0
	for _, d := range Definitions() {
		if d.Derived() {
			continue
		}
		got, err := props.Get(d.Name)
		require.NoError(t, err)
		if d.Name == "enabled" {
			assert.Equal(t, true, got, "enabled is coerced to bool")
		} else {
			assert.Equal(t, want[d.Name], got, d.Name)
		}
		resolved++
	}
	assert.Equal(t, 68, resolved)
}

func TestResolve_MissingKeepsDefaults(t *testing.T) {
	snap := snapshot.Snapshot{
		"settings": {"loc": "Springfield"},
		// options section missing entirely
	}
	props := Resolve(snap)

	loc, err := props.Get("location")
	require.NoError(t, err)
	assert.Equal(t, "Springfield", loc)

	fwv, err := props.Get("firmware_version")
	require.NoError(t, err)
	assert.Equal(t, 0, fwv)

	names, err := props.Get("station_names")
	require.NoError(t, err)
	assert.Equal(t, []any{}, names)

	wto, err := props.Get("weather_options")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, wto)

	en, err := props.Get("enabled")
	require.NoError(t, err)
	assert.Equal(t, false, en)
}

func TestResolve_DerivedNeverComputed(t *testing.T) {
	snap := snapshot.Snapshot{
		"options": {"hp0": json.Number("144"), "hp1": json.Number("31")},
		"derived": {"port_number": json.Number("8080")},
	}
	props := Resolve(snap)

	port, err := props.Get("port_number")
	require.NoError(t, err)
	assert.Equal(t, 0, port)

	d, err := Lookup("port_number")
	require.NoError(t, err)
	assert.Equal(t, "hp1 << 8 + hp0", d.Formula)
}

func TestResolve_DefaultsAreNotShared(t *testing.T) {
	a := Resolve(snapshot.Snapshot{})
	b := Resolve(snapshot.Snapshot{})

	wto, _ := a.Get("weather_options")
	wto.(map[string]any)["mutated"] = true

	other, _ := b.Get("weather_options")
	assert.Empty(t, other)
}

func TestProperties_UnknownName(t *testing.T) {
	props := Resolve(snapshot.Snapshot{})

	_, err := props.Get("flux_capacitor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPropertyNotFound))

	var nf *PropertyNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "flux_capacitor", nf.Name)

	assert.ErrorIs(t, props.Set("flux_capacitor", 1), ErrPropertyNotFound)

	_, err = Lookup("flux_capacitor")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestProperties_SetLastWriteWins(t *testing.T) {
	props := Resolve(snapshot.Snapshot{})

	require.NoError(t, props.Set("location", "first"))
	require.NoError(t, props.Set("location", 42))

	v, err := props.Get("location")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestProperties_AllIsOrdered(t *testing.T) {
	props := Resolve(snapshot.Snapshot{"settings": {"devt": json.Number("5")}})
	all := props.All()
	defs := Definitions()

	require.Len(t, all, len(defs))
	for i := range defs {
		assert.Equal(t, defs[i].Name, all[i].Name)
	}
	assert.Equal(t, Property{Name: "device_time", Value: json.Number("5")}, all[0])
}

func TestProperties_Int(t *testing.T) {
	props := Resolve(snapshot.Snapshot{
		"status":   {"nstations": json.Number("8")},
		"settings": {"loc": "x"},
	})

	n, err := props.Int("num_stations")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = props.Int("num_programs")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = props.Int("location")
	assert.ErrorContains(t, err, "property location")
}

func TestProperties_CloneIsIndependent(t *testing.T) {
	props := Resolve(snapshot.Snapshot{})
	clone := props.Clone()
	require.NoError(t, clone.Set("location", "elsewhere"))

	v, _ := props.Get("location")
	assert.Equal(t, "", v)
}

func TestProperties_GetReturnsCopy(t *testing.T) {
	snap, _ := fullSnapshot()
	props := Resolve(snap)

	names, err := props.Get("station_names")
	require.NoError(t, err)
	names.([]any)[0] = "changed"

	wto, err := props.Get("weather_options")
	require.NoError(t, err)
	wto.(map[string]any)["key"] = "changed"

	for _, p := range props.All() {
		if p.Name == "station_names" {
			p.Value.([]any)[1] = "changed"
		}
	}

	names, _ = props.Get("station_names")
	assert.Equal(t, []any{json.Number("1"), json.Number("2")}, names)
	wto, _ = props.Get("weather_options")
	assert.Equal(t, map[string]any{"key": "abc"}, wto)
}
