package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metailurini/skipdict"
)

func TestRunDemo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runDemo(&buf))

	out := buf.String()
	assert.Contains(t, out, `insert(123, "baz") replaced "foo"`)
	assert.Contains(t, out, `get(123) = "baz"`)
	assert.Contains(t, out, `remove(456) = "bar"`)
	assert.Contains(t, out, `pop_min = (123, "baz")`)
	assert.Contains(t, out, "min = empty")
}

func TestRunStress(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, runStress(1000, 42))
	require.NoError(t, runStress(1001, 7, skipdict.WithNodePool()))
	require.NoError(t, runStress(1, 1))
}

func TestRunBench(t *testing.T) {
	phases, err := runBench(500, 3)
	require.NoError(t, err)

	var names []string
	for _, p := range phases {
		names = append(names, p.name)
		assert.Equal(t, 500, p.ops)
	}
	assert.Equal(t, []string{"insert", "get", "max", "remove", "pop"}, names)
}

func TestRunBenchSurfacesAllocationFailure(t *testing.T) {
	_, err := runBench(10, 3, skipdict.WithNodeBudget(5))
	assert.ErrorIs(t, err, skipdict.ErrAllocationFailure)
}

func TestConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := configLogger(&buf, "debug", "json")
	require.NoError(t, err)
	logger.Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = configLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = configLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestRunLevelsCommand(t *testing.T) {
	require.NoError(t, run([]string{"skipdict", "--log-level", "error", "levels", "--n", "200", "--hashed"}))
	assert.Error(t, run([]string{"skipdict", "levels", "--p", "1.5"}))
}
