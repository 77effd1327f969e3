package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTuneArgs_Valid(t *testing.T) {
	specs, err := parseTuneArgs([]string{"10714.25,h,dvbs,22000,56,ARD"})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "10714.25/h|ARD", specs[0].Label())
}

func TestParseTuneArgs_NoDisplayName(t *testing.T) {
	specs, err := parseTuneArgs([]string{"11000,v,dvbs2,27500,34"})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "11000/v", specs[0].Label())
}

func TestParseTuneArgs_Dvbs2UsesEightPSK(t *testing.T) {
	specs, err := parseTuneArgs([]string{"11000,v,dvbs2,27500,34"})
	require.NoError(t, err)
	assert.Equal(t, "8psk", specs[0].ModulationType)
}

func TestParseTuneArgs_MultipleAssignsSequentialFrontends(t *testing.T) {
	specs, err := parseTuneArgs([]string{
		"10714.25,h,dvbs,22000,56",
		"11000,v,dvbs2,27500,34",
	})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.NotNil(t, specs[0].Frontend)
	require.NotNil(t, specs[1].Frontend)
	assert.Equal(t, 1, *specs[0].Frontend)
	assert.Equal(t, 2, *specs[1].Frontend)
}

func TestParseTuneArgs_Empty(t *testing.T) {
	_, err := parseTuneArgs(nil)
	require.Error(t, err)
}

func TestParseTuneArgs_BadFieldCount(t *testing.T) {
	_, err := parseTuneArgs([]string{"10714.25,h,dvbs"})
	require.Error(t, err)
}

func TestParseTuneArgs_BadFrequency(t *testing.T) {
	_, err := parseTuneArgs([]string{"notanumber,h,dvbs,22000,56"})
	require.Error(t, err)
}
