package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCodes(t *testing.T) {
	in := "AAA\n\n  BBB  \nCCC\nDDD\n"

	lines, err := readCodes(strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "", "BBB", "CCC", "DDD"}, lines)

	lines, err = readCodes(strings.NewReader(in), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "", "BBB"}, lines)

	long := strings.Repeat("A", 200*1024)
	lines, err = readCodes(strings.NewReader(long+"\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{long}, lines)
}
