package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPhysical(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"sch.t", true},
		{"cat.sch.t", true},
		{" cat.sch.t ", true},
		{"t", false},
		{"a.b.c.d", false},
		{"sch.", false},
		{`"sch"."t"`, false},
		{"my-sch.t", false},
		{UnknownTable, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPhysical(tt.name))
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Orders"`, "Orders"},
		{"`orders`", "orders"},
		{" orders ", "orders"},
		{`"a""b"`, "ab"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unquote(tt.input))
		})
	}
}

func TestCTEEnv_Snapshots(t *testing.T) {
	var root *cteEnv
	a := root.bind("a", []string{"s.t1"})
	b := a.bind("b", nil)
	shadow := b.bind("a", []string{"s.t2"})

	targets, ok := b.lookup("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"s.t1"}, targets)

	targets, ok = b.lookup("b")
	assert.True(t, ok)
	assert.Empty(t, targets)

	targets, _ = shadow.lookup("a")
	assert.Equal(t, []string{"s.t2"}, targets)

	_, ok = a.lookup("b")
	assert.False(t, ok)
	_, ok = root.lookup("a")
	assert.False(t, ok)
}
