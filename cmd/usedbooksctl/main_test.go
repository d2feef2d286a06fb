package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	qty, err := parseQuantity("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), qty)

	qty, err = parseQuantity("0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)

	_, err = parseQuantity("-1")
	assert.Error(t, err)

	_, err = parseQuantity("abc")
	assert.Error(t, err)
}

// 参数校验失败时不会去连接Redis
func TestStockSet_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"缺少数量", []string{"stock", "set", "b1"}},
		{"数量不是整数", []string{"stock", "set", "b1", "abc"}},
		{"数量为负", []string{"stock", "set", "b1", "-3"}},
		{"get多余参数", []string{"stock", "get", "b1", "b2"}},
		{"migrate不接受参数", []string{"migrate", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)
			assert.Error(t, root.Execute())
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "stock", "reconcile", "events"} {
		assert.True(t, names[want], want)
	}
}
