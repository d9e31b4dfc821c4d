package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantOut []string
	}{
		{
			name:    "default version",
			version: "0.1.0",
			wantOut: []string{"leapkv v0.1.0", "joins"},
		},
		{
			name:    "dev version",
			version: "dev",
			wantOut: []string{"leapkv vdev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(nil)

			require.NoError(t, cmd.Execute())
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewJoinTableCommand(), "jointable <left> <right>",
			[]string{"on", "filter1", "filter2", "limit", "project", "order-by", "reverse", "cache-blocks", "strategy"}},
		{NewScanCommand(), "scan <table>", []string{"filter", "limit", "cache-blocks"}},
		{NewCountCommand(), "count <table>", []string{"interval", "cache", "cache-blocks", "filter"}},
		{NewGetCommand(), "get <table> <row>", nil},
		{NewPutCommand(), "put <table> <row> <column> <value>", nil},
		{NewCreateCommand(), "create <table>", nil},
		{NewListCommand(), "list", nil},
		{NewLoadCommand(), "load <table> <file.csv>", nil},
		{NewShellCommand(), "shell", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			cmd := tt.cmd
			assert.Equal(t, tt.use, cmd.Use)
			assert.NotEmpty(t, cmd.Short, "Short should not be empty")
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "flag %q should exist", f)
			}
		})
	}
}
