package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "booklore", cmd.Use)
	assert.Contains(t, cmd.Short, "Booklore")
	assert.Contains(t, cmd.Long, "Magic shelves")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"import"},
		{"browse"},
		{"facets"},
		{"shelf"},
		{"shelf", "validate"},
		{"shelf", "save"},
		{"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestBrowseCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	browseCmd, _, err := cmd.Find([]string{"browse"})
	require.NoError(t, err)

	tests := []struct {
		flag      string
		shorthand string
		def       string
	}{
		{"db", "", ""},
		{"scope", "", "all"},
		{"url", "", ""},
		{"search", "s", ""},
		{"join", "", "and"},
		{"collapse-series", "", "false"},
		{"facet-sort", "", ""},
		{"limit", "", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := browseCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestFacetsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	facetsCmd, _, err := cmd.Find([]string{"facets"})
	require.NoError(t, err)

	require.NotNil(t, facetsCmd.Flags().Lookup("attribute"))
	require.NotNil(t, facetsCmd.Flags().Lookup("scope"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	require.NotNil(t, testCmd.Flags().Lookup("filter"))
	require.NotNil(t, testCmd.Flags().Lookup("golden-dir"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "browse"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
