package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{name: "unset", value: "", expected: false},
		{name: "one", value: "1", expected: true},
		{name: "true", value: "true", expected: true},
		{name: "yes", value: "yes", expected: true},
		{name: "zero", value: "0", expected: false},
		{name: "false", value: "false", expected: false},
		{name: "garbage", value: "maybe", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("DISTKIT_TEST_FLAG", tt.value)
			}
			assert.Equal(t, tt.expected, envBool("DISTKIT_TEST_FLAG"))
		})
	}
}

func TestEnvStringFallback(t *testing.T) {
	assert.Equal(t, "fallback", envString("DISTKIT_TEST_UNSET", "fallback"))

	t.Setenv("DISTKIT_TEST_SET", "from-env")
	assert.Equal(t, "from-env", envString("DISTKIT_TEST_SET", "fallback"))
}

// Flags must win over values loaded from the config file.
func TestBuildAssembleConfigFlagsOverrideFile(t *testing.T) {
	t.Cleanup(resetAssembleFlags)

	assembleVersion = "2.0.0"
	assemblePlatform = "darwin-arm64"
	assembleTier = "full"
	assembleRuntimePath = "/runtimes/darwin"
	assembleOutputDir = "/out/pkg"

	cfg, err := buildAssembleConfig()
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, "macos-arm64", cfg.Target.Identifier())
	assert.Equal(t, "full", cfg.TierName)
	assert.Equal(t, "/runtimes/darwin", cfg.RuntimePath)
	assert.Equal(t, "/out/pkg", cfg.OutputDir)
	require.NoError(t, cfg.Validate())
}

func TestBuildAssembleConfigBadPlatform(t *testing.T) {
	t.Cleanup(resetAssembleFlags)

	assemblePlatform = "solaris-sparc"
	_, err := buildAssembleConfig()
	assert.Error(t, err)
}

func TestBuildAssembleConfigComponentOverride(t *testing.T) {
	t.Cleanup(resetAssembleFlags)

	assembleComponents = []string{"python", "go"}
	cfg, err := buildAssembleConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "go"}, cfg.ComponentOverride)
}

func resetAssembleFlags() {
	assembleConfigFile = ""
	assembleVersion = ""
	assemblePlatform = ""
	assembleTier = ""
	assembleComponents = nil
	assembleRuntimePath = ""
	assembleAppSource = ""
	assembleComponentSource = ""
	assembleOutputDir = ""
	assembleSkipSelfCheck = false
	assembleSelfCheckWait = 0
	assembleArchive = ""
}
