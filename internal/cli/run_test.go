package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_NoArgs_PrintsUsage(t *testing.T) {
	var out, errOut bytes.Buffer

	code := Run(nil, &out, &errOut, []string{"ringctl"}, nil)

	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "Usage: ringctl")
	require.Contains(t, out.String(), "print-config")
}

func TestRun_Help_PrintsUsage(t *testing.T) {
	var out, errOut bytes.Buffer

	code := Run(nil, &out, &errOut, []string{"ringctl", "-h"}, nil)

	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "Commands:")
}

func TestRun_UnknownCommand_Fails(t *testing.T) {
	var out, errOut bytes.Buffer

	code := Run(nil, &out, &errOut, []string{"ringctl", "bogus"}, nil)

	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "unknown command")
}

func TestRun_PrintConfig_NoConfigFile(t *testing.T) {
	var out, errOut bytes.Buffer

	code := Run(nil, &out, &errOut, []string{"ringctl", "-C", t.TempDir(), "print-config"}, nil)

	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "no topics configured")
}

func TestRun_PrintConfig_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()

	configJSON := `{
		// trailing comment, tolerated by hujson
		"dir": "` + dir + `",
		"topics": [
			{"topic": "events", "max_publishers": 2, "max_subscribers": 4},
		],
	}`

	require.NoError(t, os.WriteFile(dir+"/.ringbus.json", []byte(configJSON), 0o644))

	var out, errOut bytes.Buffer

	code := Run(nil, &out, &errOut, []string{"ringctl", "-C", dir, "print-config"}, nil)

	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "topic=events")
	require.Contains(t, out.String(), "max_publishers=2")
}

func TestRun_Publish_UnknownTopic_Fails(t *testing.T) {
	var out, errOut bytes.Buffer

	code := Run(nil, &out, &errOut, []string{"ringctl", "-C", t.TempDir(), "publish", "events", "hello"}, nil)

	require.Equal(t, 1, code)
	require.True(t, strings.Contains(errOut.String(), "unknown topic"))
}
