package capture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/platform/dynamics"
)

func TestBuildScript(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig().Recorder
	script, err := BuildScript(dynamics.New().Profile(), cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "const SCRIBE_SETTINGS = {"), "settings constant must lead the script")
	assert.Contains(t, script, `"binding":"scribe_capture_event"`)
	assert.Contains(t, script, `"stableAttr":"data-dyn-controlname"`)
	assert.Contains(t, script, `"navpane"`, "nav markers are serialized for the in-page walk")
	assert.Contains(t, script, `"navLeftEdgePx":`)

	// The listeners the pipeline depends on, all capture-phase.
	for _, listener := range []string{"'click'", "'input'", "'change'", "'keydown'"} {
		assert.Contains(t, script, "addEventListener("+listener)
	}
	assert.Contains(t, script, "event.isTrusted", "synthetic events must be filtered")
	assert.Contains(t, script, "window.__scribeRecorder", "double injection must be guarded")
}

func TestBuildScriptConfigOverrides(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig().Recorder
	cfg.NavLeftEdgePx = 120
	cfg.MaxTextLength = 50

	script, err := BuildScript(dynamics.New().Profile(), cfg)
	require.NoError(t, err)
	assert.Contains(t, script, `"navLeftEdgePx":120`)
	assert.Contains(t, script, `"maxTextLength":50`)
}
