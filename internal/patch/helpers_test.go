package patch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rspfix/internal/capability"
	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/fsys"
	"github.com/standardbeagle/rspfix/internal/projdoc"
	"github.com/standardbeagle/rspfix/testhelpers"
)

const root = "/work/Game"

func at(rel string) string {
	return filepath.Join(filepath.FromSlash(root), filepath.FromSlash(rel))
}

func parse(t *testing.T, content string) *projdoc.Document {
	t.Helper()
	doc, err := projdoc.Parse([]byte(content))
	require.NoError(t, err)
	return doc
}

func testConfig() *config.Config {
	return testhelpers.NewTestConfigBuilder(filepath.FromSlash(root)).Build()
}

func legacyEngine() capability.Capabilities {
	return capability.Capabilities{EngineVersion: capability.ParseVersion("5.5.0f3")}
}

func newPatcher(fs fsys.FS, cfg *config.Config, caps capability.Capabilities) *Patcher {
	if fs == nil {
		fs = fsys.NewMem().AddDir(at("."))
	}
	if cfg == nil {
		cfg = testConfig()
	}
	return NewPatcher(fs, cfg, caps)
}
