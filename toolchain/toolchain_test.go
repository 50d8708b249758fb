package toolchain_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/stat/toolchain"
)

func TestDefault(t *testing.T) {
	tc, err := toolchain.New("")
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, "nmake", tc.MakePath())
		assert.Equal(t, "pkg.exe", tc.Executable("pkg"))
	} else {
		assert.Equal(t, "make", tc.MakePath())
		assert.Equal(t, []string{"make", "-f", "a.mak"}, tc.Command("a.mak"))
		assert.Equal(t, "pkg", tc.Executable("pkg"))
		assert.Equal(t, "", tc.ExecSuffix())
	}
}

func TestCommand(t *testing.T) {
	tc, err := toolchain.New(`"/opt/gnu make/bin/make" -j4 -f`)
	require.NoError(t, err)

	assert.Equal(t, "/opt/gnu make/bin/make", tc.MakePath())
	assert.Equal(t,
		[]string{"/opt/gnu make/bin/make", "-j4", "-f", "pkg.mak", toolchain.RebuildTarget},
		tc.Command("pkg.mak", toolchain.RebuildTarget))
	assert.Equal(t, `'/opt/gnu make/bin/make' -j4 -f pkg.mak clean`, tc.CommandLine("pkg.mak", "clean"))

	// the configured command is not shared between calls
	first := tc.Command("a.mak")
	first[0] = "changed"
	assert.Equal(t, "/opt/gnu make/bin/make", tc.Command("b.mak")[0])
}

func TestInvalid(t *testing.T) {
	_, err := toolchain.New(`make "unterminated`)
	assert.Error(t, err)

	_, err = toolchain.New("   ")
	assert.ErrorIs(t, err, toolchain.ErrNoMake)
}
