package makefile_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/stat/makefile"
)

// Each case writes its files to a fresh directory and opens main.mak.
const parseCases = `
[[case]]
name = "assignment time substitution"
keys = ["X", "Y"]
[case.files]
"main.mak" = '''
X = foo
Y = ${X}bar
X = baz
'''
[case.want]
X = "baz"
Y = "foobar"

[[case]]
name = "keys are case-insensitive"
keys = ["NAME", "OTHER"]
[case.files]
"main.mak" = '''
Name = first
oThEr = $(name)
name = second
'''
[case.want]
NAME = "second"
OTHER = "first"

[[case]]
name = "undefined references are empty"
keys = ["Y", "Z"]
[case.files]
"main.mak" = '''
Y = ${UNDEFINED}x
Z =   $( UNDEFINED )
'''
[case.want]
Y = "x"
Z = ""

[[case]]
name = "comments and continuations"
keys = ["SOURCES", "DEFINES"]
[case.files]
"main.mak" = '''
# leading comment
SOURCES = main.c \
util.c # the sources
DEFINES = FOO \
BAR=1
'''
[case.want]
SOURCES = "main.c util.c"
DEFINES = "FOO BAR=1"

[[case]]
name = "other make syntax is ignored"
keys = ["CC"]
[case.files]
"main.mak" = '''
CC = gcc
CFLAGS += -O2
OBJ := main.o
all: main.o
	$(CC) -c main.c
'''
[case.want]
CC = "gcc"

[[case]]
name = "inclusion splices lines in order"
keys = ["BASE", "A", "DIR", "P"]
[case.files]
"main.mak" = '''
include <common.mak>
A = ${BASE}/x
DIR = sub
INCLUDE ${DIR}/part.mak
!include $(TOOL_DIR)/stat_core.mak
'''
"common.mak" = '''
BASE = root
'''
"sub/part.mak" = '''
P = ${A}/${DIR}
BASE = changed
'''
[case.want]
BASE = "changed"
A = "root/x"
P = "root/x/sub"
DIR = "sub"

[[case]]
name = "empty descriptor"
[case.files]
"main.mak" = ""
`

type parseCase struct {
	Name  string
	Keys  []string
	Files map[string]string
	Want  map[string]string
}

func TestOpen(t *testing.T) {
	var cases struct {
		Case []parseCase
	}
	require.NoError(t, toml.Unmarshal([]byte(parseCases), &cases))
	require.NotEmpty(t, cases.Case)

	for _, tc := range cases.Case {
		t.Run(tc.Name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.Files {
				write(t, filepath.Join(dir, filepath.FromSlash(name)), content)
			}
			main := filepath.Join(dir, "main.mak")

			mk, err := makefile.Open(main, makefile.Options{})
			require.NoError(t, err)

			got := make(map[string]string)
			for _, k := range mk.Keys() {
				got[k] = mk.Get(k)
			}
			want := tc.Want
			if want == nil {
				want = map[string]string{}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("values (-want +got):\n%s", diff)
			}
			if len(tc.Keys) > 0 {
				assert.Equal(t, tc.Keys, mk.Keys())
			}
			assert.Equal(t, "main", mk.Name())
			assert.Equal(t, main, mk.Path())
		})
	}
}

func TestAccessors(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "pkg.test.mak"), "sources = a.c  b.c\n\tc.c\nEMPTY =\n")

	mk, err := makefile.Open(path, makefile.Options{})
	require.NoError(t, err)

	assert.Equal(t, "pkg.test", mk.Name())
	assert.Equal(t, []string{"a.c", "b.c"}, mk.Fields(makefile.Sources))
	assert.Equal(t, mk.Get("SOURCES"), mk.Get("Sources"))
	assert.True(t, mk.Has("empty"))
	assert.False(t, mk.Has("missing"))
	assert.Equal(t, "", mk.Get("missing"))
	assert.Empty(t, mk.Fields("missing"))

	keys := mk.Keys()
	keys[0] = "CHANGED"
	assert.Equal(t, []string{"SOURCES", "EMPTY"}, mk.Keys())
}

func TestCommentCutsValue(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "pkg.mak"), "DEFINES = COLOR=#fff SIZE=2\nNAME = pkg # trailing\n")

	mk, err := makefile.Open(path, makefile.Options{})
	require.NoError(t, err)
	// everything from the first '#' on is a comment, even inside a value
	assert.Equal(t, "COLOR=", mk.Get(makefile.Defines))
	assert.Equal(t, "pkg", mk.Get(makefile.Name))
}

func TestOpenSearchPaths(t *testing.T) {
	dir := t.TempDir()
	main := write(t, filepath.Join(dir, "pkg", "main.mak"), "include defaults.mak\n")
	write(t, filepath.Join(dir, "common", "defaults.mak"), "LEVEL = common\n")

	_, err := makefile.Open(main, makefile.Options{})
	require.Error(t, err)

	mk, err := makefile.Open(main, makefile.Options{SearchPaths: []string{filepath.Join(dir, "common")}})
	require.NoError(t, err)
	assert.Equal(t, "common", mk.Get("LEVEL"))
}

func TestOpenIgnore(t *testing.T) {
	dir := t.TempDir()
	main := write(t, filepath.Join(dir, "main.mak"), "include stat_core.mak\ninclude skip.mak\nA = 1\n")
	write(t, filepath.Join(dir, "stat_core.mak"), "CORE = 1\n")

	mk, err := makefile.Open(main, makefile.Options{Ignore: []string{"skip.mak", "stat_core.mak"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, mk.Keys())

	// a custom list replaces the default one
	mk, err = makefile.Open(main, makefile.Options{Ignore: []string{"skip.mak"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CORE", "A"}, mk.Keys())
}

func TestOpenIncludeKey(t *testing.T) {
	dir := t.TempDir()
	content := fmt.Sprintf("INCLUDE = %s;%s\ninclude shared.mak\n", filepath.Join(dir, "missing"), filepath.Join(dir, "lib"))
	main := write(t, filepath.Join(dir, "pkg", "main.mak"), content)
	write(t, filepath.Join(dir, "lib", "shared.mak"), "SHARED = yes\n")

	mk, err := makefile.Open(main, makefile.Options{})
	require.NoError(t, err)
	assert.Equal(t, "yes", mk.Get("SHARED"))
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		message string
	}{
		{
			name:    "open bracket only",
			files:   map[string]string{"main.mak": "A = 1\ninclude <common.mak\n"},
			message: "Invalid inclusion 'include <common.mak' in Makefile '%s'!",
		},
		{
			name:    "close bracket only",
			files:   map[string]string{"main.mak": "include common.mak>\n"},
			message: "Invalid inclusion 'include common.mak>' in Makefile '%s'!",
		},
		{
			name:    "missing include",
			files:   map[string]string{"main.mak": "include ghost.mak\n"},
			message: "Attempt to include not existing file 'ghost.mak' within '%s'.",
		},
		{
			name: "cycle",
			files: map[string]string{
				"main.mak":  "include other.mak\n",
				"other.mak": "include main.mak\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				write(t, filepath.Join(dir, name), content)
			}
			main := filepath.Join(dir, "main.mak")

			mk, err := makefile.Open(main, makefile.Options{})
			assert.Nil(t, mk)
			var merr *makefile.Error
			require.True(t, errors.As(err, &merr), "got %v", err)
			if tt.message != "" {
				assert.Equal(t, fmt.Sprintf(tt.message, main), err.Error())
			}
		})
	}

	_, err := makefile.Open(filepath.Join(t.TempDir(), "none.mak"), makefile.Options{})
	var merr *makefile.Error
	assert.True(t, errors.As(err, &merr))
}
