package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExpander(vars map[string]string) *Expander {
	return NewExpander(
		WithLookup(func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		}),
		WithHomeDir(func() (string, error) { return "/home/kiosk", nil }),
	)
}

func TestExpander_Expand(t *testing.T) {
	vars := map[string]string{
		"CALDAV_PASSWORD": "hunter2",
		"XDG_CACHE_HOME":  "/var/cache",
		"USER":            "kiosk",
	}

	tests := []struct {
		name  string
		mode  string
		value string
		want  string
	}{
		{name: "plain", mode: ExpandEnv, value: "plain-text", want: "plain-text"},
		{name: "braced", mode: ExpandEnv, value: "${CALDAV_PASSWORD}", want: "hunter2"},
		{name: "short form", mode: ExpandEnv, value: "$CALDAV_PASSWORD", want: "hunter2"},
		{name: "embedded", mode: ExpandEnv, value: "https://dav.example.com/$USER/", want: "https://dav.example.com/kiosk/"},
		{name: "unknown braced left alone", mode: ExpandEnv, value: "${NOT_SET}", want: "${NOT_SET}"},
		{name: "unknown short left alone", mode: ExpandEnv, value: "pa$word", want: "pa$word"},
		{name: "lone dollar", mode: ExpandEnv, value: "cost $5", want: "cost $5"},
		{name: "env mode ignores tilde", mode: ExpandEnv, value: "~/x", want: "~/x"},
		{name: "tilde", mode: ExpandPath, value: "~/.cache/wallboard/wallpaper.png", want: "/home/kiosk/.cache/wallboard/wallpaper.png"},
		{name: "bare tilde", mode: ExpandPath, value: "~", want: "/home/kiosk"},
		{name: "tilde user form untouched", mode: ExpandPath, value: "~other/x", want: "~other/x"},
		{name: "variable then tilde", mode: ExpandPath, value: "${XDG_CACHE_HOME}/wallboard", want: "/var/cache/wallboard"},
		{name: "absolute", mode: ExpandPath, value: "/tmp/out.png", want: "/tmp/out.png"},
		{name: "empty", mode: ExpandPath, value: "", want: ""},
	}

	e := testExpander(vars)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Expand(tt.mode, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpander_UnknownMode(t *testing.T) {
	_, err := testExpander(nil).Expand("shell", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown expand mode "shell"`)
}

func TestExpander_HomeDirError(t *testing.T) {
	e := NewExpander(WithHomeDir(func() (string, error) { return "", errors.New("no home") }))

	_, err := e.Expand(ExpandPath, "~/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no home")

	got, err := e.Expand(ExpandPath, "/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
}

func TestExpandFields_String(t *testing.T) {
	type S struct {
		Path     string `expand:"path"`
		Password string `expand:"env"`
		Literal  string
		Skipped  string `expand:"-"`
	}
	in := S{Path: "~/a", Password: "$PW", Literal: "$PW", Skipped: "$PW"}
	err := ExpandFields(testExpander(map[string]string{"PW": "secret"}), &in)
	require.NoError(t, err)
	assert.Equal(t, S{Path: "/home/kiosk/a", Password: "secret", Literal: "$PW", Skipped: "$PW"}, in)
}

func TestExpandFields_NestedStruct(t *testing.T) {
	type Inner struct {
		Path string `expand:"path"`
	}
	type Outer struct {
		Inner Inner
		Ptr   *Inner
		Nil   *Inner
	}
	in := Outer{Inner: Inner{Path: "~/x"}, Ptr: &Inner{Path: "~/y"}}
	err := ExpandFields(testExpander(nil), &in)
	require.NoError(t, err)
	assert.Equal(t, "/home/kiosk/x", in.Inner.Path)
	assert.Equal(t, "/home/kiosk/y", in.Ptr.Path)
	assert.Nil(t, in.Nil)
}

func TestExpandFields_Slices(t *testing.T) {
	type Item struct {
		Path string `expand:"path"`
	}
	type S struct {
		Paths   []string `expand:"path"`
		Plain   []string
		Items   []Item
		PtrItem []*Item
	}
	in := S{
		Paths:   []string{"~/a", "/b"},
		Plain:   []string{"~/c"},
		Items:   []Item{{Path: "~/d"}},
		PtrItem: []*Item{nil, {Path: "~/e"}},
	}
	err := ExpandFields(testExpander(nil), &in)
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/kiosk/a", "/b"}, in.Paths)
	assert.Equal(t, []string{"~/c"}, in.Plain)
	assert.Equal(t, "/home/kiosk/d", in.Items[0].Path)
	assert.Nil(t, in.PtrItem[0])
	assert.Equal(t, "/home/kiosk/e", in.PtrItem[1].Path)
}

func TestExpandFields_ErrorNamesField(t *testing.T) {
	type S struct {
		Weird string `expand:"shell"`
	}
	in := S{Weird: "x"}
	err := ExpandFields(testExpander(nil), &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Weird")
}

func TestExpandFields_NilAndNonStruct(t *testing.T) {
	type S struct {
		Path string `expand:"path"`
	}
	var nilStruct *S
	require.NoError(t, ExpandFields(testExpander(nil), nilStruct))

	n := 3
	err := ExpandFields(testExpander(nil), &n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects *struct")
}
