package site

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Android ViewModel & LiveData", "android-viewmodel-livedata"},
		{"Blåbær på fjäll", "blabar-pa-fjall"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"already-a-slug", "already-a-slug"},
		{"Multiple---Separators!!!", "multiple-separators"},
		{"C++ & Go", "c-go"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	require.Equal(t, Slugify("Ünïcode Tïtle"), Slugify("Ünïcode Tïtle"))
}
