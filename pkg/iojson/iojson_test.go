package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, map[string]int{"id": 4}))
	require.NoError(t, WriteLine(&buf, map[string]int{"id": 5}))

	assert.Equal(t, "{\"id\":4}\n{\"id\":5}\n", buf.String())
}

func TestWriteWith_MarshalError(t *testing.T) {
	var out, errOut bytes.Buffer
	err := WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)})
	require.Error(t, err)

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), `"error"`)
}

type payload struct {
	Title string `json:"title"`
}

func TestFileReader(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "p.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"title":"Zamówienie"}`), 0o644))

		fr := &FileReader[payload]{value: path}
		assert.True(t, fr.Set())
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "Zamówienie", got.Title)
	})

	t.Run("stdin", func(t *testing.T) {
		fr := &FileReader[payload]{stdin: strings.NewReader(`{"title":"x"}`)}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "x", got.Title)
	})

	t.Run("bad json", func(t *testing.T) {
		fr := &FileReader[payload]{stdin: strings.NewReader(`nope`)}
		_, err := fr.Read()
		assert.ErrorContains(t, err, "decode JSON")
	})

	t.Run("flag name", func(t *testing.T) {
		fr := &FileReader[payload]{Name: "subscriptions"}
		assert.Equal(t, "subscriptions", fr.Flag().Name)
	})
}
