package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	AppName string
	Title   string
	Body    string
	Icon    string
	Tag     string
}

func TestRender(t *testing.T) {
	n := notification{
		AppName: "Szamma Mia",
		Title:   "Zamówienie #7",
		Body:    "Kierowca's w drodze",
		Tag:     "order-7",
	}

	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "quoted title and body",
			tmpl: `notify-send {{ .Title | shq }} {{ .Body | shq }}`,
			data: n,
			want: `notify-send 'Zamówienie #7' 'Kierowca'\''s w drodze'`,
		},
		{
			name: "default icon",
			tmpl: `--icon={{ .Icon | default "dialog-information" | shq }}`,
			data: n,
			want: `--icon='dialog-information'`,
		},
		{
			name: "explicit icon wins",
			tmpl: `--icon={{ .Icon | default "dialog-information" }}`,
			data: notification{Icon: "/usr/share/pizza.png"},
			want: `--icon=/usr/share/pizza.png`,
		},
		{
			name: "empty value quotes to empty string",
			tmpl: `{{ .Icon | shq }}`,
			data: n,
			want: `''`,
		},
		{
			name: "hint via printf",
			tmpl: `{{ printf "string:x-canonical-private-synchronous:%s" .Tag | shq }}`,
			data: n,
			want: `'string:x-canonical-private-synchronous:order-7'`,
		},
		{
			name: "map data",
			tmpl: `xdg-open {{ .URL | shq }}`,
			data: map[string]any{"URL": "http://localhost:5173/zamowienia"},
			want: `xdg-open 'http://localhost:5173/zamowienia'`,
		},
		{
			name:    "missing key",
			tmpl:    `xdg-open {{ .Link }}`,
			data:    map[string]any{"URL": "/"},
			wantErr: true,
		},
		{
			name:    "unknown field on struct",
			tmpl:    `{{ .Urgency }}`,
			data:    n,
			wantErr: true,
		},
		{
			name:    "syntax error",
			tmpl:    `{{ .Title `,
			data:    n,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		n    int
		in   string
		want string
	}{
		{name: "short", n: 10, in: "pizza", want: "pizza"},
		{name: "exact", n: 5, in: "pizza", want: "pizza"},
		{name: "cut with ellipsis", n: 5, in: "pizzeria", want: "pizz…"},
		{name: "counts runes", n: 4, in: "żółty ser", want: "żół…"},
		{name: "non-positive disables", n: 0, in: "pizzeria", want: "pizzeria"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.n, tt.in))
		})
	}
}

func TestOneline(t *testing.T) {
	assert.Equal(t, "a b c", oneline("a\nb\t\tc  "))
	assert.Equal(t, "", oneline("\n\n"))
}

func TestParse_ReusesCompiledTemplate(t *testing.T) {
	c, err := Parse(`paplay {{ .Path | shq }}`)
	require.NoError(t, err)
	assert.Equal(t, `paplay {{ .Path | shq }}`, c.String())

	for _, path := range []string{"/tmp/a.wav", "/tmp/b c.wav"} {
		got, err := c.Render(map[string]string{"Path": path})
		require.NoError(t, err)
		assert.Equal(t, "paplay "+shellQuote(path), got)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(`{{ if }}`)
	assert.Error(t, err)
}
