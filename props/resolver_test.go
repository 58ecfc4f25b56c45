package props

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Station-Manager/iocctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ iocctx.PropertyResolver = (*Resolver)(nil)

type port int

func newTestResolver(t *testing.T, m map[string]string) *Resolver {
	t.Helper()
	r, err := New(WithLogger(zaptest.NewLogger(t)), WithMap(m))
	require.NoError(t, err)
	return r
}

func TestGetProperty_PlainKeyAndExpressions(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"app.title":   "Springlet",
		"app.version": "v1.0",
		"jdbc.user":   "sa",
	})

	v, err := r.GetProperty("app.title")
	require.NoError(t, err)
	assert.Equal(t, "Springlet", v)

	v, err = r.GetProperty("${app.version}")
	require.NoError(t, err)
	assert.Equal(t, "v1.0", v)

	v, err = r.GetProperty("${app.author:Minao}")
	require.NoError(t, err)
	assert.Equal(t, "Minao", v)

	_, err = r.GetProperty("${app.author}")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestGetProperty_NestedDefaults(t *testing.T) {
	r := newTestResolver(t, map[string]string{"cloud.name": "aws"})

	v, err := r.GetProperty("${jdbc.user:${cloud.name:root}}")
	require.NoError(t, err)
	assert.Equal(t, "aws", v)

	v, err = r.GetProperty("${jdbc.user:${cloud.region:root}}")
	require.NoError(t, err)
	assert.Equal(t, "root", v)

	_, err = r.GetProperty("${jdbc.user:${cloud.region}}")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestGetProperty_StoredValuesAreExpanded(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"app.name":  "${APP_NAME_FOR_PROPS_TEST:demo}",
		"app.label": "${app.name}",
	})

	v, err := r.GetProperty("app.label")
	require.NoError(t, err)
	assert.Equal(t, "demo", v)
}

func TestGetProperty_CircularReference(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"loop.self": "${loop.self}",
		"loop.a":    "${loop.b}",
		"loop.b":    "${loop.c:${loop.a}}",
		"loop.ok":   "${loop.name}",
		"loop.name": "demo",
	})

	_, err := r.GetProperty("loop.self")
	assert.ErrorIs(t, err, ErrCircularReference)

	_, err = r.GetProperty("${loop.a}")
	require.ErrorIs(t, err, ErrCircularReference)
	assert.ErrorContains(t, err, "loop.a -> loop.b -> loop.a")

	// The same key may appear twice when it is not on its own expansion path.
	v, err := r.GetPropertyOr("loop.missing", "${loop.ok}")
	require.NoError(t, err)
	assert.Equal(t, "demo", v)
}

func TestGetPropertyOr(t *testing.T) {
	r := newTestResolver(t, map[string]string{"a": "1", "fallback": "2"})

	v, err := r.GetPropertyOr("a", "x")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = r.GetPropertyOr("missing", "${fallback}")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestEnvironmentIsASource(t *testing.T) {
	t.Setenv("PROPS_TEST_ENV_KEY", "from-env")
	r, err := New()
	require.NoError(t, err)

	v, err := r.GetProperty("PROPS_TEST_ENV_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestGetRequiredProperty_Conversions(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"bool":     "true",
		"int":      "-42",
		"int8":     "127",
		"uint16":   "65535",
		"float":    "2.5",
		"duration": "1m30s",
		"time":     "2024-05-01T10:00:00Z",
		"zone":     "UTC",
		"port":     "8080",
	})

	cases := []struct {
		key  string
		typ  reflect.Type
		want any
	}{
		{"bool", reflect.TypeFor[bool](), true},
		{"int", reflect.TypeFor[int](), -42},
		{"int8", reflect.TypeFor[int8](), int8(127)},
		{"uint16", reflect.TypeFor[uint16](), uint16(65535)},
		{"float", reflect.TypeFor[float64](), 2.5},
		{"duration", reflect.TypeFor[time.Duration](), 90 * time.Second},
		{"time", reflect.TypeFor[time.Time](), time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"port", reflect.TypeFor[port](), port(8080)},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			v, err := r.GetRequiredProperty(tc.key, tc.typ)
			require.NoError(t, err)
			if want, ok := tc.want.(time.Time); ok {
				assert.True(t, want.Equal(v.(time.Time)))
				return
			}
			assert.Equal(t, tc.want, v)
		})
	}

	loc, err := Property[*time.Location](r, "zone")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestGetRequiredProperty_Errors(t *testing.T) {
	r := newTestResolver(t, map[string]string{"int8": "300", "s": "x"})

	_, err := r.GetRequiredProperty("int8", reflect.TypeFor[int8]())
	assert.Error(t, err)

	_, err = r.GetRequiredProperty("s", reflect.TypeFor[[]string]())
	assert.ErrorContains(t, err, "unsupported value type")

	_, err = r.GetRequiredProperty("missing", reflect.TypeFor[string]())
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestRegisterConverter(t *testing.T) {
	r := newTestResolver(t, map[string]string{"hosts": "a,b,c"})
	r.RegisterConverter(reflect.TypeFor[[]string](), func(s string) (any, error) {
		return strings.Split(s, ","), nil
	})

	hosts, err := Property[[]string](r, "hosts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, hosts)
}

func TestWithYAML_Flattens(t *testing.T) {
	doc := `
server:
  port: 8080
  hosts:
    - alpha
    - beta
  tls:
    enabled: false
customer:
  name: Minao
`
	r, err := New(WithYAML(strings.NewReader(doc)))
	require.NoError(t, err)

	p, err := Property[int](r, "server.port")
	require.NoError(t, err)
	assert.Equal(t, 8080, p)

	h, err := r.GetProperty("server.hosts[1]")
	require.NoError(t, err)
	assert.Equal(t, "beta", h)

	enabled, err := Property[bool](r, "server.tls.enabled")
	require.NoError(t, err)
	assert.False(t, enabled)

	name, err := r.GetProperty("${customer.name}")
	require.NoError(t, err)
	assert.Equal(t, "Minao", name)
}

func TestWithYAML_InvalidDocument(t *testing.T) {
	_, err := New(WithYAML(strings.NewReader("a: [1, 2")))
	assert.Error(t, err)
}

func TestWithYAMLFile_AndDotEnv_LaterSourcesOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "app.yml")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(yamlPath, []byte("app:\n  title: from-yaml\n  mode: dev\n"), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("app.mode=prod\nPROPS_DOTENV_ONLY=1\n"), 0o600))

	r, err := New(WithYAMLFile(yamlPath), WithDotEnv(envPath))
	require.NoError(t, err)

	title, err := r.GetProperty("app.title")
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", title)

	mode, err := r.GetProperty("app.mode")
	require.NoError(t, err)
	assert.Equal(t, "prod", mode)

	_, ok := os.LookupEnv("PROPS_DOTENV_ONLY")
	assert.False(t, ok, "dotenv source must not modify the process environment")
}

func TestWithYAMLFile_Missing(t *testing.T) {
	_, err := New(WithYAMLFile(filepath.Join(t.TempDir(), "nope.yml")))
	assert.ErrorContains(t, err, "open yaml properties")
}
