package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApp_Singleton(t *testing.T) {
	app1 := App()
	app2 := App()

	assert.Same(t, app1, app2)
	assert.NotNil(t, app1.Validator)
	assert.NotEmpty(t, app1.SecretKey)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_CONF_KEY", "value")
	assert.Equal(t, "value", GetEnv("TEST_CONF_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("TEST_CONF_MISSING", "fallback"))
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("TEST_CONF_BOOL", "true")
	assert.True(t, GetBoolEnv("TEST_CONF_BOOL", false))

	t.Setenv("TEST_CONF_BOOL_BAD", "not-a-bool")
	assert.True(t, GetBoolEnv("TEST_CONF_BOOL_BAD", true))

	assert.False(t, GetBoolEnv("TEST_CONF_BOOL_MISSING", false))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_CONF_INT", "42")
	assert.Equal(t, 42, GetIntEnv("TEST_CONF_INT", 7))

	t.Setenv("TEST_CONF_INT_BAD", "forty-two")
	assert.Equal(t, 7, GetIntEnv("TEST_CONF_INT_BAD", 7))
}

func TestRandomString(t *testing.T) {
	s := RandomString(8)
	assert.Len(t, s, 8)

	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		assert.True(t, ok, "unexpected rune %q", r)
	}
}
