package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("DAL_TEST_VALUE", "value")

	assert.Equal(t, "value", GetEnv("DAL_TEST_VALUE", "default"))
	assert.Equal(t, "default", GetEnv("DAL_TEST_MISSING", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("DAL_TEST_INT", " 25 ")
	t.Setenv("DAL_TEST_BAD_INT", "abc")

	assert.Equal(t, int64(25), GetEnvInt("DAL_TEST_INT", 10))
	assert.Equal(t, int64(10), GetEnvInt("DAL_TEST_BAD_INT", 10))
	assert.Equal(t, int64(10), GetEnvInt("DAL_TEST_MISSING", 10))
}

func TestGetEnvBoolAndDuration(t *testing.T) {
	t.Setenv("DAL_TEST_BOOL", "true")
	t.Setenv("DAL_TEST_DURATION", "90s")

	assert.True(t, GetEnvBool("DAL_TEST_BOOL", false))
	assert.False(t, GetEnvBool("DAL_TEST_MISSING", false))
	assert.Equal(t, 90*time.Second, GetEnvDuration("DAL_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("DAL_TEST_MISSING", time.Minute))
}

func TestGetEnvOrPanic(t *testing.T) {
	assert.Panics(t, func() { GetEnvOrPanic("DAL_TEST_MISSING") })
}
