package actorutil

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundTaskResult(t *testing.T) {

	require := require.New(t)

	v, err := NewBackgroundTaskNoError(nil, func() *int {
		n := 42
		return &n
	}).WithTimeout(time.Second).Result()
	require.NoError(err)
	require.Equal(42, v)
}

func TestBackgroundTaskTimeout(t *testing.T) {

	_, err := NewBackgroundTaskNoError(nil, func() *string {
		time.Sleep(300 * time.Millisecond)
		s := "late"
		return &s
	}).WithTimeout(20 * time.Millisecond).Result()
	assert.Error(t, err)
}

func TestBackgroundTaskRecover(t *testing.T) {

	assert := assert.New(t)

	v, err := NewBackgroundTask(nil, func() (*string, error) {
		return nil, errors.New("boom")
	}).Recover(func(err error) string {
		return "recovered: " + err.Error()
	}).Result()
	assert.NoError(err)
	assert.Contains(v, "boom")

	var got error
	NewBackgroundTaskNoError(nil, func() *string { return nil }).OnError(func(err error) {
		got = err
	}).Run()
	assert.Error(got, "nil result is an error")
}

func TestMapBackgroundTaskKeepsRecovery(t *testing.T) {

	require := require.New(t)

	failing := NewBackgroundTask(nil, func() (*int, error) {
		return nil, errors.New("boom")
	}).Recover(func(error) int {
		return -1
	})
	v, err := MapBackgroundTask(failing, func(n *int) *string {
		s := "got " + strconv.Itoa(*n)
		return &s
	}).Result()
	require.NoError(err)
	require.Equal("got -1", v)
}
