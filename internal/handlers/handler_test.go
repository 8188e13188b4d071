package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageBookkeeping(t *testing.T) {
	h := New(Options{})

	key := sessionKey(42, 7)
	assert.Zero(t, h.lastMessage(key), "unknown session has no tracked message")

	h.rememberMessage(key, 1001)
	assert.Equal(t, 1001, h.lastMessage(key))

	h.rememberMessage(key, 1002)
	assert.Equal(t, 1002, h.lastMessage(key), "a newer wizard message replaces the old one")

	other := sessionKey(42, 8)
	h.rememberMessage(other, 2001)

	h.forgetMessage(key)
	assert.Zero(t, h.lastMessage(key), "a cleared session leaves no entry behind")
	assert.NotContains(t, h.msgIDs, key)
	assert.Equal(t, 2001, h.lastMessage(other), "other sessions keep their entries")
}
