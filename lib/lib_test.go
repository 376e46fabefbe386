package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameAddress(t *testing.T) {
	testCases := []struct {
		a, b  string
		match bool
	}{
		{"abc123@domain.test", "abc123@domain.test", true},
		{"ABC123@Domain.Test", "abc123@domain.test", true},
		{" abc123@domain.test ", "abc123@domain.test", true},
		{"a@x.com", "b@x.com", false},
		{"sub.a@x.com", "a@x.com", false},
		{"a@x.com", "a@sub.x.com", false},
		{"", "a@x.com", false},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.match, SameAddress(testCase.a, testCase.b), "%q vs %q", testCase.a, testCase.b)
	}
}

func TestContainsAddress(t *testing.T) {
	list := []string{"first@x.com", "Second@X.com"}
	assert.True(t, ContainsAddress(list, "second@x.com"))
	assert.False(t, ContainsAddress(list, "third@x.com"))
	assert.False(t, ContainsAddress(nil, "first@x.com"))
}

func TestRandomLocalPart(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		part := RandomLocalPart(10)
		assert.Len(t, part, 10)
		assert.Regexp(t, "^[a-z][a-z0-9]*$", part)
		seen[part] = true
	}
	// no collision expected on 36^10 values
	assert.Len(t, seen, 100)
}

func TestRandomLocalPartDefaultLength(t *testing.T) {
	assert.Len(t, RandomLocalPart(0), DefaultLocalPartLength)
}
