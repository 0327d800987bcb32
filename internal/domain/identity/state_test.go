package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticated_BlankUIDIsAnonymous(t *testing.T) {
	assert.Equal(t, Anonymous(), Authenticated("  "))
	assert.False(t, Authenticated("").IsAuthenticated())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Resolving(), "resolving"},
		{Anonymous(), "anonymous"},
		{Authenticated(" u1 "), "authenticated(u1)"},
		{State{Status: Status(9)}, "status(9)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestState_Predicates(t *testing.T) {
	assert.True(t, Resolving().IsResolving())
	assert.False(t, Anonymous().IsResolving())
	assert.True(t, Authenticated("u1").IsAuthenticated())
}
