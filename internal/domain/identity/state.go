package identity

import (
	"fmt"
	"strings"
)

// Status is the authentication status as known to the cart.
type Status int

const (
	StatusResolving Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is one identity signal. UID is set only when Status is StatusAuthenticated.
type State struct {
	Status Status
	UID    string
}

func Resolving() State { return State{Status: StatusResolving} }

func Anonymous() State { return State{Status: StatusAnonymous} }

// Authenticated returns an authenticated state; a blank uid degrades to Anonymous.
func Authenticated(uid string) State {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return Anonymous()
	}
	return State{Status: StatusAuthenticated, UID: uid}
}

func (s State) IsResolving() bool { return s.Status == StatusResolving }

func (s State) IsAuthenticated() bool { return s.Status == StatusAuthenticated && s.UID != "" }

func (s State) String() string {
	if s.IsAuthenticated() {
		return "authenticated(" + s.UID + ")"
	}
	return s.Status.String()
}
