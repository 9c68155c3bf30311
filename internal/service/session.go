package service

import (
	"fmt"
)

// SessionState is where a client's session token stands
type SessionState int

const (
	// StateAnonymous: no token presented
	StateAnonymous SessionState = iota
	// StateIdentified: token issued, no account bound to it
	StateIdentified
	// StateBound: token bound to an account by signup
	StateBound
	// StateAuthenticated: account's token handed back by login
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateIdentified:
		return "identified"
	case StateBound:
		return "bound"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionEvent is an operation that may move a session between states
type SessionEvent string

const (
	EventIdentify SessionEvent = "identify"
	EventSignup   SessionEvent = "signup"
	EventLogin    SessionEvent = "login"
)

// TokenDecision says which session id the caller ends up holding
type TokenDecision int

const (
	// TokenMint: generate a fresh session id
	TokenMint TokenDecision = iota
	// TokenKeep: keep the presented session id
	TokenKeep
	// TokenAccount: use the session id stored on the account
	TokenAccount
)

// Transition is one row of the session state table
type Transition struct {
	Token TokenDecision
	Next  SessionState
}

// A presented token that already belongs to an account is never adopted
// by signup: every session id maps to exactly one user and one metrics row.
var sessionTransitions = map[SessionState]map[SessionEvent]Transition{
	StateAnonymous: {
		EventIdentify: {Token: TokenMint, Next: StateIdentified},
		EventSignup:   {Token: TokenMint, Next: StateBound},
		EventLogin:    {Token: TokenAccount, Next: StateAuthenticated},
	},
	StateIdentified: {
		EventIdentify: {Token: TokenKeep, Next: StateIdentified},
		EventSignup:   {Token: TokenKeep, Next: StateBound},
		EventLogin:    {Token: TokenAccount, Next: StateAuthenticated},
	},
	StateBound: {
		EventIdentify: {Token: TokenKeep, Next: StateBound},
		EventSignup:   {Token: TokenMint, Next: StateBound},
		EventLogin:    {Token: TokenAccount, Next: StateAuthenticated},
	},
	StateAuthenticated: {
		EventIdentify: {Token: TokenKeep, Next: StateAuthenticated},
		EventSignup:   {Token: TokenMint, Next: StateBound},
		EventLogin:    {Token: TokenAccount, Next: StateAuthenticated},
	},
}

// NextTransition looks up the table row for state and event
func NextTransition(state SessionState, event SessionEvent) (Transition, error) {
	events, ok := sessionTransitions[state]
	if !ok {
		return Transition{}, fmt.Errorf("unknown session state %s", state)
	}
	tr, ok := events[event]
	if !ok {
		return Transition{}, fmt.Errorf("no transition for %s on %s", event, state)
	}
	return tr, nil
}

// resolveToken returns the session id selected by decision
func resolveToken(decision TokenDecision, presented, account string, mint func() string) string {
	switch decision {
	case TokenKeep:
		return presented
	case TokenAccount:
		return account
	default:
		return mint()
	}
}
