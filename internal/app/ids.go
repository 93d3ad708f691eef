package app

import "github.com/google/uuid"

// ComputerID is the seat id held by the engine in games against the computer.
const ComputerID = "computer"

func newGameID() string { return uuid.NewString() }

// NewPlayerID returns a fresh id for a human player.
func NewPlayerID() string { return uuid.NewString() }
