// Package store archives finished games.
package store

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// Record is one finished game.
type Record struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	GameID     string             `bson:"gameId" json:"gameId"`
	Moves      []domain.Action    `bson:"moves" json:"moves"`
	Board      string             `bson:"board" json:"board"`
	Winner     string             `bson:"winner" json:"winner"`
	Computer   string             `bson:"computer,omitempty" json:"computer,omitempty"`
	CreateAt   time.Time          `bson:"createAt" json:"createAt"`
	FinishedAt time.Time          `bson:"finishedAt" json:"finishedAt"`
}
