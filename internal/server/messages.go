package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// Message is the envelope for every inbound client request.
type Message struct {
	Type        string `json:"type"`
	MatchID     string `json:"match_id,omitempty"`
	Participant string `json:"participant,omitempty"`
	Name        string `json:"name,omitempty"`
	Opponent    string `json:"opponent,omitempty"`
	VsAI        bool   `json:"vs_ai,omitempty"`
	Stake       int64  `json:"stake,omitempty"`
	InstanceID  string `json:"instance_id,omitempty"`
	Lane        string `json:"lane,omitempty"`
}

// Outbound is the envelope for every server push.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type errorPayload struct {
	Reason string `json:"reason"`
}

type remainingPayload struct {
	MatchID   string  `json:"match_id"`
	Remaining float64 `json:"remaining_seconds"`
}

type eventPayload struct {
	Type        string    `json:"type"`
	MatchID     string    `json:"match_id"`
	Participant string    `json:"participant,omitempty"`
	CardID      string    `json:"card_id,omitempty"`
	Lane        string    `json:"lane,omitempty"`
	Amount      int       `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func newEventPayload(ev rules.Event) eventPayload {
	return eventPayload{
		Type:        string(ev.Type),
		MatchID:     ev.MatchID,
		Participant: ev.Participant,
		CardID:      ev.CardID,
		Lane:        ev.Lane,
		Amount:      ev.Amount,
		Description: ev.Description,
		Timestamp:   ev.Timestamp,
	}
}

type cardPayload struct {
	InstanceID     string `json:"instance_id"`
	CardID         string `json:"card_id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	BasePower      int    `json:"base_power"`
	EffectivePower int    `json:"effective_power"`
}

type participantPayload struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Hand       []cardPayload   `json:"hand"`
	Lanes      [][]cardPayload `json:"lanes"`
	Graveyard  []cardPayload   `json:"graveyard"`
	DeckCount  int             `json:"deck_count"`
	LeaderName string          `json:"leader_name"`
	LeaderUsed bool            `json:"leader_used"`
	Passed     bool            `json:"passed"`
	RoundScore int             `json:"round_score"`
	RoundsWon  int             `json:"rounds_won"`
}

type statePayload struct {
	MatchID      string               `json:"match_id"`
	Round        int                  `json:"round"`
	MaxRounds    int                  `json:"max_rounds"`
	Weather      string               `json:"weather"`
	TurnHolder   string               `json:"turn_holder"`
	Complete     bool                 `json:"complete"`
	Winner       string               `json:"winner,omitempty"`
	Outcome      string               `json:"outcome,omitempty"`
	Participants []participantPayload `json:"participants"`
}

func newCardPayload(cv game.CardView) cardPayload {
	return cardPayload{
		InstanceID:     cv.InstanceID,
		CardID:         string(cv.CardID),
		Name:           cv.Name,
		Type:           cv.Type.String(),
		BasePower:      cv.BasePower,
		EffectivePower: cv.EffectivePower,
	}
}

func newCardPayloads(views []game.CardView) []cardPayload {
	out := make([]cardPayload, 0, len(views))
	for _, cv := range views {
		out = append(out, newCardPayload(cv))
	}
	return out
}

func newStatePayload(snap game.Snapshot) statePayload {
	payload := statePayload{
		MatchID:    snap.MatchID,
		Round:      snap.Round,
		MaxRounds:  snap.MaxRounds,
		Weather:    snap.Weather.String(),
		TurnHolder: string(snap.TurnHolder),
		Complete:   snap.Complete,
		Winner:     string(snap.Winner),
	}
	if snap.Complete {
		payload.Outcome = snap.Outcome.String()
	}
	for _, pv := range snap.Participants {
		pp := participantPayload{
			ID:         string(pv.ID),
			Name:       pv.Name,
			Hand:       newCardPayloads(pv.Hand),
			Graveyard:  newCardPayloads(pv.Graveyard),
			DeckCount:  pv.DeckCount,
			LeaderName: pv.LeaderName,
			LeaderUsed: pv.LeaderUsed,
			Passed:     pv.Passed,
			RoundScore: pv.RoundScore,
			RoundsWon:  pv.RoundsWon,
		}
		for _, lane := range pv.Lanes {
			pp.Lanes = append(pp.Lanes, newCardPayloads(lane))
		}
		payload.Participants = append(payload.Participants, pp)
	}
	return payload
}

// parseLane maps the wire lane name to a Lane.
func parseLane(name string) (game.Lane, error) {
	for _, lane := range game.Lanes() {
		if strings.EqualFold(lane.String(), name) {
			return lane, nil
		}
	}
	return 0, fmt.Errorf("unknown lane %q", name)
}
