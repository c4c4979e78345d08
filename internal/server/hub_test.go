package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/config"
	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/session"
)

type stubCatalog map[game.CardID]game.Card

func (c stubCatalog) Card(id game.CardID) (game.Card, bool) {
	card, ok := c[id]
	return card, ok
}

type stubDecks map[game.ParticipantID][]game.CardID

func (s stubDecks) CreateDeck(p game.ParticipantID) (*game.Deck, error) {
	ids, ok := s[p]
	if !ok {
		return nil, errors.New("no deck")
	}
	return game.NewDeck(ids), nil
}

func (s stubDecks) LeaderFor(game.ParticipantID) (game.Leader, error) {
	return game.Leader{ID: "commander", Name: "Commander"}, nil
}

// anyDecks deals one fixed deck to whoever asks, the way the demo
// fallbacks provision generated AI seats.
type anyDecks []game.CardID

func (d anyDecks) CreateDeck(game.ParticipantID) (*game.Deck, error) {
	return game.NewDeck(d), nil
}

func (d anyDecks) LeaderFor(game.ParticipantID) (game.Leader, error) {
	return game.Leader{ID: "commander", Name: "Commander"}, nil
}

var fixtureDeck = []game.CardID{"soldier", "archer", "catapult", "recruit", "soldier", "recruit"}

func testHub(t *testing.T) *Hub {
	t.Helper()
	return testHubAIDecks(t, anyDecks(fixtureDeck))
}

func testHubAIDecks(t *testing.T, aiDecks game.DeckSource) *Hub {
	t.Helper()
	catalog := stubCatalog{
		"soldier":  {ID: "soldier", Name: "Soldier", BasePower: 5, Type: game.CardTypeCreature},
		"archer":   {ID: "archer", Name: "Archer", BasePower: 4, Type: game.CardTypeCreature},
		"catapult": {ID: "catapult", Name: "Catapult", BasePower: 6, Type: game.CardTypeCreature},
		"recruit":  {ID: "recruit", Name: "Recruit", BasePower: 1, Type: game.CardTypeCreature},
	}
	decks := stubDecks{
		"hero":  fixtureDeck,
		"rival": fixtureDeck,
	}
	mgr := session.NewManager(zap.NewNop(), catalog, decks, nil, nil, nil)
	if aiDecks != nil {
		mgr.ProvisionAIDecks(aiDecks)
	}
	gameCfg := config.GameConfig{
		Difficulty: "medium",
		MaxRounds:  3,
		HandSize:   4,
		RoundDraw:  2,
	}
	return NewHub(zap.NewNop(), mgr, gameCfg, game.Collaborators{})
}

// testClient builds a client that is registered with the hub but has no
// websocket behind it; handleMessage and broadcast only touch the send
// channel.
func testClient(h *Hub) *Client {
	c := &Client{hub: h, send: make(chan []byte, 32)}
	h.clients[c] = true
	return c
}

func nextOutbound(t *testing.T, c *Client) (string, json.RawMessage) {
	t.Helper()
	select {
	case raw := <-c.send:
		var out struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &out))
		return out.Type, out.Data
	default:
		t.Fatal("no outbound message queued")
		return "", nil
	}
}

// nextOfType discards queued messages until one of the wanted type
// arrives.
func nextOfType(t *testing.T, c *Client, want string) json.RawMessage {
	t.Helper()
	for i := 0; i < 32; i++ {
		typ, data := nextOutbound(t, c)
		if typ == want {
			return data
		}
	}
	t.Fatalf("no %q message queued", want)
	return nil
}

func TestCreateMatchBindsClientAndSendsState(t *testing.T) {
	h := testHub(t)
	c := testClient(h)

	h.handleMessage(c, Message{Type: "create_match", Participant: "hero", Opponent: "rival"})

	require.NotEmpty(t, c.matchID)
	assert.Equal(t, "hero", c.participant)

	data := nextOfType(t, c, "match_state")
	var state statePayload
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, c.matchID, state.MatchID)
	assert.Equal(t, 1, state.Round)
	require.Len(t, state.Participants, 2)
	assert.Len(t, state.Participants[0].Hand, 4)
}

func TestCreateMatchValidation(t *testing.T) {
	h := testHub(t)

	c := testClient(h)
	h.handleMessage(c, Message{Type: "create_match", Opponent: "rival"})
	data := nextOfType(t, c, "error")
	var e errorPayload
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Contains(t, e.Reason, "participant")

	c2 := testClient(h)
	h.handleMessage(c2, Message{Type: "create_match", Participant: "hero"})
	data = nextOfType(t, c2, "error")
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Contains(t, e.Reason, "opponent")
}

func TestCreateMatchVsAI(t *testing.T) {
	h := testHub(t)
	c := testClient(h)

	h.handleMessage(c, Message{Type: "create_match", Participant: "hero", VsAI: true})

	require.NotEmpty(t, c.matchID)
	m, ok := h.mgr.Match(c.matchID)
	require.True(t, ok)
	ids := m.ParticipantIDs()
	other := ids[1]
	if other == "hero" {
		other = ids[0]
	}
	assert.True(t, m.IsAIControlled(other))
}

func TestCreateMatchVsAIWithoutProvisionedDecks(t *testing.T) {
	// The AI seat gets a generated ID with no deck behind it; when no
	// AI deck source is provisioned the player store rejects the match.
	h := testHubAIDecks(t, nil)
	c := testClient(h)
	h.handleMessage(c, Message{Type: "create_match", Participant: "rival", VsAI: true})
	nextOfType(t, c, "error")
	assert.Empty(t, c.matchID)
}

func TestJoinMatchDeliversCurrentState(t *testing.T) {
	h := testHub(t)
	creator := testClient(h)
	h.handleMessage(creator, Message{Type: "create_match", Participant: "hero", Opponent: "rival"})
	require.NotEmpty(t, creator.matchID)

	joiner := testClient(h)
	h.handleMessage(joiner, Message{Type: "join_match", MatchID: creator.matchID, Participant: "rival"})

	assert.Equal(t, creator.matchID, joiner.matchID)
	data := nextOfType(t, joiner, "match_state")
	var state statePayload
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, creator.matchID, state.MatchID)
}

func TestJoinUnknownMatch(t *testing.T) {
	h := testHub(t)
	c := testClient(h)
	h.handleMessage(c, Message{Type: "join_match", MatchID: "missing", Participant: "rival"})
	nextOfType(t, c, "error")
	assert.Empty(t, c.matchID)
}

func TestPlayCardBroadcastsToBothClients(t *testing.T) {
	h := testHub(t)
	creator := testClient(h)
	h.handleMessage(creator, Message{Type: "create_match", Participant: "hero", Opponent: "rival"})
	require.NotEmpty(t, creator.matchID)

	joiner := testClient(h)
	h.handleMessage(joiner, Message{Type: "join_match", MatchID: creator.matchID, Participant: "rival"})

	// Drain the setup traffic so only the move's messages remain.
	for len(creator.send) > 0 {
		<-creator.send
	}
	for len(joiner.send) > 0 {
		<-joiner.send
	}

	m, ok := h.mgr.Match(creator.matchID)
	require.True(t, ok)
	snap := m.Snapshot()
	holder := creator
	if string(snap.TurnHolder) == "rival" {
		holder = joiner
	}
	hv, ok := snap.Participant(snap.TurnHolder)
	require.True(t, ok)
	require.NotEmpty(t, hv.Hand)

	h.handleMessage(holder, Message{
		Type:        "play_card",
		Participant: string(snap.TurnHolder),
		InstanceID:  hv.Hand[0].InstanceID,
		Lane:        "MELEE",
	})

	for _, c := range []*Client{creator, joiner} {
		data := nextOfType(t, c, "match_state")
		var state statePayload
		require.NoError(t, json.Unmarshal(data, &state))
		assert.NotEqual(t, string(snap.TurnHolder), state.TurnHolder)
	}
}

func TestMoveEventsReachSubscribedClients(t *testing.T) {
	h := testHub(t)
	c := testClient(h)
	h.handleMessage(c, Message{Type: "create_match", Participant: "hero", Opponent: "rival"})
	require.NotEmpty(t, c.matchID)
	for len(c.send) > 0 {
		<-c.send
	}

	m, _ := h.mgr.Match(c.matchID)
	snap := m.Snapshot()
	hv, _ := snap.Participant(snap.TurnHolder)
	h.handleMessage(c, Message{
		Type:        "play_card",
		Participant: string(snap.TurnHolder),
		InstanceID:  hv.Hand[0].InstanceID,
		Lane:        "RANGED",
	})

	data := nextOfType(t, c, "event")
	var ev eventPayload
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, c.matchID, ev.MatchID)
}

func TestRejectedMoveReturnsErrorToCallerOnly(t *testing.T) {
	h := testHub(t)
	creator := testClient(h)
	h.handleMessage(creator, Message{Type: "create_match", Participant: "hero", Opponent: "rival"})

	joiner := testClient(h)
	h.handleMessage(joiner, Message{Type: "join_match", MatchID: creator.matchID, Participant: "rival"})
	for len(creator.send) > 0 {
		<-creator.send
	}
	for len(joiner.send) > 0 {
		<-joiner.send
	}

	m, _ := h.mgr.Match(creator.matchID)
	offTurn := creator
	if string(m.TurnHolder()) == "hero" {
		offTurn = joiner
	}
	h.handleMessage(offTurn, Message{Type: "pass"})

	nextOfType(t, offTurn, "error")
}

func TestInvalidLaneRejectedBeforeManager(t *testing.T) {
	h := testHub(t)
	c := testClient(h)
	h.handleMessage(c, Message{Type: "create_match", Participant: "hero", Opponent: "rival"})
	for len(c.send) > 0 {
		<-c.send
	}

	h.handleMessage(c, Message{Type: "play_card", InstanceID: "x", Lane: "MOAT"})
	data := nextOfType(t, c, "error")
	var e errorPayload
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Contains(t, e.Reason, "lane")
}

func TestUnknownMessageType(t *testing.T) {
	h := testHub(t)
	c := testClient(h)
	h.handleMessage(c, Message{Type: "dance"})
	data := nextOfType(t, c, "error")
	var e errorPayload
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Contains(t, e.Reason, "dance")
}

func TestBroadcastSkipsOtherMatches(t *testing.T) {
	h := testHub(t)
	inMatch := testClient(h)
	inMatch.matchID = "m1"
	bystander := testClient(h)
	bystander.matchID = "m2"

	h.broadcast("m1", []byte(`{"type":"event"}`))

	assert.Len(t, inMatch.send, 1)
	assert.Len(t, bystander.send, 0)
}

func TestParseLane(t *testing.T) {
	for name, want := range map[string]game.Lane{
		"MELEE":  game.LaneMelee,
		"ranged": game.LaneRanged,
		"Siege":  game.LaneSiege,
	} {
		lane, err := parseLane(name)
		require.NoError(t, err)
		assert.Equal(t, want, lane)
	}
	_, err := parseLane("harbor")
	assert.Error(t, err)
}
