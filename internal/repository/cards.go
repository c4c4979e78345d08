package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/game"
)

// StaticCatalog is an immutable card catalog loaded once at startup.
type StaticCatalog map[game.CardID]game.Card

// Card implements game.Catalog.
func (c StaticCatalog) Card(id game.CardID) (game.Card, bool) {
	card, ok := c[id]
	return card, ok
}

// CardStore loads catalogs, decks and leaders from PostgreSQL. It
// implements game.DeckSource.
type CardStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewCardStore creates a card store over the given pool.
func NewCardStore(pool *pgxpool.Pool, logger *zap.Logger) *CardStore {
	return &CardStore{pool: pool, logger: logger}
}

// LoadCatalog reads the full card table.
func (s *CardStore) LoadCatalog(ctx context.Context) (StaticCatalog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, base_power, card_type, rarity, faction
		FROM cards
	`)
	if err != nil {
		return nil, fmt.Errorf("repository: load catalog: %w", err)
	}
	defer rows.Close()

	catalog := make(StaticCatalog)
	for rows.Next() {
		var (
			card     game.Card
			id       string
			cardType int
			rarity   int
		)
		if err := rows.Scan(&id, &card.Name, &card.BasePower, &cardType, &rarity, &card.Faction); err != nil {
			return nil, fmt.Errorf("repository: scan card: %w", err)
		}
		card.ID = game.CardID(id)
		card.Type = game.CardType(cardType)
		card.Rarity = game.Rarity(rarity)
		catalog[card.ID] = card
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: load catalog: %w", err)
	}

	s.logger.Info("card catalog loaded", zap.Int("cards", len(catalog)))
	return catalog, nil
}

// CreateDeck returns the participant's registered deck in stored order.
func (s *CardStore) CreateDeck(participant game.ParticipantID) (*game.Deck, error) {
	ctx := context.Background()
	rows, err := s.pool.Query(ctx, `
		SELECT card_id
		FROM deck_cards
		WHERE participant_id = $1
		ORDER BY position
	`, string(participant))
	if err != nil {
		return nil, fmt.Errorf("repository: deck for %s: %w", participant, err)
	}
	defer rows.Close()

	var ids []game.CardID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: scan deck card: %w", err)
		}
		ids = append(ids, game.CardID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: deck for %s: %w", participant, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("repository: no deck registered for %s", participant)
	}
	return game.NewDeck(ids), nil
}

// LeaderFor returns the participant's selected leader.
func (s *CardStore) LeaderFor(participant game.ParticipantID) (game.Leader, error) {
	var leader game.Leader
	err := s.pool.QueryRow(context.Background(), `
		SELECT l.id, l.name
		FROM participant_leaders pl
		JOIN leaders l ON l.id = pl.leader_id
		WHERE pl.participant_id = $1
	`, string(participant)).Scan(&leader.ID, &leader.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Leader{}, fmt.Errorf("repository: no leader selected for %s", participant)
	}
	if err != nil {
		return game.Leader{}, fmt.Errorf("repository: leader for %s: %w", participant, err)
	}
	return leader, nil
}
