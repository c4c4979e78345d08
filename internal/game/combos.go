package game

import (
	"fmt"

	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// collectCombosLocked detects bond formations after a creature play:
// two or more copies of the same card on one lane form a combo keyed by
// lane and card ID. Each combo is collected once per round and grants
// every copy on the lane a ledger boost equal to the card's base power.
// Copies arriving after collection are not boosted retroactively.
func (m *MatchState) collectCombosLocked(p *participant, lane Lane) {
	groups := make(map[CardID][]*CardInstance)
	for _, inst := range p.lanes[lane] {
		groups[inst.Card.ID] = append(groups[inst.Card.ID], inst)
	}

	for id, insts := range groups {
		if len(insts) < 2 {
			continue
		}
		comboID := fmt.Sprintf("%s:%s", lane, id)
		if p.combos[comboID] {
			continue
		}
		p.combos[comboID] = true

		for _, inst := range insts {
			m.ledger.Add(string(p.id), inst.InstanceID, inst.Card.BasePower)
		}

		ev := rules.NewEvent(rules.EventComboCollected, m.id, string(p.id))
		ev.CardID = string(id)
		ev.Lane = lane.String()
		ev.Amount = len(insts)
		ev.Description = fmt.Sprintf("%s forms a bond: %d copies of %s on %s", p.name, len(insts), id, lane)
		m.queueEventLocked(ev)
	}
}
