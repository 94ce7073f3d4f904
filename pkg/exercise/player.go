package exercise

import (
	"github.com/mesh-intelligence/drills/pkg/model"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// Player schema field names.
const (
	PlayerName     = "name"
	PlayerNumber   = "number"
	PlayerPosition = "position"
)

// PlayerSchema declares the savable fields of a Player.
var PlayerSchema = types.Schema{
	{Name: PlayerName, ValueType: types.ValueTypeText, Required: true},
	{Name: PlayerNumber, ValueType: types.ValueTypeInteger},
	{Name: PlayerPosition, ValueType: types.ValueTypeText},
}

// PlayerData is the snapshot shape a Player is constructed from.
type PlayerData struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Number   int64    `json:"number"`
	Position string   `json:"position"`
}

// Player is one member of an exercise's roster.
type Player struct {
	*model.Model
}

// NewPlayer builds a Player from its snapshot.
func NewPlayer(d PlayerData) (*Player, error) {
	m, err := model.New(types.KindPlayer, PlayerSchema, d.ID, map[string]any{
		PlayerName:     d.Name,
		PlayerNumber:   d.Number,
		PlayerPosition: d.Position,
	})
	if err != nil {
		return nil, err
	}
	return &Player{Model: m}, nil
}

func (p *Player) Name() string     { return getString(p.Model, PlayerName) }
func (p *Player) Number() int64    { return getInt(p.Model, PlayerNumber) }
func (p *Player) Position() string { return getString(p.Model, PlayerPosition) }

func (p *Player) SetName(v string) error     { return p.Set(PlayerName, v) }
func (p *Player) SetNumber(v int64) error    { return p.Set(PlayerNumber, v) }
func (p *Player) SetPosition(v string) error { return p.Set(PlayerPosition, v) }

// Merge reconciles incoming into p field by field. The *Player itself is kept
// so observers attached to it stay valid.
func (p *Player) Merge(incoming *Player, opts model.MergeOptions) error {
	_, err := model.Merge(p.Model, incoming.Model, opts)
	return err
}

// Data returns the player's current values as a snapshot.
func (p *Player) Data() PlayerData {
	return PlayerData{
		ID:       p.ID(),
		Name:     p.Name(),
		Number:   p.Number(),
		Position: p.Position(),
	}
}

func getString(m *model.Model, field string) string {
	v, _ := m.Get(field)
	s, _ := v.(string)
	return s
}

func getInt(m *model.Model, field string) int64 {
	v, _ := m.Get(field)
	n, _ := v.(int64)
	return n
}

func getFloat(m *model.Model, field string) float64 {
	v, _ := m.Get(field)
	n, _ := v.(float64)
	return n
}
