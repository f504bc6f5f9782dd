package equipment

import "equipapi/models"

// View is the caller-facing shape of an Equipment record. It is either a
// PublicView or a FullView; there is no nullable notes field that could leak
// whether notes exist.
type View interface {
	EquipmentID() uint
}

// PublicView is served to anonymous callers and never carries internal notes.
type PublicView struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
}

func (v PublicView) EquipmentID() uint { return v.ID }

// FullView is served to authenticated callers. InternalNotes is always encoded,
// as null when nothing is stored.
type FullView struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	InternalNotes *string  `json:"internal_notes"`
	Quantity      *float64 `json:"quantity"`
}

func (v FullView) EquipmentID() uint { return v.ID }

// NewView redacts rec for the caller.
func NewView(rec models.Equipment, authenticated bool) View {
	if !authenticated {
		return PublicView{ID: rec.ID, Name: rec.Name, Quantity: rec.Quantity}
	}
	return FullView{ID: rec.ID, Name: rec.Name, InternalNotes: rec.InternalNotes, Quantity: rec.Quantity}
}

func newViews(recs []models.Equipment, authenticated bool) []View {
	out := make([]View, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NewView(rec, authenticated))
	}
	return out
}
