package model

// Participant is a roster member. ID is stable; Name is for display.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NameOf resolves a display name from roster, falling back to the id.
func NameOf(roster []Participant, id string) string {
	for _, p := range roster {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}
