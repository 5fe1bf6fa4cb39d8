package domain

// Team is a routing destination for tickets.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeamNames projects teams onto their names, preserving order.
func TeamNames(teams []Team) []string {
	names := make([]string, 0, len(teams))
	for _, team := range teams {
		names = append(names, team.Name)
	}
	return names
}
