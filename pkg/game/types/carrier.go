package types

// Carrier is a mobile fleet unit. An empty OrbitingStarID means the
// carrier is in transit along its waypoints. Carriers always have an
// owner; abandonment removes them instead of clearing the owner.
type Carrier struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	OwnedByPlayerID string     `json:"ownedByPlayerId"`
	OrbitingStarID  string     `json:"orbiting"`
	Position        Position   `json:"position"`
	Ships           int        `json:"ships"`
	SpecialistID    int        `json:"specialistId"`
	Waypoints       []Waypoint `json:"waypoints"`
}

// Waypoint is one leg of a carrier's planned route.
type Waypoint struct {
	Source      string         `json:"source"`
	Destination string         `json:"destination"`
	Action      WaypointAction `json:"action"`
	ActionShips int            `json:"actionShips"`
	DelayTicks  int            `json:"delayTicks"`
}

type WaypointAction string

const (
	WaypointActionNothing    WaypointAction = "nothing"
	WaypointActionCollectAll WaypointAction = "collectAll"
	WaypointActionDropAll    WaypointAction = "dropAll"
	WaypointActionCollect    WaypointAction = "collect"
	WaypointActionDrop       WaypointAction = "drop"
	WaypointActionGarrison   WaypointAction = "garrison"
)

// InTransit reports whether the carrier is between stars.
func (c *Carrier) InTransit() bool {
	return c.OrbitingStarID == ""
}
