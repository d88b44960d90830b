package transport

import (
	"encoding/json"
	"fmt"
)

// Room is the closed set of physical rooms the gateway knows about. The wire
// form is always snake_case.
type Room string

const (
	RoomBathroom   Room = "bathroom"
	RoomBedroom    Room = "bedroom"
	RoomCorridor   Room = "corridor"
	RoomHallway    Room = "hallway"
	RoomHomeOffice Room = "home_office"
	RoomKitchen    Room = "kitchen"
	RoomLivingRoom Room = "living_room"
	RoomNursery    Room = "nursery"
	RoomToilet     Room = "toilet"
)

// allRooms is the closed enum membership, used for validation.
var allRooms = map[Room]struct{}{
	RoomBathroom:   {},
	RoomBedroom:    {},
	RoomCorridor:   {},
	RoomHallway:    {},
	RoomHomeOffice: {},
	RoomKitchen:    {},
	RoomLivingRoom: {},
	RoomNursery:    {},
	RoomToilet:     {},
}

// AllRooms returns every member of the closed Room enum, in declaration
// order. The vacuum is one physical device reported under a catalog entry
// per cleanable room, so callers fan whole-home state out across this
// list the way bin/lisa's Room::all_rooms() does.
func AllRooms() []Room {
	return []Room{
		RoomBathroom, RoomBedroom, RoomCorridor, RoomHallway, RoomHomeOffice,
		RoomKitchen, RoomLivingRoom, RoomNursery, RoomToilet,
	}
}

// ParseRoom validates s against the closed Room enum.
func ParseRoom(s string) (Room, error) {
	r := Room(s)
	if _, ok := allRooms[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoom, s)
	}
	return r, nil
}

// Valid reports whether r is a member of the closed Room enum.
func (r Room) Valid() bool {
	_, ok := allRooms[r]
	return ok
}

// String implements fmt.Stringer.
func (r Room) String() string {
	return string(r)
}

// MarshalJSON implements json.Marshaler, rejecting unknown enum members.
func (r Room) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoom, string(r))
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown enum members.
func (r *Room) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRoom(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
