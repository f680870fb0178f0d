package domain

// Event names pushed over the broadcast channel.
const (
	EventCharactersUpdated = "charactersUpdated"
	EventCharacterUpdated  = "characterUpdated"
	EventSettingsUpdated   = "settingsUpdated"

	// EventUpdateCharacter is the single client-to-server event.
	EventUpdateCharacter = "updateCharacter"
)

// Event is the wire envelope for broadcast messages in both directions.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// CharacterUpdatedPayload is the data of a characterUpdated event.
type CharacterUpdatedPayload struct {
	ID        string    `json:"id"`
	Character Character `json:"character"`
}

// UpdateCharacterPayload is the data of a client-sent updateCharacter event.
type UpdateCharacterPayload struct {
	ID   string               `json:"id"`
	Data UpdateCharacterInput `json:"data"`
}

// Broadcaster fans events out to every connected overlay client. Delivery is
// fire-and-forget: no acks, no ordering across clients, no replay.
type Broadcaster interface {
	BroadcastCharacters(characters []Character)
	BroadcastCharacter(id string, character Character)
	BroadcastSettings(settings Settings)
}
