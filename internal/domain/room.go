package domain

// RoomID is an opaque room identifier. Rooms exist only while they have
// at least one member; the id carries no other meaning.
type RoomID string
