package domain

import "strings"

type RoomID string

const voicePrefix = "voice:"

// TextRoomID addresses the text room of a channel.
func TextRoomID(channel string) RoomID { return RoomID(channel) }

// VoiceRoomID addresses the voice room of a channel. Text and voice rooms of
// the same channel are distinct membership sets: a user can be texting in
// channel A while voice-connected to channel B.
func VoiceRoomID(channel string) RoomID { return RoomID(voicePrefix + channel) }

func (r RoomID) IsVoice() bool { return strings.HasPrefix(string(r), voicePrefix) }

// Channel returns the channel name the room belongs to.
func (r RoomID) Channel() string { return strings.TrimPrefix(string(r), voicePrefix) }
