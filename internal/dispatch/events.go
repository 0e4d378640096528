package dispatch

// Inbound event names.
const (
	EventJoinRoom    = "join_room"
	EventSignal      = "signal"
	EventStateChange = "state_change"
	EventReaction    = "reaction"
	EventChatMessage = "chat_message"
	EventRaiseHand   = "raise_hand"
	EventAdminAction = "admin_action"
)

// Outbound event names.
const (
	outUserJoined       = "user_joined"
	outExistingUsers    = "existing_users"
	outSetAdmin         = "set_admin"
	outUserLeft         = "user_left"
	outSignal           = "signal"
	outUserStateChanged = "user_state_changed"
	outShowReaction     = "show_reaction"
	outChatMessage      = "chat_message"
	outUserHandRaised   = "user_hand_raised"
	outAdminCommand     = "admin_command"
	outKicked           = "kicked"
	outRoomLocked       = "room_locked"
	outError            = "error"
)

// Admin action commands.
const (
	commandKick       = "kick"
	commandBan        = "ban"
	commandMute       = "mute"
	commandUnmute     = "unmute"
	commandToggleLock = "toggle_lock"
)

// chatMessageMaxChars bounds broadcast chat text length.
const chatMessageMaxChars = 200
