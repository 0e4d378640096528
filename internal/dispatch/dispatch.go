// Package dispatch implements the Event Dispatcher: the inbound-event
// demultiplexer that validates membership/authority preconditions, mutates
// the Room Store, and enqueues outbound events via the Fan-out Engine.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roomrelay/signaling/internal/clock"
	"github.com/roomrelay/signaling/internal/fanout"
	"github.com/roomrelay/signaling/internal/logging"
	"github.com/roomrelay/signaling/internal/metrics"
	"github.com/roomrelay/signaling/internal/room"
	"github.com/roomrelay/signaling/internal/session"
	"go.uber.org/zap"
)

// Config holds the Dispatcher's moderation defaults.
type Config struct {
	DefaultBanMinutes  int
	DefaultMuteMinutes int
}

// Dispatcher wires the Room Store, Session Registry, and Fan-out Engine
// together to implement every inbound event the clients send.
type Dispatcher struct {
	rooms    *room.Store
	sessions *session.Registry
	fanout   *fanout.Engine
	clock    clock.Clock
	cfg      Config
}

// New builds a Dispatcher over the given collaborators.
func New(rooms *room.Store, sessions *session.Registry, fanoutEngine *fanout.Engine, c clock.Clock, cfg Config) *Dispatcher {
	return &Dispatcher{rooms: rooms, sessions: sessions, fanout: fanoutEngine, clock: c, cfg: cfg}
}

type outboundEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func (d *Dispatcher) marshal(event string, payload any) ([]byte, bool) {
	b, err := json.Marshal(outboundEnvelope{Event: event, Payload: payload})
	if err != nil {
		logging.Error(context.Background(), "failed to marshal outbound event", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return b, true
}

func (d *Dispatcher) emitToOne(connectionID, event string, payload any) {
	if b, ok := d.marshal(event, payload); ok {
		d.fanout.ToOne(connectionID, b)
	}
}

func (d *Dispatcher) emitToRoom(roomID, event string, payload any) {
	if b, ok := d.marshal(event, payload); ok {
		d.fanout.ToRoom(roomID, b)
	}
}

func (d *Dispatcher) emitToRoomExcept(roomID, exceptConnectionID, event string, payload any) {
	if b, ok := d.marshal(event, payload); ok {
		d.fanout.ToRoomExcept(roomID, exceptConnectionID, b)
	}
}

func (d *Dispatcher) sendError(connectionID, message string) {
	d.emitToOne(connectionID, outError, map[string]any{"message": message})
}

// HandleConnect creates a Session for a newly-accepted transport connection.
// Connecting always succeeds; bans are enforced per-room at join time, not
// here.
func (d *Dispatcher) HandleConnect(connectionID, identity string) {
	d.sessions.Open(connectionID, identity)
	metrics.IncConnection()
}

// HandleDisconnect tears a connection down: removes its Session, leaves its
// Room if any, and broadcasts user_left to the remaining members.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, connectionID string) {
	d.sessions.Close(connectionID)
	d.fanout.Unregister(connectionID)
	metrics.DecConnection()

	res := d.rooms.Leave(connectionID)
	if res.Status != room.LeaveStatusLeft {
		return
	}
	d.emitToRoom(res.RoomID, outUserLeft, map[string]any{"sid": connectionID})
}

// Dispatch routes one decoded inbound event to its handler, recording
// per-event processing duration and outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, connectionID, eventName string, payload map[string]any) {
	start := time.Now()
	status := "dropped"
	defer func() {
		metrics.EventProcessingDuration.WithLabelValues(eventName).Observe(time.Since(start).Seconds())
		metrics.EventsTotal.WithLabelValues(eventName, status).Inc()
	}()

	var ok bool
	switch eventName {
	case EventJoinRoom:
		ok = d.handleJoinRoom(ctx, connectionID, payload)
	case EventSignal:
		ok = d.handleSignal(ctx, connectionID, payload)
	case EventStateChange:
		ok = d.handleStateChange(ctx, connectionID, payload)
	case EventReaction:
		ok = d.handleReaction(ctx, connectionID, payload)
	case EventChatMessage:
		ok = d.handleChatMessage(ctx, connectionID, payload)
	case EventRaiseHand:
		ok = d.handleRaiseHand(ctx, connectionID, payload)
	case EventAdminAction:
		ok = d.handleAdminAction(ctx, connectionID, payload)
	default:
		logging.Warn(ctx, "unknown inbound event", zap.String("event", eventName))
		return
	}
	if ok {
		status = "success"
	}
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, connectionID string, payload map[string]any) bool {
	roomID, hasRoom := getString(payload, "room")
	name, hasName := getString(payload, "name")
	avatar, _ := getString(payload, "avatar")
	if !hasRoom || !hasName {
		logging.Warn(ctx, "join_room missing required fields", zap.String("connection_id", connectionID))
		return false
	}
	video := getBool(payload, "video_enabled", false)
	audio := getBool(payload, "audio_enabled", false)

	sess, ok := d.sessions.Get(connectionID)
	if !ok {
		return false
	}

	result := d.rooms.TryJoin(roomID, connectionID, sess.Identity, name, avatar, video, audio)
	normalized := room.NormalizeID(roomID)

	switch result.Status {
	case room.JoinStatusBanned:
		d.sendError(connectionID, "banned from this room")
		return true
	case room.JoinStatusLocked:
		d.sendError(connectionID, "room is locked")
		return true
	}

	d.sessions.SetRoom(connectionID, normalized)

	d.emitToRoomExcept(normalized, connectionID, outUserJoined, map[string]any{
		"sid":           connectionID,
		"name":          name,
		"avatar":        avatar,
		"is_admin":      result.IsAdmin,
		"video_enabled": video,
		"audio_enabled": audio,
	})

	existing := make([]map[string]any, 0, len(result.ExistingMembers))
	for _, m := range result.ExistingMembers {
		existing = append(existing, map[string]any{
			"sid":           m.ConnectionID,
			"name":          m.DisplayName,
			"avatar":        m.Avatar,
			"is_admin":      m.IsAdmin,
			"video_enabled": m.VideoEnabled,
			"audio_enabled": m.AudioEnabled,
		})
	}
	d.emitToOne(connectionID, outExistingUsers, existing)

	if result.IsAdmin {
		d.emitToOne(connectionID, outSetAdmin, map[string]any{"is_admin": true})
	}
	if result.HasMuteRemaining {
		d.emitToOne(connectionID, outAdminCommand, map[string]any{
			"command":  "mute_force",
			"duration": result.MuteRemainingSec,
		})
	}
	return true
}

func (d *Dispatcher) handleSignal(ctx context.Context, connectionID string, payload map[string]any) bool {
	target, hasTarget := getString(payload, "target")
	typ, hasType := getString(payload, "type")
	data, hasData := payload["data"]
	if !hasTarget || !hasType || !hasData {
		return false
	}

	// Relay to any known connection regardless of room, dropping only when
	// the target is unknown.
	if !d.rooms.KnowsConnection(target) {
		return false
	}

	d.emitToOne(target, outSignal, map[string]any{
		"sender": connectionID,
		"type":   typ,
		"data":   data,
	})
	return true
}

func (d *Dispatcher) handleStateChange(ctx context.Context, connectionID string, payload map[string]any) bool {
	if _, hasRoom := getString(payload, "room"); !hasRoom {
		return false
	}
	video, videoOK := payload["video"].(bool)
	audio, audioOK := payload["audio"].(bool)
	if !videoOK || !audioOK {
		return false
	}

	res := d.rooms.SetMediaState(connectionID, video, audio)
	if res.Status != room.MediaStatusUpdated {
		return false
	}

	d.emitToRoomExcept(res.RoomID, connectionID, outUserStateChanged, map[string]any{
		"sid":   connectionID,
		"video": video,
		"audio": audio,
	})
	return true
}

func (d *Dispatcher) handleReaction(ctx context.Context, connectionID string, payload map[string]any) bool {
	roomID, hasRoom := getString(payload, "room")
	emoji, hasEmoji := getString(payload, "emoji")
	if !hasRoom || !hasEmoji {
		return false
	}
	normalized := room.NormalizeID(roomID)
	d.emitToRoom(normalized, outShowReaction, map[string]any{"sid": connectionID, "emoji": emoji})
	return true
}

func (d *Dispatcher) handleChatMessage(ctx context.Context, connectionID string, payload map[string]any) bool {
	roomID, hasRoom := getString(payload, "room")
	text, hasText := getString(payload, "text")
	if !hasRoom || !hasText {
		return false
	}
	normalized := room.NormalizeID(roomID)

	member := d.rooms.MemberInfo(normalized, connectionID)
	if member == nil {
		return false
	}

	d.emitToRoom(normalized, outChatMessage, map[string]any{
		"sid":  connectionID,
		"name": member.DisplayName,
		"text": truncateRunes(text, chatMessageMaxChars),
		"time": d.clock.Now().Format("15:04"),
	})
	return true
}

func (d *Dispatcher) handleRaiseHand(ctx context.Context, connectionID string, payload map[string]any) bool {
	roomID, hasRoom := getString(payload, "room")
	if !hasRoom {
		return false
	}
	normalized := room.NormalizeID(roomID)
	d.emitToRoom(normalized, outUserHandRaised, map[string]any{"sid": connectionID})
	return true
}

func (d *Dispatcher) handleAdminAction(ctx context.Context, connectionID string, payload map[string]any) bool {
	roomID, hasRoom := getString(payload, "room")
	command, hasCommand := getString(payload, "command")
	if !hasRoom || !hasCommand {
		return false
	}
	targetSid, _ := getString(payload, "target_sid")

	var action room.AdminAction
	var durationSeconds int
	switch command {
	case commandKick:
		action = room.AdminAction{Kind: room.ActionKick, Target: targetSid}
	case commandBan:
		minutes := getInt(payload, "duration", d.cfg.DefaultBanMinutes)
		durationSeconds = minutes * 60
		action = room.AdminAction{Kind: room.ActionBan, Target: targetSid, Seconds: durationSeconds}
	case commandMute:
		minutes := getInt(payload, "duration", d.cfg.DefaultMuteMinutes)
		durationSeconds = minutes * 60
		action = room.AdminAction{Kind: room.ActionMute, Target: targetSid, Seconds: durationSeconds}
	case commandUnmute:
		action = room.AdminAction{Kind: room.ActionUnmute, Target: targetSid}
	case commandToggleLock:
		action = room.AdminAction{Kind: room.ActionToggleLock}
	default:
		return false
	}

	result := d.rooms.AdminMutate(roomID, connectionID, action)
	metrics.AdminActionsTotal.WithLabelValues(command, adminStatusLabel(result.Status)).Inc()

	if result.Status != room.AdminStatusApplied {
		// Authority failures and missing targets are silently dropped:
		// hostile clients get no signal either way.
		return false
	}

	normalized := room.NormalizeID(roomID)
	switch command {
	case commandKick:
		d.emitToOne(targetSid, outKicked, map[string]any{})
		d.emitToRoomExcept(normalized, targetSid, outUserLeft, map[string]any{"sid": targetSid})
		d.sessions.ClearRoom(targetSid)
		d.fanout.Close(targetSid)
	case commandBan:
		d.emitToOne(targetSid, outKicked, map[string]any{"reason": "ban"})
		d.emitToRoomExcept(normalized, targetSid, outUserLeft, map[string]any{"sid": targetSid})
		d.sessions.ClearRoom(targetSid)
		d.fanout.Close(targetSid)
	case commandMute:
		d.emitToOne(targetSid, outAdminCommand, map[string]any{"command": "mute_force", "duration": durationSeconds})
	case commandUnmute:
		d.emitToOne(targetSid, outAdminCommand, map[string]any{"command": "unmute_force"})
	case commandToggleLock:
		d.emitToRoom(normalized, outRoomLocked, map[string]any{"locked": result.Locked})
	}
	return true
}

func adminStatusLabel(s room.AdminStatus) string {
	switch s {
	case room.AdminStatusApplied:
		return "applied"
	case room.AdminStatusNotAuthorized:
		return "not_authorized"
	case room.AdminStatusNoSuchTarget:
		return "no_such_target"
	default:
		return "unknown"
	}
}
