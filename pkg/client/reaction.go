package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Reaction 为点赞/点踩状态，空串表示未互动。
type Reaction string

const (
	ReactionNone    Reaction = ""
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// ReactionValue 为一个互动按钮展示所需的全部数据。
type ReactionValue struct {
	Reaction Reaction
	Likes    int64
	Dislikes int64
}

// Toggle 计算一次点击后的值：再次点击当前状态则取消，点击另一状态则切换。
func Toggle(v ReactionValue, action Reaction) ReactionValue {
	if v.Reaction == action {
		return withReaction(v, ReactionNone)
	}
	return withReaction(v, action)
}

// withReaction 把 v 的计数从原状态迁移到 target。
func withReaction(v ReactionValue, target Reaction) ReactionValue {
	switch v.Reaction {
	case ReactionLike:
		v.Likes = max(v.Likes-1, 0)
	case ReactionDislike:
		v.Dislikes = max(v.Dislikes-1, 0)
	}
	switch target {
	case ReactionLike:
		v.Likes++
	case ReactionDislike:
		v.Dislikes++
	}
	v.Reaction = target
	return v
}

// Phase 为对账状态机的阶段。
type Phase int

const (
	PhaseSynced Phase = iota
	PhasePending
	PhaseReverting
)

func (p Phase) String() string {
	switch p {
	case PhaseSynced:
		return "synced"
	case PhasePending:
		return "pending"
	case PhaseReverting:
		return "reverting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrReactionPending 表示上一次操作尚未完成。
var ErrReactionPending = errors.New("client: reaction already pending")

// ReactionState 为不可变的对账状态：Synced(server)、Pending(server, optimistic) 与 Reverting。
type ReactionState struct {
	phase      Phase
	server     ReactionValue
	optimistic ReactionValue
	err        error
}

// NewReactionState 以服务端确认的值构造 Synced 状态。
func NewReactionState(server ReactionValue) ReactionState {
	return ReactionState{phase: PhaseSynced, server: server}
}

// Phase 返回当前阶段。
func (s ReactionState) Phase() Phase { return s.phase }

// Server 返回最近一次服务端确认的值。
func (s ReactionState) Server() ReactionValue { return s.server }

// Err 返回 Reverting 阶段的失败原因。
func (s ReactionState) Err() error { return s.err }

// View 返回应当展示的值：Pending 时为乐观值，其余为服务端值。
func (s ReactionState) View() ReactionValue {
	if s.phase == PhasePending {
		return s.optimistic
	}
	return s.server
}

// Mutate 进入 Pending，乐观值基于服务端快照计算。
func (s ReactionState) Mutate(action Reaction) (ReactionState, error) {
	if action != ReactionLike && action != ReactionDislike {
		return s, fmt.Errorf("client: invalid reaction %q", action)
	}
	if s.phase != PhaseSynced {
		return s, ErrReactionPending
	}
	return ReactionState{phase: PhasePending, server: s.server, optimistic: Toggle(s.server, action)}, nil
}

// Succeed 以服务端返回的最新值回到 Synced。
func (s ReactionState) Succeed(latest ReactionValue) ReactionState {
	return NewReactionState(latest)
}

// Fail 丢弃乐观值进入 Reverting，展示值回到操作前的服务端快照。
func (s ReactionState) Fail(err error) ReactionState {
	return ReactionState{phase: PhaseReverting, server: s.server, err: err}
}

// Settle 结束 Reverting，回到 Synced(server)。
func (s ReactionState) Settle() ReactionState {
	if s.phase != PhaseReverting {
		return s
	}
	return NewReactionState(s.server)
}

// Sender 把一次点击发送到服务端，返回服务端确认的状态。
type Sender func(ctx context.Context, action Reaction) (ReactionResult, error)

// VideoSender 返回对视频互动的 Sender。
func VideoSender(c *Client, videoID uuid.UUID) Sender {
	return func(ctx context.Context, action Reaction) (ReactionResult, error) {
		if action == ReactionDislike {
			return c.DislikeVideo(ctx, videoID)
		}
		return c.LikeVideo(ctx, videoID)
	}
}

// CommentSender 返回对评论互动的 Sender。
func CommentSender(c *Client, commentID uuid.UUID) Sender {
	return func(ctx context.Context, action Reaction) (ReactionResult, error) {
		if action == ReactionDislike {
			return c.DislikeComment(ctx, commentID)
		}
		return c.LikeComment(ctx, commentID)
	}
}

// Reconciler 驱动单个互动按钮的状态机，并在每次状态变化时通知 onChange。
// 回滚总是回到操作前的服务端快照，快速连点时后一次点击会被 ErrReactionPending 拒绝。
type Reconciler struct {
	mu       sync.Mutex
	state    ReactionState
	send     Sender
	onChange func(ReactionState)
}

// NewReconciler 构造 Reconciler。onChange 可为 nil。
func NewReconciler(initial ReactionValue, send Sender, onChange func(ReactionState)) *Reconciler {
	return &Reconciler{state: NewReactionState(initial), send: send, onChange: onChange}
}

// State 返回当前状态快照。
func (r *Reconciler) State() ReactionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// React 执行一次点击：Pending，发送，然后 Synced(latest) 或经 Reverting 回到 Synced(server)。
func (r *Reconciler) React(ctx context.Context, action Reaction) (ReactionValue, error) {
	r.mu.Lock()
	next, err := r.state.Mutate(action)
	if err != nil {
		r.mu.Unlock()
		return r.state.View(), err
	}
	r.transition(next)
	r.mu.Unlock()

	res, sendErr := r.send(ctx, action)

	r.mu.Lock()
	defer r.mu.Unlock()
	if sendErr != nil {
		r.transition(r.state.Fail(sendErr))
		r.transition(r.state.Settle())
		return r.state.View(), sendErr
	}
	confirmed := ReactionNone
	if res.Reaction != nil {
		confirmed = Reaction(*res.Reaction)
	}
	r.transition(r.state.Succeed(withReaction(r.state.server, confirmed)))
	return r.state.View(), nil
}

func (r *Reconciler) transition(next ReactionState) {
	r.state = next
	if r.onChange != nil {
		r.onChange(next)
	}
}
