package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sanidhyy/yt-clone/pkg/client"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	cases := []struct {
		name   string
		from   client.ReactionValue
		action client.Reaction
		want   client.ReactionValue
	}{
		{"like from none", client.ReactionValue{Likes: 2, Dislikes: 1}, client.ReactionLike, client.ReactionValue{Reaction: client.ReactionLike, Likes: 3, Dislikes: 1}},
		{"like again clears", client.ReactionValue{Reaction: client.ReactionLike, Likes: 3}, client.ReactionLike, client.ReactionValue{Likes: 2}},
		{"dislike flips like", client.ReactionValue{Reaction: client.ReactionLike, Likes: 1}, client.ReactionDislike, client.ReactionValue{Reaction: client.ReactionDislike, Dislikes: 1}},
		{"like flips dislike", client.ReactionValue{Reaction: client.ReactionDislike, Likes: 4, Dislikes: 2}, client.ReactionLike, client.ReactionValue{Reaction: client.ReactionLike, Likes: 5, Dislikes: 1}},
		{"counts never negative", client.ReactionValue{Reaction: client.ReactionDislike}, client.ReactionDislike, client.ReactionValue{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, client.Toggle(tc.from, tc.action))
		})
	}
}

func TestReactionState_Transitions(t *testing.T) {
	server := client.ReactionValue{Likes: 1}
	state := client.NewReactionState(server)
	require.Equal(t, client.PhaseSynced, state.Phase())

	pending, err := state.Mutate(client.ReactionLike)
	require.NoError(t, err)
	require.Equal(t, client.PhasePending, pending.Phase())
	require.Equal(t, client.ReactionValue{Reaction: client.ReactionLike, Likes: 2}, pending.View())
	require.Equal(t, server, pending.Server())

	_, err = pending.Mutate(client.ReactionDislike)
	require.ErrorIs(t, err, client.ErrReactionPending)

	boom := errors.New("boom")
	reverting := pending.Fail(boom)
	require.Equal(t, client.PhaseReverting, reverting.Phase())
	require.Equal(t, server, reverting.View())
	require.ErrorIs(t, reverting.Err(), boom)

	settled := reverting.Settle()
	require.Equal(t, client.PhaseSynced, settled.Phase())
	require.Equal(t, server, settled.View())

	latest := client.ReactionValue{Reaction: client.ReactionLike, Likes: 7}
	synced := pending.Succeed(latest)
	require.Equal(t, client.PhaseSynced, synced.Phase())
	require.Equal(t, latest, synced.View())

	_, err = state.Mutate(client.ReactionNone)
	require.Error(t, err)
}

func TestReconciler_SuccessRebasesOnServerReaction(t *testing.T) {
	var phases []client.Phase
	var sawOptimistic client.ReactionValue
	send := func(_ context.Context, action client.Reaction) (client.ReactionResult, error) {
		require.Equal(t, client.ReactionDislike, action)
		// 服务端已被其他会话改为点踩，本次点踩后变为未互动
		return client.ReactionResult{TargetID: uuid.New()}, nil
	}
	r := client.NewReconciler(client.ReactionValue{Reaction: client.ReactionLike, Likes: 5, Dislikes: 2}, send, func(s client.ReactionState) {
		phases = append(phases, s.Phase())
		if s.Phase() == client.PhasePending {
			sawOptimistic = s.View()
		}
	})

	got, err := r.React(context.Background(), client.ReactionDislike)
	require.NoError(t, err)
	require.Equal(t, []client.Phase{client.PhasePending, client.PhaseSynced}, phases)
	require.Equal(t, client.ReactionValue{Reaction: client.ReactionDislike, Likes: 4, Dislikes: 3}, sawOptimistic)
	require.Equal(t, client.ReactionValue{Likes: 4, Dislikes: 2}, got)
	require.Equal(t, got, r.State().View())
}

func TestReconciler_ErrorRevertsToServerSnapshot(t *testing.T) {
	var phases []client.Phase
	boom := errors.New("network down")
	initial := client.ReactionValue{Likes: 10}
	r := client.NewReconciler(initial, func(context.Context, client.Reaction) (client.ReactionResult, error) {
		return client.ReactionResult{}, boom
	}, func(s client.ReactionState) { phases = append(phases, s.Phase()) })

	got, err := r.React(context.Background(), client.ReactionLike)
	require.ErrorIs(t, err, boom)
	require.Equal(t, initial, got)
	require.Equal(t, []client.Phase{client.PhasePending, client.PhaseReverting, client.PhaseSynced}, phases)
	require.Equal(t, client.PhaseSynced, r.State().Phase())
}

func TestReconciler_RejectsClickWhilePending(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	like := "like"
	r := client.NewReconciler(client.ReactionValue{}, func(context.Context, client.Reaction) (client.ReactionResult, error) {
		close(entered)
		<-release
		return client.ReactionResult{Reaction: &like}, nil
	}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.React(context.Background(), client.ReactionLike)
		done <- err
	}()
	<-entered

	view, err := r.React(context.Background(), client.ReactionLike)
	require.ErrorIs(t, err, client.ErrReactionPending)
	require.Equal(t, client.ReactionValue{Reaction: client.ReactionLike, Likes: 1}, view)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, client.ReactionValue{Reaction: client.ReactionLike, Likes: 1}, r.State().View())
}
