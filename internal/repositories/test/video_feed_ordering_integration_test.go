package repositories_test

import (
	"context"
	"testing"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func cardTitles(cards []vo.VideoCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Title)
	}
	return out
}

func TestTrendingKeysetTiesIntegration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(t)
	feed := repositories.NewVideoFeedRepository(pool, testLogger)
	views := repositories.NewViewRepository(pool, testLogger)

	owner := seedUser(ctx, t, pool, "user_trending_owner")
	viewers := []*po.User{
		seedUser(ctx, t, pool, "user_trending_a"),
		seedUser(ctx, t, pool, "user_trending_b"),
	}

	// 观看人数：hot=2，其余三个并列 1，cold=0；私有视频不参与排行。
	hot := seedVideo(ctx, t, pool, owner.ID, "hot", po.VisibilityPublic, nil)
	tied := []*po.Video{
		seedVideo(ctx, t, pool, owner.ID, "tie-1", po.VisibilityPublic, nil),
		seedVideo(ctx, t, pool, owner.ID, "tie-2", po.VisibilityPublic, nil),
		seedVideo(ctx, t, pool, owner.ID, "tie-3", po.VisibilityPublic, nil),
	}
	seedVideo(ctx, t, pool, owner.ID, "cold", po.VisibilityPublic, nil)
	hidden := seedVideo(ctx, t, pool, owner.ID, "hidden", po.VisibilityPrivate, nil)

	for _, v := range viewers {
		_, err := views.Upsert(ctx, nil, v.ID, hot.ID)
		require.NoError(t, err)
		_, err = views.Upsert(ctx, nil, v.ID, hidden.ID)
		require.NoError(t, err)
	}
	for _, v := range tied {
		_, err := views.Upsert(ctx, nil, viewers[0].ID, v.ID)
		require.NoError(t, err)
	}

	full, err := feed.ListTrending(ctx, nil, repositories.TrendingQuery{Limit: pagination.MaxLimit})
	require.NoError(t, err)
	require.False(t, full.HasMore())
	require.Len(t, full.Items, 5)
	require.Equal(t, "hot", full.Items[0].Title)
	require.Equal(t, "cold", full.Items[4].Title)
	for i := 1; i < 3; i++ {
		// 并列观看数按 id 倒序。
		require.Equal(t, int64(1), full.Items[i].Stats.ViewCount)
		require.Greater(t, full.Items[i].ID.String(), full.Items[i+1].ID.String())
	}

	for _, limit := range []int{1, 2, 3} {
		var (
			walked []uuid.UUID
			cursor *pagination.Cursor[int64]
		)
		for range 10 {
			page, err := feed.ListTrending(ctx, nil, repositories.TrendingQuery{Cursor: cursor, Limit: limit})
			require.NoError(t, err)
			require.LessOrEqual(t, len(page.Items), limit)
			for _, item := range page.Items {
				walked = append(walked, item.ID)
			}
			if !page.HasMore() {
				break
			}
			require.Equal(t, page.Items[len(page.Items)-1].Stats.ViewCount, page.NextCursor.Key)
			cursor = page.NextCursor
		}

		want := make([]uuid.UUID, 0, len(full.Items))
		for _, item := range full.Items {
			want = append(want, item.ID)
		}
		require.Equalf(t, want, walked, "limit=%d", limit)
	}
}

func TestActivityFeedsArePublicOnlyIntegration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(t)
	feed := repositories.NewVideoFeedRepository(pool, testLogger)
	views := repositories.NewViewRepository(pool, testLogger)
	reactions := repositories.NewReactionRepository(pool, testLogger)

	owner := seedUser(ctx, t, pool, "user_activity_owner")
	shown := seedVideo(ctx, t, pool, owner.ID, "Shown", po.VisibilityPublic, nil)
	own := seedVideo(ctx, t, pool, owner.ID, "Own private", po.VisibilityPrivate, nil)

	for _, v := range []*po.Video{shown, own} {
		_, err := views.Upsert(ctx, nil, owner.ID, v.ID)
		require.NoError(t, err)
		_, err = reactions.Upsert(ctx, nil, repositories.VideoReactions, owner.ID, v.ID, po.ReactionLike)
		require.NoError(t, err)
	}

	history, err := feed.ListHistory(ctx, nil, repositories.ActivityQuery{UserID: owner.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	require.Equal(t, shown.ID, history.Items[0].ID)

	liked, err := feed.ListLiked(ctx, nil, repositories.ActivityQuery{UserID: owner.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, liked.Items, 1)
	require.Equal(t, shown.ID, liked.Items[0].ID)
}

func TestVideoQueryServiceFeedVisibilityIntegration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(t)
	categories := repositories.NewCategoryRepository(pool, testLogger)
	_, err := categories.InsertMany(ctx, nil, []repositories.SeedCategory{{Name: "Travel", Description: "Videos related to travel"}})
	require.NoError(t, err)
	cats, err := categories.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	travel := cats[0].ID

	owner := seedUser(ctx, t, pool, "user_feed_owner")
	stranger := seedUser(ctx, t, pool, "user_feed_stranger")
	anchor := seedVideo(ctx, t, pool, owner.ID, "Lisbon", po.VisibilityPublic, &travel)
	seedVideo(ctx, t, pool, owner.ID, "Porto draft", po.VisibilityPrivate, &travel)
	seedVideo(ctx, t, pool, owner.ID, "Madeira", po.VisibilityPublic, &travel)

	svc := services.NewVideoQueryService(
		repositories.NewVideoRepository(pool, testLogger),
		repositories.NewVideoFeedRepository(pool, testLogger),
		testLogger,
	)

	// 只按分类筛选、不指定作者时，所有者依然能看到自己的私有视频。
	page, err := svc.GetMany(ctx, services.FeedInput{CategoryID: &travel, Viewer: &owner.ID, Limit: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Lisbon", "Porto draft", "Madeira"}, cardTitles(page.Items))

	page, err = svc.GetMany(ctx, services.FeedInput{CategoryID: &travel, Viewer: &stranger.ID, Limit: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Lisbon", "Madeira"}, cardTitles(page.Items))

	page, err = svc.GetMany(ctx, services.FeedInput{CategoryID: &travel, Limit: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Lisbon", "Madeira"}, cardTitles(page.Items))

	suggested, err := svc.Suggestions(ctx, anchor.ID, &owner.ID, nil, 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Porto draft", "Madeira"}, cardTitles(suggested.Items))

	suggested, err = svc.Suggestions(ctx, anchor.ID, nil, nil, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"Madeira"}, cardTitles(suggested.Items))
}
