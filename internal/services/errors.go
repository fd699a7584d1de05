package services

import (
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

// RPC 错误码，作为 kratos Error 的 Reason 返回给客户端。
const (
	ReasonUnauthorized    = "UNAUTHORIZED"
	ReasonNotFound        = "NOT_FOUND"
	ReasonBadRequest      = "BAD_REQUEST"
	ReasonConflict        = "CONFLICT"
	ReasonTooManyRequests = "TOO_MANY_REQUESTS"
	ReasonInternal        = "INTERNAL_SERVER_ERROR"
)

var (
	// ErrUnauthorized 表示调用方未登录或本地用户不存在。
	ErrUnauthorized = errors.Unauthorized(ReasonUnauthorized, "Unauthorized!")
	// ErrTooManyRequests 表示调用方触发限流。
	ErrTooManyRequests = errors.New(http.StatusTooManyRequests, ReasonTooManyRequests, "Too many requests!")
	// ErrVideoNotFound 表示视频不存在或不可见。
	ErrVideoNotFound = errors.NotFound(ReasonNotFound, "Video not found!")
	// ErrUserNotFound 表示用户不存在。
	ErrUserNotFound = errors.NotFound(ReasonNotFound, "User not found!")
	// ErrCommentNotFound 表示评论不存在。
	ErrCommentNotFound = errors.NotFound(ReasonNotFound, "Comment not found!")
	// ErrPlaylistNotFound 表示播放列表不存在或不属于调用方。
	ErrPlaylistNotFound = errors.NotFound(ReasonNotFound, "Playlist not found!")
	// ErrPlaylistVideoNotFound 表示视频不在播放列表中。
	ErrPlaylistVideoNotFound = errors.NotFound(ReasonNotFound, "Video not found in playlist!")
	// ErrPlaylistVideoExists 表示视频已在播放列表中。
	ErrPlaylistVideoExists = errors.Conflict(ReasonConflict, "Video already added to playlist!")
	// ErrCategoryNotFound 表示分类不存在。
	ErrCategoryNotFound = errors.BadRequest(ReasonBadRequest, "Category not found!")
	// ErrFileTooLarge 表示上传文件超过大小上限。
	ErrFileTooLarge = errors.BadRequest(ReasonBadRequest, "File is too large!")
	// ErrMissingFile 表示上传请求中没有文件。
	ErrMissingFile = errors.BadRequest(ReasonBadRequest, "No file uploaded!")
)

func badRequest(msg string) *errors.Error {
	return errors.BadRequest(ReasonBadRequest, msg)
}

func internalError(msg string, cause error) *errors.Error {
	return errors.InternalServer(ReasonInternal, msg).WithCause(cause)
}
