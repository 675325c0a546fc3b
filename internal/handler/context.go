package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

type ContextKey string

var (
	ClaimsCtxKey ContextKey = "claims"
	ViewerCtxKey ContextKey = "viewer"
	UserInfoCtx  ContextKey = "userInfo"
)

func viewerFromRequest(r *http.Request) domain.Viewer {
	return r.Context().Value(ViewerCtxKey).(domain.Viewer)
}
