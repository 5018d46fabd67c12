package router

import (
	"fmt"
	"net/http"
	"testing"

	"gatehouse/internal/auth"
)

func TestRequireAuthAnonymous(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user/self"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/balance"},
		{http.MethodGet, "/api/admin/announcements"},
	}
	for _, p := range paths {
		rr := app.do(t, reqSpec{method: p.method, path: p.path})
		wantError(t, rr, http.StatusUnauthorized, msgUnauthenticated)
	}
}

func TestAdminOnlyRoutesRejectUserRole(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)
	uid := app.createUser(t, "u@example.com", "u1", "password1", "user")
	cookie := app.mintCookie(t, uid, "u@example.com", auth.RoleUser)

	paths := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/users", ""},
		{http.MethodGet, "/api/admin/announcements", ""},
		{http.MethodPost, "/api/admin/announcements", `{"title":"t","body":"b","status":1}`},
		{http.MethodPost, fmt.Sprintf("/api/admin/users/%d/balance", uid), `{"delta":"1"}`},
	}
	for _, p := range paths {
		rr := app.do(t, reqSpec{method: p.method, path: p.path, body: p.body, cookie: cookie})
		wantError(t, rr, http.StatusForbidden, msgForbidden)
	}
}

func TestSelfOrAdminOwnership(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)
	adminID := app.createUser(t, "root@example.com", "root", "password1", "admin")
	uid := app.createUser(t, "u@example.com", "u1", "password1", "user")
	otherID := app.createUser(t, "v@example.com", "v1", "password1", "user")
	userCookie := app.mintCookie(t, uid, "u@example.com", auth.RoleUser)
	adminCookie := app.mintCookie(t, adminID, "root@example.com", auth.RoleAdmin)

	// 普通用户读/写别人的资料 → 403。
	rr := app.do(t, reqSpec{method: http.MethodGet, path: fmt.Sprintf("/api/users/%d", otherID), cookie: userCookie})
	wantError(t, rr, http.StatusForbidden, msgForbidden)
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", otherID),
		body:   `{"username":"pwned"}`,
		cookie: userCookie,
	})
	wantError(t, rr, http.StatusForbidden, msgForbidden)
	rr = app.do(t, reqSpec{method: http.MethodDelete, path: fmt.Sprintf("/api/users/%d", otherID), cookie: userCookie})
	wantError(t, rr, http.StatusForbidden, msgForbidden)

	// 本人可以读写自己。
	rr = app.do(t, reqSpec{method: http.MethodGet, path: fmt.Sprintf("/api/users/%d", uid), cookie: userCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("self get status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", uid),
		body:   `{"username":"renamed"}`,
		cookie: userCookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("self update status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	got := decodeJSON(t, rr)
	u, _ := got["user"].(map[string]any)
	if u["username"] != "renamed" {
		t.Fatalf("username = %v, want renamed", u["username"])
	}

	// 管理员可以操作任何人。
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", otherID),
		body:   `{"username":"managed"}`,
		cookie: adminCookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin update status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	rr = app.do(t, reqSpec{method: http.MethodDelete, path: fmt.Sprintf("/api/users/%d", otherID), cookie: adminCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d（body=%s）", rr.Code, rr.Body.String())
	}
}

func TestRoleChangeRequiresAdmin(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)
	adminID := app.createUser(t, "root@example.com", "root", "password1", "admin")
	uid := app.createUser(t, "u@example.com", "u1", "password1", "user")
	userCookie := app.mintCookie(t, uid, "u@example.com", auth.RoleUser)
	adminCookie := app.mintCookie(t, adminID, "root@example.com", auth.RoleAdmin)

	// 普通用户改自己的 role 字段 → 403：属主检查不够，改角色需要管理员。
	rr := app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", uid),
		body:   `{"role":"admin"}`,
		cookie: userCookie,
	})
	wantError(t, rr, http.StatusForbidden, msgForbidden)

	// role 与现状相同时不算变更，属主即可通过。
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", uid),
		body:   `{"role":"user","username":"still-u1"}`,
		cookie: userCookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("no-op role status = %d（body=%s）", rr.Code, rr.Body.String())
	}

	// 管理员提升他人角色 → 200。
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", uid),
		body:   `{"role":"admin"}`,
		cookie: adminCookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin role change status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	got := decodeJSON(t, rr)
	u, _ := got["user"].(map[string]any)
	if u["role"] != "admin" {
		t.Fatalf("role = %v, want admin", u["role"])
	}
}

func TestPasswordChangeTakesEffectOnNextLogin(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)
	uid := app.createUser(t, "u@example.com", "u1", "oldpassword", "user")
	cookie := app.mintCookie(t, uid, "u@example.com", auth.RoleUser)

	rr := app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", uid),
		body:   `{"password":"newpassword"}`,
		cookie: cookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("password change status = %d（body=%s）", rr.Code, rr.Body.String())
	}

	rr = app.do(t, reqSpec{
		method: http.MethodPost,
		path:   "/api/user/login",
		body:   `{"login":"u1","password":"oldpassword"}`,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("old password still accepted: status = %d", rr.Code)
	}
	rr = app.do(t, reqSpec{
		method: http.MethodPost,
		path:   "/api/user/login",
		body:   `{"login":"u1","password":"newpassword"}`,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("new password rejected: status = %d（body=%s）", rr.Code, rr.Body.String())
	}

	// 密码太短直接 400。
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/users/%d", uid),
		body:   `{"password":"short"}`,
		cookie: cookie,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("short password status = %d, want 400", rr.Code)
	}
}

func TestBalanceRoutes(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)
	adminID := app.createUser(t, "root@example.com", "root", "password1", "admin")
	uid := app.createUser(t, "u@example.com", "u1", "password1", "user")
	userCookie := app.mintCookie(t, uid, "u@example.com", auth.RoleUser)
	adminCookie := app.mintCookie(t, adminID, "root@example.com", auth.RoleAdmin)

	rr := app.do(t, reqSpec{method: http.MethodGet, path: "/api/balance", cookie: userCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("balance status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	if got := decodeJSON(t, rr); got["balance"] != "0" {
		t.Fatalf("initial balance = %v, want 0", got["balance"])
	}

	rr = app.do(t, reqSpec{
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/admin/users/%d/balance", uid),
		body:   `{"delta":"12.5"}`,
		cookie: adminCookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("adjust status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	if got := decodeJSON(t, rr); got["balance"] != "12.5" {
		t.Fatalf("adjusted balance = %v, want 12.5", got["balance"])
	}

	// 非法 delta 与不存在的用户。
	rr = app.do(t, reqSpec{
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/admin/users/%d/balance", uid),
		body:   `{"delta":"abc"}`,
		cookie: adminCookie,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad delta status = %d", rr.Code)
	}
	rr = app.do(t, reqSpec{
		method: http.MethodPost,
		path:   "/api/admin/users/999999/balance",
		body:   `{"delta":"1"}`,
		cookie: adminCookie,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing user status = %d", rr.Code)
	}
}

func TestAnnouncementVisibility(t *testing.T) {
	app := newTestApp(t, bigLimits(), nil)
	adminID := app.createUser(t, "root@example.com", "root", "password1", "admin")
	adminCookie := app.mintCookie(t, adminID, "root@example.com", auth.RoleAdmin)

	mk := func(title string, status int) int64 {
		t.Helper()
		rr := app.do(t, reqSpec{
			method: http.MethodPost,
			path:   "/api/admin/announcements",
			body:   fmt.Sprintf(`{"title":"%s","body":"b","status":%d}`, title, status),
			cookie: adminCookie,
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("create %q status = %d（body=%s）", title, rr.Code, rr.Body.String())
		}
		got := decodeJSON(t, rr)
		return int64(got["id"].(float64))
	}
	draftID := mk("draft", 0)
	mk("live", 1)

	// 公开列表只含已发布的。
	rr := app.do(t, reqSpec{method: http.MethodGet, path: "/api/announcements"})
	got := decodeJSON(t, rr)
	list, _ := got["announcements"].([]any)
	if len(list) != 1 {
		t.Fatalf("public list size = %d, want 1", len(list))
	}

	// 管理列表包含草稿。
	rr = app.do(t, reqSpec{method: http.MethodGet, path: "/api/admin/announcements", cookie: adminCookie})
	got = decodeJSON(t, rr)
	list, _ = got["announcements"].([]any)
	if len(list) != 2 {
		t.Fatalf("admin list size = %d, want 2", len(list))
	}

	// 发布草稿后对公众可见。
	rr = app.do(t, reqSpec{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/admin/announcements/%d", draftID),
		body:   `{"title":"draft","body":"b","status":1}`,
		cookie: adminCookie,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("publish status = %d（body=%s）", rr.Code, rr.Body.String())
	}
	rr = app.do(t, reqSpec{method: http.MethodGet, path: "/api/announcements"})
	got = decodeJSON(t, rr)
	list, _ = got["announcements"].([]any)
	if len(list) != 2 {
		t.Fatalf("public list after publish size = %d, want 2", len(list))
	}

	rr = app.do(t, reqSpec{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/announcements/%d", draftID), cookie: adminCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = app.do(t, reqSpec{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/announcements/%d", draftID), cookie: adminCookie})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("double delete status = %d", rr.Code)
	}
}
