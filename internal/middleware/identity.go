package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxTeacherID = "teacher_id"
)

// UserID returns the authenticated account id, or zero for anonymous
// requests.
func UserID(c echo.Context) int64 {
	id, _ := c.Get(ctxUserID).(int64)
	return id
}

// Role returns the role of the authenticated account, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// TeacherID returns the teacher linked to the account, or zero.
func TeacherID(c echo.Context) int64 {
	id, _ := c.Get(ctxTeacherID).(int64)
	return id
}

// SetIdentity stores an identity in the context the way JWTAuth does.
// Tests use it to call handlers without a token.
func SetIdentity(c echo.Context, userID int64, role string, teacherID int64) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
	c.Set(ctxTeacherID, teacherID)
}

// subject identifies the caller in rate limit keys and logs.
func subject(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatInt(id, 10)
	}
	return "anon"
}
