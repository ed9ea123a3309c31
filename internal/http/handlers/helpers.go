package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/esteira-backend/internal/platform/apierr"
	"github.com/yungbote/esteira-backend/internal/platform/ctxutil"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
)

func requestDBC(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest("invalid_"+name, fmt.Errorf("invalid %s", name))
	}
	return id, nil
}

func requireActor(c *gin.Context) (uuid.UUID, error) {
	id := ctxutil.ActorID(c.Request.Context())
	if id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest("missing_actor", fmt.Errorf("X-User-Id header required"))
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.BadRequest("invalid_"+name, fmt.Errorf("%s must be an integer", name))
	}
	return n, nil
}

func queryFloat(c *gin.Context, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierr.BadRequest("invalid_"+name, fmt.Errorf("%s must be a number", name))
	}
	return f, nil
}

func bindErr(err error) error {
	return apierr.BadRequest("invalid_body", err)
}
