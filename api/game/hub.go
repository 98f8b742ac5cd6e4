package gameapi

import (
	"net/http"

	"github.com/beka-birhanu/profesores-api/api/httputil"
	"github.com/beka-birhanu/profesores-api/api/identity"
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConnServer runs a real-time connection for an authenticated user.
type ConnServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error
}

// HubController upgrades authenticated requests to game hub connections.
type HubController struct {
	server ConnServer
}

// NewHubController initializes a HubController.
func NewHubController(s ConnServer) (*HubController, error) {
	return &HubController{server: s}, nil
}

// RegisterPublic registers public routes.
func (hc *HubController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (hc *HubController) RegisterProtected(route *gin.RouterGroup) {
	route.GET("/hubs/game", hc.connect)
}

func (hc *HubController) connect(ctx *gin.Context) {
	userID, ok := identity.UserID(ctx)
	if !ok {
		httputil.AbortWithError(ctx, dmn.ErrUnauthenticated)
		return
	}

	// The connection owns the response from here on.
	if err := hc.server.Serve(ctx.Writer, ctx.Request, userID); err != nil {
		_ = ctx.Error(err)
	}
	ctx.Abort()
}
