package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beka-birhanu/profesores-api/api/httputil"
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/gin-gonic/gin"
)

// AccountController signs players up, hands out their access tokens and tells a client
// whose token it holds.
type AccountController struct {
	accounts i.Authenticator
}

// NewAccountController initializes an AccountController.
func NewAccountController(a i.Authenticator) (*AccountController, error) {
	if a == nil {
		return nil, errors.New("authenticator is required")
	}
	return &AccountController{accounts: a}, nil
}

// RegisterPublic registers public routes.
func (ac *AccountController) RegisterPublic(route *gin.RouterGroup) {
	auth := route.Group("/auth")
	{
		auth.POST("/register", ac.signUp)
		auth.POST("/login", ac.signIn)
	}
}

// RegisterProtected registers protected routes.
func (ac *AccountController) RegisterProtected(route *gin.RouterGroup) {
	route.GET("/auth/me", ac.whoAmI)
}

// signUp creates the account and signs it in, so a new player can open a room right away.
func (ac *AccountController) signUp(ctx *gin.Context) {
	creds, ok := credentials(ctx)
	if !ok {
		return
	}

	if err := ac.accounts.Register(creds.Username, creds.Password); err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ac.issue(ctx, creds, http.StatusCreated)
}

func (ac *AccountController) signIn(ctx *gin.Context) {
	creds, ok := credentials(ctx)
	if !ok {
		return
	}
	ac.issue(ctx, creds, http.StatusOK)
}

func (ac *AccountController) issue(ctx *gin.Context, creds *AuthRequest, status int) {
	user, token, err := ac.accounts.SignIn(creds.Username, creds.Password)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(status, &AuthResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Token:    token,
	})
}

func (ac *AccountController) whoAmI(ctx *gin.Context) {
	userID, ok := UserID(ctx)
	if !ok {
		httputil.AbortWithError(ctx, dmn.ErrUnauthenticated)
		return
	}
	ctx.JSON(http.StatusOK, &Account{ID: userID.String(), Username: Username(ctx)})
}

// credentials binds the JSON body, writing 400 when it is malformed.
func credentials(ctx *gin.Context) (*AuthRequest, bool) {
	var request AuthRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	request.Username = strings.TrimSpace(request.Username)
	if request.Username == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return nil, false
	}
	return &request, true
}
