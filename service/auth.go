package service

import (
	"errors"
	"fmt"
	"time"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

var errInvalidCredentials = &dmn.Error{Kind: dmn.KindUnauthenticated, Code: "InvalidCredentials", Message: "invalid username or password"}

// Auth registers users, signs them in and resolves their access tokens.
type Auth struct {
	userRepo  i.UserRepo
	tokenizer i.Tokenizer
}

func NewAuthService(userRepo i.UserRepo, tokenizer i.Tokenizer) (*Auth, error) {
	if userRepo == nil || tokenizer == nil {
		return nil, errors.New("user repository and tokenizer are required")
	}
	return &Auth{userRepo: userRepo, tokenizer: tokenizer}, nil
}

func (a *Auth) Register(username, password string) error {
	if _, err := a.userRepo.ByUsername(username); err == nil {
		return dmn.ErrUsernameTaken
	}

	userConfig := dmn.UserConfig{
		ID:            uuid.New(),
		Username:      username,
		PlainPassword: password,
	}

	user, err := dmn.NewUser(userConfig)
	if err != nil {
		return &dmn.Error{Kind: dmn.KindValidation, Code: "InvalidUser", Message: err.Error()}
	}

	err = a.userRepo.Save(user)
	if err != nil {
		return err
	}

	return nil
}

func (a *Auth) SignIn(username, password string) (*dmn.User, string, error) {
	user, err := a.userRepo.ByUsername(username)
	if err != nil {
		return nil, "", errInvalidCredentials
	}

	if !user.VerifyPassword(password) {
		return nil, "", errInvalidCredentials
	}

	token, err := a.tokenizer.Generate(map[string]interface{}{
		"userID":   user.ID,
		"username": user.Username,
	}, tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	return user, token, nil
}

// Identify decodes a token and returns the user id and name it was issued for.
func (a *Auth) Identify(token string) (uuid.UUID, string, error) {
	claims, err := a.tokenizer.Decode(token)
	if err != nil {
		return uuid.Nil, "", dmn.ErrUnauthenticated
	}

	rawID, _ := claims["userID"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", dmn.ErrUnauthenticated
	}
	username, _ := claims["username"].(string)
	return userID, username, nil
}
