package service

import (
	"testing"
	"time"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/infrastruture/repo/memory"
	"github.com/beka-birhanu/profesores-api/infrastruture/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	users := memory.New().Users()
	tokenizer := token.NewJwtService("test-secret", "profesores")
	auth, err := NewAuthService(users, tokenizer)
	require.NoError(t, err)

	const password = "correct-horse-battery-staple"

	t.Run("register and sign in", func(t *testing.T) {
		require.NoError(t, auth.Register("ana_maria", password))

		user, tok, err := auth.SignIn("ana_maria", password)
		require.NoError(t, err)
		assert.Equal(t, "ana_maria", user.Username)
		assert.NotEmpty(t, tok)

		id, name, err := auth.Identify(tok)
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
		assert.Equal(t, "ana_maria", name)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := auth.Register("ana_maria", password)
		assert.ErrorIs(t, err, dmn.ErrUsernameTaken)
	})

	t.Run("weak password", func(t *testing.T) {
		err := auth.Register("bob", "123")
		require.Error(t, err)
		assert.Equal(t, dmn.KindValidation, dmn.KindOf(err))
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, _, err := auth.SignIn("ana_maria", "nope")
		assert.Equal(t, dmn.KindUnauthenticated, dmn.KindOf(err))

		_, _, err = auth.SignIn("nobody", password)
		assert.Equal(t, dmn.KindUnauthenticated, dmn.KindOf(err))
	})

	t.Run("tokens that identify nobody", func(t *testing.T) {
		_, _, err := auth.Identify("garbage")
		assert.ErrorIs(t, err, dmn.ErrUnauthenticated)

		tok, err := tokenizer.Generate(map[string]interface{}{"userID": "not-a-uuid"}, time.Minute)
		require.NoError(t, err)
		_, _, err = auth.Identify(tok)
		assert.ErrorIs(t, err, dmn.ErrUnauthenticated)
	})
}
