package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_RoundTrip(t *testing.T) {
	p := NewProvider(&Config{Secret: "s3cret", TTL: time.Hour})
	tok, exp, err := p.Generate("a@b.co")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	email, err := p.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", email)
}

func TestProvider_Rejects(t *testing.T) {
	p := NewProvider(&Config{Secret: "s3cret", TTL: time.Hour})
	tok, _, err := p.Generate("a@b.co")
	require.NoError(t, err)

	other := NewProvider(&Config{Secret: "other", TTL: time.Hour})
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("Passw0rd!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
