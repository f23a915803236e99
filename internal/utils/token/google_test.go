package token

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func stubVerifier(payload *idtoken.Payload, err error) (*GoogleVerifier, *string) {
	var audience string
	v := NewGoogleVerifier("client-123.apps.googleusercontent.com")
	v.validate = func(ctx context.Context, idToken, aud string) (*idtoken.Payload, error) {
		audience = aud
		return payload, err
	}
	return v, &audience
}

func TestGoogleVerifier_Verify(t *testing.T) {
	v, audience := stubVerifier(&idtoken.Payload{
		Subject: "1089",
		Claims: map[string]interface{}{
			"email":          "Grace@Example.com",
			"email_verified": true,
			"given_name":     "Grace",
			"family_name":    "Hopper",
			"name":           "Grace Hopper",
		},
	}, nil)

	id, err := v.Verify(context.Background(), "header.payload.sig")
	require.NoError(t, err)
	assert.Equal(t, "client-123.apps.googleusercontent.com", *audience)
	assert.Equal(t, "grace@example.com", id.Email)
	assert.Equal(t, "Grace", id.GivenName)
	assert.Equal(t, "Hopper", id.FamilyName)
	assert.Equal(t, "1089", id.Subject)
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload *idtoken.Payload
		err     error
		want    error
	}{
		{name: "bad signature", err: errors.New("idtoken: invalid token"), want: ErrInvalidToken},
		{name: "no email", payload: &idtoken.Payload{Claims: map[string]interface{}{"email_verified": true}}, want: ErrInvalidToken},
		{name: "unverified", payload: &idtoken.Payload{Claims: map[string]interface{}{"email": "a@b.co", "email_verified": false}}, want: ErrUnverifiedEmail},
		{name: "verified missing", payload: &idtoken.Payload{Claims: map[string]interface{}{"email": "a@b.co"}}, want: ErrUnverifiedEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := stubVerifier(tt.payload, tt.err)
			_, err := v.Verify(context.Background(), "tok")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	v, _ := stubVerifier(nil, nil)
	_, err := v.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
