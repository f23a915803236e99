package token

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/api/idtoken"
)

var ErrUnverifiedEmail = errors.New("google account email is not verified")

// GoogleIdentity is the part of a verified Google ID token the service keeps.
type GoogleIdentity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Name       string
	Picture    string
}

// GoogleVerifier checks Google ID tokens issued to this app's OAuth client.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func ReadGoogleClientID() string {
	return viper.GetString("auth.google_client_id")
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify validates signature, issuer, audience and expiry, then requires a verified email.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrInvalidToken
	}
	payload, err := v.validate(ctx, credential, v.clientID)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claim := func(key string) string {
		s, _ := payload.Claims[key].(string)
		return strings.TrimSpace(s)
	}
	id := &GoogleIdentity{
		Subject:    payload.Subject,
		Email:      strings.ToLower(claim("email")),
		GivenName:  claim("given_name"),
		FamilyName: claim("family_name"),
		Name:       claim("name"),
		Picture:    claim("picture"),
	}
	if id.Email == "" {
		return nil, ErrInvalidToken
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return nil, ErrUnverifiedEmail
	}
	return id, nil
}
