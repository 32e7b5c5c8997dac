package oidc

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeJWT(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestInsecureVerifier(t *testing.T) {
	v := NewInsecureVerifier()
	tok, err := v.Verify(context.Background(), fakeJWT(`{"sub":"kc-1","email":"a@b.c"}`))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "kc-1", claims["sub"])
	require.Equal(t, "a@b.c", claims["email"])
}

func TestInsecureVerifier_Rejects(t *testing.T) {
	v := NewInsecureVerifier()
	for _, raw := range []string{"plain", fakeJWT(`{"email":"a@b.c"}`), "a.!!!.c"} {
		_, err := v.Verify(context.Background(), raw)
		require.Error(t, err, raw)
	}
}
