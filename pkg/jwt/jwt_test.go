package jwt

import "testing"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "nguyenvana", "user")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserId != 42 || claims.Username != "nguyenvana" || claims.Role != "user" {
		t.Errorf("claims mismatch: %+v", claims)
	}
	if claims.Issuer != "shopvn" {
		t.Errorf("issuer = %s", claims.Issuer)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(1, "admin", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	SetSecret("another_secret")
	defer SetSecret("shopvn_dev_secret")

	if _, err := ParseToken(token); err == nil {
		t.Fatal("token signed with old secret should not parse")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage token should not parse")
	}
}
