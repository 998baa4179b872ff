package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
)

func BenchmarkHandleCreateRating(b *testing.B) {
	srv := buildTestServer(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId": fmt.Sprintf("bench-%d", i),
		})
		signed, err := token.SignedString([]byte(testJWTSecret))
		if err != nil {
			b.Fatalf("sign token: %v", err)
		}

		body := []byte(`{"ownerId":"owner-bench","score":4,"comment":"bench"}`)
		rec := doRequest(srv, http.MethodPost, "/owner-ratings", "Bearer "+signed, body)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
