package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	// empty list allows everything (local development)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	logrus.WithField("origins", allowedOrigins).Info("CORS configured")

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
