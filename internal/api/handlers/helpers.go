package handlers

import (
	"errors"
	"net/http"
	"pennypilot/internal/models"
	"pennypilot/pkg/utils"
	"reflect"
)

func CheckBlankFields(value interface{}) error {
	val := reflect.ValueOf(value)
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Kind() == reflect.String && field.String() == "" {
			return utils.ErrorHandler(errors.New("all fields are required"), "all fields are required")
		}
	}
	return nil
}

// UserIDFromContext reads the uid claim the JWT middleware stored on the
// request. JWT numeric claims decode as float64.
func UserIDFromContext(r *http.Request) (int, bool) {
	idFloat, ok := r.Context().Value(utils.ContextKey("userId")).(float64)
	if !ok {
		return 0, false
	}
	return int(idFloat), true
}

func EmailFromContext(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(utils.ContextKey("email")).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

func TierFromContext(r *http.Request) models.Tier {
	raw, ok := r.Context().Value(utils.ContextKey("tier")).(string)
	if !ok {
		return models.TierFree
	}
	tier, err := models.ParseTier(raw)
	if err != nil {
		return models.TierFree
	}
	return tier
}
