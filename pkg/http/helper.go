package http

import (
	"net/http"
	"strconv"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"
)

// ExtractLimitOffset reads limit/offset query parameters and clamps them.
func ExtractLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit, defaultLimit, maxLimit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractDate reads a YYYY-MM-DD query parameter. An absent optional parameter yields "".
func ExtractDate(r *http.Request, name string, required bool) (string, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		if required {
			return "", apperrors.InvalidInput("missing required query parameter: " + name)
		}
		return "", nil
	}
	if _, err := model.ParseDate(value); err != nil {
		return "", apperrors.InvalidInput("invalid " + name + " parameter, expected YYYY-MM-DD: " + value)
	}
	return value, nil
}

func ExtractBool(r *http.Request, name string) (bool, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, apperrors.InvalidInput("invalid " + name + " parameter: " + value)
	}
	return b, nil
}
