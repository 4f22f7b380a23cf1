package http

import (
	"net/http"
	"strconv"

	"pitstop/pkg/config"
	apperrors "pitstop/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
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

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// UserID extracts the authenticated user identity forwarded by the platform
// edge. Authentication itself happens upstream; an empty value means the
// request is anonymous.
func UserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
