package http

import (
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// ExtractLimitOffset reads limit and offset query parameters and clamps them
// to the configured pagination bounds.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit, err := queryInt(query.Get("limit"), "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(query.Get("offset"), "offset")
	if err != nil {
		return 0, 0, err
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(int64(offset)), nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	return v, nil
}

// DecodeJSON reads the request body into v. A body cut off by the request
// size limit is reported as PayloadTooLarge, anything else unreadable as
// InvalidInput.
func DecodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.PayloadTooLarge(tooLarge.Limit)
	}
	return apperrors.InvalidInput("Invalid request body")
}
