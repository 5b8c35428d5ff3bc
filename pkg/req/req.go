package req

import (
	"encoding/json"
	"errors"
	"io"
)

const maxBodySize = 1 << 20

// Decode - читает JSON тело запроса в T. Неизвестные поля - ошибка
func Decode[T any](body io.ReadCloser) (T, error) {
	var payload T
	if body == nil {
		return payload, errors.New("empty request body")
	}
	defer body.Close()

	dec := json.NewDecoder(io.LimitReader(body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}
