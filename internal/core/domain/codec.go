package domain

import (
	"encoding/json"
	"fmt"
)

func encodePayload(tag string, evt any) (string, []byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	return tag, payload, nil
}

func decodePayload[T any](tag string, payload []byte) (T, error) {
	var evt T
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, fmt.Errorf("decode %s: %w", tag, err)
	}
	return evt, nil
}
