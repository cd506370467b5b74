// internal/repository/postgres/json.go
package postgres

import (
	"encoding/json"
	"fmt"

	"subdesk-service/internal/domain/catalog"
)

// Credential lists and prices persist as JSONB, matching the original data
// which kept them JSON-encoded in text columns.

func marshalDetails(details []catalog.Credential) ([]byte, error) {
	if details == nil {
		details = []catalog.Credential{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal details: %w", err)
	}
	return data, nil
}

func unmarshalDetails(data []byte) ([]catalog.Credential, error) {
	details := []catalog.Credential{}
	if len(data) == 0 {
		return details, nil
	}
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal details: %w", err)
	}
	return details, nil
}

func marshalPrice(price catalog.Price) ([]byte, error) {
	data, err := json.Marshal(price)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal price: %w", err)
	}
	return data, nil
}

func unmarshalPrice(data []byte) (catalog.Price, error) {
	var price catalog.Price
	if len(data) == 0 {
		return price, nil
	}
	if err := json.Unmarshal(data, &price); err != nil {
		return price, fmt.Errorf("failed to unmarshal price: %w", err)
	}
	return price, nil
}
