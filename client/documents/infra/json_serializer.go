package infra

import (
	"encoding/json"
	"fmt"

	"document-gateway/client/documents/domain"
)

// signedDocument é o envelope enviado ao endpoint.
type signedDocument struct {
	Document  any    `json:"document"`
	Signature string `json:"sign"`
}

// JSONSerializer produz {"document": ..., "sign": "..."}.
type JSONSerializer struct{}

var _ domain.Serializer = JSONSerializer{}

func (JSONSerializer) Serialize(document any, signature string) ([]byte, error) {
	b, err := json.Marshal(signedDocument{Document: document, Signature: signature})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	return b, nil
}
