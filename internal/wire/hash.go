package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

// Domain prefixes for content identity.
// The version suffix leaves room to change the encoding later.
const (
	DomainDataModel   = "oefquery/datamodel/v1"
	DomainDescription = "oefquery/description/v1"
	DomainQuery       = "oefquery/query/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps domain and data from running into each other.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DataModelID is the content identity of a data model.
func DataModelID(m *schema.DataModel) (string, error) {
	b, err := EncodeDataModel(m)
	if err != nil {
		return "", fmt.Errorf("DataModelID: %w", err)
	}
	return hashWithDomain(DomainDataModel, b), nil
}

// DescriptionID is the content identity of a description. Two descriptions
// with the same pairs in a different order have different ids.
func DescriptionID(d *schema.Description) (string, error) {
	b, err := EncodeDescription(d)
	if err != nil {
		return "", fmt.Errorf("DescriptionID: %w", err)
	}
	return hashWithDomain(DomainDescription, b), nil
}

// QueryID is the content identity of a query. The directory keys its
// decoded-query cache by it.
func QueryID(q *query.Query) (string, error) {
	b, err := EncodeQuery(q)
	if err != nil {
		return "", fmt.Errorf("QueryID: %w", err)
	}
	return hashWithDomain(DomainQuery, b), nil
}

// QueryIDBytes is QueryID for an already encoded query.
func QueryIDBytes(b []byte) string {
	return hashWithDomain(DomainQuery, b)
}

// DescriptionIDBytes is DescriptionID for an already encoded description.
func DescriptionIDBytes(b []byte) string {
	return hashWithDomain(DomainDescription, b)
}
