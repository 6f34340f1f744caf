// Package export implements the versioned address interchange format.
// Documents are JSON, optionally wrapped in Base64. Version "1.0.0"
// nested a full authenticated-user record per address; version "2.0.0"
// is flat. Decoding sniffs the version before committing to a shape.
package export

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// Supported document versions.
const (
	VersionV1 = "1.0.0"
	VersionV2 = "2.0.0"
)

// ErrNotJSON reports Base64 input whose decoded payload is not a JSON
// document. It distinguishes "valid Base64 wrapping garbage" from "not
// Base64 at all" (which is treated as raw JSON) and from valid wrapped
// documents.
var ErrNotJSON = errors.New("data decodes as Base64 but not to a JSON document")

// documentV2 is the current export shape.
type documentV2 struct {
	Version    string      `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	Addresses  []addressV2 `json:"addresses"`
}

type addressV2 struct {
	AddressName string    `json:"addressName"`
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
}

// documentV1 is the legacy export shape: each entry nests the full
// authenticated-user record the app kept at the time.
type documentV1 struct {
	Version    string      `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	Addresses  []addressV1 `json:"addresses"`
}

type addressV1 struct {
	AddressName string `json:"addressName"`
	Token       string `json:"token"`
	Password    string `json:"password"`
	IsDisabled  bool   `json:"isDisabled"`
	Account     struct {
		ID        string    `json:"id"`
		Address   string    `json:"address"`
		Quota     int64     `json:"quota"`
		Used      int64     `json:"used"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"account"`
}

// Encode builds a current-version export document for the given
// addresses. Tokens are never exported; imports re-authenticate.
func Encode(addresses []model.Address) ([]byte, error) {
	doc := documentV2{
		Version:    VersionV2,
		ExportDate: time.Now().UTC(),
		Addresses:  make([]addressV2, 0, len(addresses)),
	}
	for _, addr := range addresses {
		doc.Addresses = append(doc.Addresses, addressV2{
			AddressName: addr.Name,
			ID:          addr.ID,
			Email:       addr.Email,
			Password:    addr.Password,
			Archived:    addr.Archived,
			CreatedAt:   addr.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export document: %w", err)
	}
	return data, nil
}

// EncodeBase64 builds an export document wrapped in standard Base64.
func EncodeBase64(addresses []model.Address) ([]byte, error) {
	data, err := Encode(addresses)
	if err != nil {
		return nil, err
	}
	return []byte(base64.StdEncoding.EncodeToString(data)), nil
}

// Decode parses an export document, transparently unwrapping Base64, and
// returns the contained addresses as import candidates. Three outcomes
// exist for the wrapping layer: input that is not Base64 is parsed as raw
// JSON; Base64 that decodes to something other than UTF-8 JSON fails with
// ErrNotJSON; Base64-wrapped JSON is unwrapped and parsed.
func Decode(data []byte) ([]model.Address, error) {
	payload := data
	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data))); err == nil {
		if !utf8.Valid(decoded) || !json.Valid(decoded) {
			return nil, ErrNotJSON
		}
		payload = decoded
	}

	var head struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fmt.Errorf("parsing export document: %w", err)
	}

	switch head.Version {
	case VersionV1:
		return decodeV1(payload)
	case VersionV2:
		return decodeV2(payload)
	case "":
		return nil, errors.New("export document has no version field")
	default:
		return nil, fmt.Errorf("unsupported export version %q", head.Version)
	}
}

func decodeV2(payload []byte) ([]model.Address, error) {
	var doc documentV2
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parsing v2 export document: %w", err)
	}

	addrs := make([]model.Address, 0, len(doc.Addresses))
	for _, a := range doc.Addresses {
		addrs = append(addrs, model.Address{
			ID:        a.ID,
			Name:      a.AddressName,
			Email:     a.Email,
			Password:  a.Password,
			Archived:  a.Archived,
			CreatedAt: a.CreatedAt,
		})
	}
	return addrs, nil
}

func decodeV1(payload []byte) ([]model.Address, error) {
	var doc documentV1
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parsing v1 export document: %w", err)
	}

	addrs := make([]model.Address, 0, len(doc.Addresses))
	for _, a := range doc.Addresses {
		addrs = append(addrs, model.Address{
			ID:         a.Account.ID,
			Name:       a.AddressName,
			Email:      a.Account.Address,
			Password:   a.Password,
			Archived:   a.IsDisabled,
			QuotaBytes: a.Account.Quota,
			UsedBytes:  a.Account.Used,
			CreatedAt:  a.Account.CreatedAt,
		})
	}
	return addrs, nil
}
