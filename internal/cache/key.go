package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key derives the record key of a logical request. Parameter order does not
// matter: the request is serialized with sorted keys before hashing.
func Key(endpoint string, params map[string]string) string {
	canonical, err := json.Marshal(struct {
		Endpoint string            `json:"endpoint"`
		Params   map[string]string `json:"params"`
	}{Endpoint: endpoint, Params: params})
	if err != nil {
		// map[string]string always marshals
		panic(fmt.Sprintf("cache: failed to marshal request key: %v", err))
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(canonical))
}
