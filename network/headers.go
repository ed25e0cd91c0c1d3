package network

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/peyitv/peyitv/constant"
	"github.com/samber/lo"
)

// RequestConfig is what the transport needs from a descriptor: the identity to present and the
// remaining headers. ExtraHeaders never contains the identification header in any casing.
type RequestConfig struct {
	Identification string
	ExtraHeaders   map[string]string
}

// Merge splits headers into the identification value and the extra headers. The reserved
// User-Agent key is matched case-insensitively; when it is absent defaultIdentification is used.
//
// If the key appears under several casings, the one sorting last in byte order wins.
// Every other entry is passed through untouched, case-variant duplicates included.
func Merge(headers map[string]string, defaultIdentification string) RequestConfig {
	config := RequestConfig{
		Identification: defaultIdentification,
		ExtraHeaders:   make(map[string]string, len(headers)),
	}

	var reserved []string
	for k, v := range headers {
		if isIdentification(k) {
			reserved = append(reserved, k)
			continue
		}
		config.ExtraHeaders[k] = v
	}

	if len(reserved) > 0 {
		sort.Strings(reserved)
		config.Identification = headers[reserved[len(reserved)-1]]
	}

	return config
}

func isIdentification(name string) bool {
	return strings.EqualFold(name, constant.IdentificationHeader)
}

// Apply sets the identification and extra headers on req. Keys are applied in byte order, so of
// several casings of one header the one sorting last wins, as in Merge.
func (c RequestConfig) Apply(req *http.Request) {
	if c.Identification != "" {
		req.Header.Set(constant.IdentificationHeader, c.Identification)
	}
	for _, k := range c.keys() {
		req.Header.Set(k, c.ExtraHeaders[k])
	}
}

func (c RequestConfig) keys() []string {
	keys := lo.Keys(c.ExtraHeaders)
	sort.Strings(keys)
	return keys
}

// Fields renders the extra headers as "Key: Value" lines sorted by key, the form players take them in.
func (c RequestConfig) Fields() []string {
	return lo.Map(c.keys(), func(k string, _ int) string {
		return fmt.Sprintf("%s: %s", k, c.ExtraHeaders[k])
	})
}
