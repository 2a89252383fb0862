package ecommerce

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// sortedParams concatenates key/value pairs in key order, skipping "sign"
func sortedParams(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(params.Get(k))
	}
	return builder.String()
}

// signTaobao computes the Taobao TOP signature:
// uppercase hex MD5 of secret + key1value1key2value2... + secret
func signTaobao(secret string, params url.Values) string {
	hash := md5.Sum([]byte(secret + sortedParams(params) + secret))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

// signDouyin computes the Douyin open platform signature:
// hex HMAC-SHA256 keyed by secret over secret + sorted params + body + secret
func signDouyin(secret string, params url.Values, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(secret))
	h.Write([]byte(sortedParams(params)))
	h.Write(body)
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}
