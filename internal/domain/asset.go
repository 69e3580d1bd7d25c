package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// AssetKind identifies one of the generated decorative images.
type AssetKind string

const (
	AssetBrandMark AssetKind = "brand-mark"
	AssetHero      AssetKind = "hero"
)

// AssetKinds lists every asset kind fetched at startup.
var AssetKinds = []AssetKind{AssetBrandMark, AssetHero}

// ParseAssetKind maps a path segment to an AssetKind.
func ParseAssetKind(s string) (AssetKind, error) {
	for _, k := range AssetKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}

// EncodeDataURI renders image bytes in the textual form stored by the asset cache.
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI reverses EncodeDataURI.
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("DecodeDataURI: missing data: prefix")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("DecodeDataURI: missing payload separator")
	}
	mimeType, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("DecodeDataURI: payload is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("DecodeDataURI: decode payload: %w", err)
	}
	return mimeType, data, nil
}
