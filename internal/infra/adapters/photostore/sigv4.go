package photostore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// v4Signer produces AWS Signature Version 4 headers for single-request
// uploads. It covers exactly what the object PUT needs: host, x-amz-date
// and x-amz-content-sha256 as signed headers.
type v4Signer struct {
	accessKey string
	secretKey string
	region    string
}

func newV4Signer(accessKey, secretKey, region string) *v4Signer {
	return &v4Signer{accessKey: accessKey, secretKey: secretKey, region: region}
}

const signService = "s3"

func (v *v4Signer) sign(req *http.Request, body []byte, now time.Time) {
	payloadHash := hexSHA256(body)
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	signedHeaders, canonicalHeaders := v.canonicalHeaders(req)

	canonicalRequest := strings.Join([]string{
		req.Method,
		req.URL.EscapedPath(),
		req.URL.RawQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{dateStamp, v.region, signService, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	key := hmacSHA256([]byte("AWS4"+v.secretKey), dateStamp)
	key = hmacSHA256(key, v.region)
	key = hmacSHA256(key, signService)
	key = hmacSHA256(key, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		v.accessKey, scope, signedHeaders, signature,
	))
}

func (v *v4Signer) canonicalHeaders(req *http.Request) (signed, canonical string) {
	headers := map[string]string{
		"host":                 req.Host,
		"x-amz-date":           req.Header.Get("X-Amz-Date"),
		"x-amz-content-sha256": req.Header.Get("X-Amz-Content-Sha256"),
	}
	if headers["host"] == "" {
		headers["host"] = req.URL.Host
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(headers[name]))
		b.WriteByte('\n')
	}
	return strings.Join(names, ";"), b.String()
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
