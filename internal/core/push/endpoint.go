package push

import (
	"net/url"
	"path"
	"strings"
)

// Endpoint schemes understood by the push transport and sender.
const (
	SchemeAMQP  = "amqp"
	SchemeAMQPS = "amqps"
	SchemeHTTPS = "https"
)

// EndpointQueue returns the broker queue an amqp(s) endpoint delivers to:
// the last path segment. ok is false for other schemes or an empty path.
func EndpointQueue(endpoint string) (queue string, ok bool) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false
	}
	if u.Scheme != SchemeAMQP && u.Scheme != SchemeAMQPS {
		return "", false
	}

	q := path.Base(strings.TrimRight(u.Path, "/"))
	if q == "" || q == "." || q == "/" {
		return "", false
	}
	return q, true
}

// EndpointBase strips credentials, query and trailing slashes from a broker
// URL so it can be published as part of a subscription endpoint.
func EndpointBase(brokerURL string) (string, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return "", err
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
