package gateway

import "net/http"

// Credentials authenticate a single request. They travel with each Request
// so concurrent callers never share a mutable "current user".
type Credentials interface {
	Apply(req *http.Request)
}

// APIKey authenticates against Clockify.
type APIKey string

func (k APIKey) Apply(req *http.Request) {
	req.Header.Set("X-Api-Key", string(k))
}

// BasicToken authenticates against Toggl, which takes the API token as the
// basic-auth user and the literal "api_token" as password.
type BasicToken string

func (t BasicToken) Apply(req *http.Request) {
	req.SetBasicAuth(string(t), "api_token")
}
