package deviceapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
)

// PhoneClient talks to the generic IP phone CGI surface. Login is a
// query-string handshake; authenticated calls carry Basic auth.
type PhoneClient struct{}

func NewPhoneClient() *PhoneClient {
	return &PhoneClient{}
}

func (c *PhoneClient) Family() model.Family {
	return model.FamilyPhone
}

// Login posts the query-string login handshake. Phones return no bearer
// token; a 2xx response is the session marker and subsequent calls
// authenticate with Basic auth instead. Some firmware revisions tolerate
// anonymous reads, so callers may proceed after a failed login.
func (c *PhoneClient) Login(ctx context.Context, ip, username, password string) LoginResult {
	endpoint := "/action/login?username=" + url.QueryEscape(username) + "&password=" + url.QueryEscape(password)
	_, err := doRequest(ctx, http.MethodPost, deviceURL(ip, endpoint), "/action/login", nil, nil)
	if err != nil {
		log.Debug("Phone login failed", "ip", ip, "error", err)
		return LoginResult{}
	}
	return LoginResult{OK: true, Token: basicToken(username, password)}
}

// Call issues one Basic-authenticated request. The token is the marker
// produced by Login; when empty, default credentials are used.
func (c *PhoneClient) Call(ctx context.Context, ip, token, endpoint, method string, body any) (json.RawMessage, error) {
	if token == "" {
		token = basicToken(DefaultUsername, DefaultPassword)
	}
	headers := map[string]string{"Authorization": "Basic " + token}
	return doRequest(ctx, method, deviceURL(ip, endpoint), endpoint, headers, body)
}

func basicToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
